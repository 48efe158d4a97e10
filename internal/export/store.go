package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("export not found")

// Store persists rendered exports under an export id.
type Store interface {
	Put(ctx context.Context, id, name string, content []byte, contentType string) error
	Get(ctx context.Context, id, name string) ([]byte, error)
	// GetURL returns a download link, or "" when the store cannot serve one.
	GetURL(ctx context.Context, id, name string) (string, error)
	List(ctx context.Context, id string) ([]string, error)
}

func validate(id, name string) (string, string, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return "", "", fmt.Errorf("export id is required")
	}
	if name == "" {
		return "", "", fmt.Errorf("file name is required")
	}
	return id, strings.TrimLeft(name, "/"), nil
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, id, name string, content []byte, _ string) error {
	id, name, err := validate(id, name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id+"/"+name] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id, name string) ([]byte, error) {
	id, name, err := validate(id, name)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[id+"/"+name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) List(_ context.Context, id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("export id is required")
	}
	prefix := id + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 4)
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			out = append(out, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) GetURL(context.Context, string, string) (string, error) {
	return "", nil
}
