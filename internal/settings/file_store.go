package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps preferences in a small JSON object on disk. It is what the
// CLI uses between runs.
type FileStore struct {
	path string

	mu       sync.Mutex
	loadOnce sync.Once
	loadErr  error
	vals     map[string]string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, vals: make(map[string]string)}
}

func (f *FileStore) ensureLoaded() error {
	f.loadOnce.Do(func() {
		b, err := os.ReadFile(f.path)
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			f.loadErr = err
			return
		}
		if len(b) == 0 {
			return
		}
		if err := json.Unmarshal(b, &f.vals); err != nil {
			f.loadErr = fmt.Errorf("decode %s: %w", f.path, err)
		}
	})
	return f.loadErr
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureLoaded(); err != nil {
		return "", false, err
	}
	v, ok := f.vals[key]
	return v, ok, nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureLoaded(); err != nil {
		return err
	}
	f.vals[key] = value
	b, err := json.MarshalIndent(f.vals, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
