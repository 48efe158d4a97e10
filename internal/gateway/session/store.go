// Package session keeps the keyword boards of in-progress generation
// sessions in memory. Boards are cheap to rebuild, so eviction only costs
// the user their current grid.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"topicgrid/internal/grid"
	"topicgrid/internal/prompt"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrUnknownFlow = errors.New("unknown flow")
)

const (
	DefaultTTL     = 2 * time.Hour
	DefaultMaxSize = 4096
)

// Session is a board plus the user it belongs to. Owner is empty when the
// gateway runs without authentication.
type Session struct {
	ID    string
	Owner string
	Board *grid.Board
}

type Store struct {
	cache *expirable.LRU[string, *Session]
	newID func() string
}

func NewStore(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cache: expirable.NewLRU[string, *Session](size, nil, ttl),
		newID: uuid.NewString,
	}
}

func (s *Store) Create(owner string, flow prompt.Flow) (*Session, error) {
	b := grid.NewBoard(flow)
	if b == nil {
		return nil, ErrUnknownFlow
	}
	sess := &Session{ID: s.newID(), Owner: owner, Board: b}
	s.cache.Add(sess.ID, sess)
	return sess, nil
}

// Get returns the session only to its owner; anyone else gets ErrNotFound.
// A hit refreshes the entry's TTL.
func (s *Store) Get(owner, id string) (*Session, error) {
	sess, ok := s.cache.Get(id)
	if !ok || sess.Owner != owner {
		return nil, ErrNotFound
	}
	s.cache.Add(id, sess)
	return sess, nil
}

func (s *Store) Delete(owner, id string) error {
	if _, err := s.Get(owner, id); err != nil {
		return err
	}
	s.cache.Remove(id)
	return nil
}

func (s *Store) Len() int {
	return s.cache.Len()
}
