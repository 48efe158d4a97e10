package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// PostgresStore keeps exports in the topic_exports table. It is used when
// no bucket is configured but DATABASE_URL is.
type PostgresStore struct {
	db *sql.DB

	schemaMu    sync.Mutex
	schemaReady atomic.Bool
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const exportsSchema = `
CREATE TABLE IF NOT EXISTS topic_exports (
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    content_type TEXT NOT NULL DEFAULT '',
    content BYTEA NOT NULL DEFAULT ''::bytea,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    PRIMARY KEY (id, name)
);
`

// EnsureSchema creates the topic_exports table if needed. A failed attempt is
// retried on the next call.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	if s.schemaReady.Load() {
		return nil
	}
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady.Load() {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, exportsSchema); err != nil {
		return fmt.Errorf("failed to create topic_exports table: %w", err)
	}
	s.schemaReady.Store(true)
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, id, name string, content []byte, contentType string) error {
	id, name, err := validate(id, name)
	if err != nil {
		return err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	if content == nil {
		content = []byte{}
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO topic_exports (id, name, content_type, content, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id, name)
DO UPDATE SET content=EXCLUDED.content, content_type=EXCLUDED.content_type
`, id, name, contentType, content, time.Now())
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id, name string) ([]byte, error) {
	id, name, err := validate(id, name)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	var content []byte
	err = s.db.QueryRowContext(ctx, `SELECT content FROM topic_exports WHERE id=$1 AND name=$2`, id, name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return content, err
}

func (s *PostgresStore) List(ctx context.Context, id string) ([]string, error) {
	if id == "" {
		return nil, fmt.Errorf("export id is required")
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM topic_exports WHERE id=$1 ORDER BY name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// GetURL is always empty: content is served through the gateway.
func (s *PostgresStore) GetURL(context.Context, string, string) (string, error) {
	return "", nil
}
