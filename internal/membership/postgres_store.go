package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// PostgresProfileStore reads and writes the Supabase profiles table.
type PostgresProfileStore struct {
	db *sql.DB

	schemaMu    sync.Mutex
	schemaReady atomic.Bool
}

func NewPostgresProfileStore(db *sql.DB) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

const profilesSchema = `
CREATE TABLE IF NOT EXISTS profiles (
    user_id TEXT PRIMARY KEY,
    email TEXT NOT NULL DEFAULT '',
    name TEXT,
    role TEXT NOT NULL DEFAULT 'member',
    expiration_at TIMESTAMP WITH TIME ZONE,
    revoked_at TIMESTAMP WITH TIME ZONE,
    last_login_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`

// EnsureSchema creates the profiles table if needed. A failed attempt is
// retried on the next call.
func (s *PostgresProfileStore) EnsureSchema(ctx context.Context) error {
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
	if _, err := s.db.ExecContext(ctx, profilesSchema); err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}
	s.schemaReady.Store(true)
	return nil
}

const profileColumns = `user_id, email, name, role, expiration_at, revoked_at, last_login_at, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*Profile, error) {
	var (
		p                          Profile
		name                       sql.NullString
		role                       string
		expiration, revoked, login sql.NullTime
		created                    sql.NullTime
	)
	if err := row.Scan(&p.UserID, &p.Email, &name, &role, &expiration, &revoked, &login, &created); err != nil {
		return nil, err
	}
	p.Name = name.String
	p.Role = Role(role)
	p.ExpirationAt = timePtr(expiration)
	p.RevokedAt = timePtr(revoked)
	p.LastLoginAt = timePtr(login)
	p.CreatedAt = created.Time
	return &p, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *PostgresProfileStore) Get(ctx context.Context, userID string) (*Profile, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id=$1`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

func (s *PostgresProfileStore) List(ctx context.Context) ([]Profile, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *PostgresProfileStore) Upsert(ctx context.Context, p Profile) error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrUserIDRequired
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO profiles (user_id, email, name, role, expiration_at, revoked_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id)
DO UPDATE SET email=EXCLUDED.email, name=EXCLUDED.name, role=EXCLUDED.role,
    expiration_at=EXCLUDED.expiration_at, revoked_at=EXCLUDED.revoked_at
`, p.UserID, p.Email, nullString(p.Name), string(p.Role), p.ExpirationAt, p.RevokedAt)
	return err
}

func (s *PostgresProfileStore) Update(ctx context.Context, userID string, patch Patch) (*Profile, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Name != nil {
		add("name", nullString(*patch.Name))
	}
	if patch.Role != nil {
		add("role", string(*patch.Role))
	}
	if len(sets) == 0 {
		return s.Get(ctx, userID)
	}
	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE user_id=$%d RETURNING `+profileColumns, strings.Join(sets, ", "), len(args))
	p, err := scanProfile(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

func (s *PostgresProfileStore) Revoke(ctx context.Context, userID string, at time.Time) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET revoked_at=$1 WHERE user_id=$2`, at, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrProfileNotFound
	}
	return nil
}
