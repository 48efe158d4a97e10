package membership

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createProfiles = regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS profiles")

func newMockProfileStore(t *testing.T) (*PostgresProfileStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresProfileStore(db), mock
}

func profileRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "email", "name", "role", "expiration_at", "revoked_at", "last_login_at", "created_at"})
}

func TestPostgresProfileStoreRetriesSchemaAfterFailure(t *testing.T) {
	store, mock := newMockProfileStore(t)
	ctx := context.Background()

	mock.ExpectExec(createProfiles).WillReturnError(context.Canceled)
	mock.ExpectExec(createProfiles).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE user_id=$1")).
		WithArgs("u1").
		WillReturnRows(profileRows().AddRow("u1", "u1@example.com", nil, "member", nil, nil, nil, time.Now()))

	_, err := store.Get(ctx, "u1")
	require.ErrorIs(t, err, context.Canceled)

	p, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", p.Email)
	assert.Equal(t, RoleMember, p.Role)
	assert.Nil(t, p.ExpirationAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileStoreSchemaRunsOnce(t *testing.T) {
	store, mock := newMockProfileStore(t)
	ctx := context.Background()

	mock.ExpectExec(createProfiles).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE user_id=$1")).
		WithArgs("missing").
		WillReturnRows(profileRows())
	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileStoreUpsertArgs(t *testing.T) {
	store, mock := newMockProfileStore(t)
	exp := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(createProfiles).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles (user_id, email, name, role, expiration_at, revoked_at)")).
		WithArgs("u1", "u1@example.com", nil, "admin", exp, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Upsert(context.Background(), Profile{
		UserID:       "u1",
		Email:        "u1@example.com",
		Role:         RoleAdmin,
		ExpirationAt: &exp,
	}))
	assert.ErrorIs(t, store.Upsert(context.Background(), Profile{}), ErrUserIDRequired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileStoreUpdateBuildsSetClause(t *testing.T) {
	store, mock := newMockProfileStore(t)
	name := "Mei"
	role := RoleAdmin

	mock.ExpectExec(createProfiles).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles SET name=$1, role=$2 WHERE user_id=$3 RETURNING")).
		WithArgs("Mei", "admin", "u1").
		WillReturnRows(profileRows().AddRow("u1", "u1@example.com", "Mei", "admin", nil, nil, nil, time.Now()))

	p, err := store.Update(context.Background(), "u1", Patch{Name: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Mei", p.Name)
	assert.Equal(t, RoleAdmin, p.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileStoreRevoke(t *testing.T) {
	store, mock := newMockProfileStore(t)
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(createProfiles).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET revoked_at=$1 WHERE user_id=$2")).
		WithArgs(at, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET revoked_at=$1 WHERE user_id=$2")).
		WithArgs(at, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, store.Revoke(ctx, "u1", at))
	assert.ErrorIs(t, store.Revoke(ctx, "ghost", at), ErrProfileNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileStoreListSurfacesQueryError(t *testing.T) {
	store, mock := newMockProfileStore(t)
	boom := errors.New("connection reset")

	mock.ExpectExec(createProfiles).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles ORDER BY created_at DESC")).WillReturnError(boom)

	_, err := store.List(context.Background())
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
