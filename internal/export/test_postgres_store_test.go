package export

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createExports = regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS topic_exports")

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStorePutArgs(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec(createExports).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topic_exports (id, name, content_type, content, created_at)")).
		WithArgs("exp1", "topics.csv", "text/csv", []byte("a,b"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Put(context.Background(), " exp1 ", "/topics.csv", []byte("a,b"), "text/csv"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGet(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	ctx := context.Background()
	query := regexp.QuoteMeta("SELECT content FROM topic_exports WHERE id=$1 AND name=$2")

	mock.ExpectExec(createExports).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(query).WithArgs("exp1", "topics.txt").
		WillReturnRows(sqlmock.NewRows([]string{"content"}).AddRow([]byte("1. 甲")))
	mock.ExpectQuery(query).WithArgs("exp1", "gone.txt").
		WillReturnRows(sqlmock.NewRows([]string{"content"}))

	got, err := store.Get(ctx, "exp1", "topics.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("1. 甲"), got)

	_, err = store.Get(ctx, "exp1", "gone.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreRetriesSchemaAfterFailure(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	ctx := context.Background()

	mock.ExpectExec(createExports).WillReturnError(context.DeadlineExceeded)
	mock.ExpectExec(createExports).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM topic_exports WHERE id=$1 ORDER BY name")).
		WithArgs("exp1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a.csv").AddRow("a.json"))

	_, err := store.List(ctx, "exp1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	names, err := store.List(ctx, "exp1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "a.json"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreValidatesBeforeQuerying(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	ctx := context.Background()

	assert.Error(t, store.Put(ctx, "", "a.txt", nil, ""))
	_, err := store.Get(ctx, "exp1", " ")
	assert.Error(t, err)
	_, err = store.List(ctx, "")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
