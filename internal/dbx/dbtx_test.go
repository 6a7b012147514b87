package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupDB returns a sqlite DB with a single user row holding refresh
// token "r0".
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS users (id TEXT PRIMARY KEY, refresh_token TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users(id, refresh_token) VALUES ('u1', 'r0')`)
	require.NoError(t, err)
	return db
}

func refreshToken(t *testing.T, db *sql.DB) string {
	t.Helper()
	var tok string
	require.NoError(t, db.QueryRow(`SELECT refresh_token FROM users WHERE id = 'u1'`).Scan(&tok))
	return tok
}

func rotate(ctx context.Context, tx DBTX, next string) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET refresh_token = ? WHERE id = 'u1'`, next)
	return err
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return rotate(ctx, tx, "r1")
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", refreshToken(t, db))
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)
	errStale := errors.New("stale token")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, rotate(ctx, tx, "r1"))
		return errStale
	})
	assert.ErrorIs(t, err, errStale)
	assert.Equal(t, "r0", refreshToken(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		require.NotNil(t, recover(), "panic must propagate")
		assert.Equal(t, "r0", refreshToken(t, db))
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, rotate(ctx, tx, "r1"))
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		t.Fatal("fn must not run without a transaction")
		return nil
	})
	assert.Error(t, err)
}

func TestWithTx_CommitErrorIsReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	assert.EqualError(t, err, "serialization failure")
	assert.NoError(t, mock.ExpectationsWereMet())
}
