package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/enhance"
	"notewise/internal/store"
)

// failingDB returns a fixed error from every call, which is enough to
// exercise the store's error wrapping without a live database.
type failingDB struct {
	err error
}

func (f *failingDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, f.err
}

func (f *failingDB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, f.err
}

func (f *failingDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, f.err
}

func (f *failingDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return &sql.Row{}
}

func TestSaveSessionWrapsDriverError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	s := NewSessionStore(&failingDB{err: boom})

	err := s.SaveSession(context.Background(), enhance.SessionRecord{
		ID:         uuid.New(),
		State:      enhance.StateAccepted,
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
	})
	require.Error(t, err)

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "session", storeErr.Entity)
	assert.Equal(t, "save", storeErr.Operation)
	assert.ErrorIs(t, err, boom)
}

func TestListSessionsWrapsDriverError(t *testing.T) {
	t.Parallel()

	s := NewSessionStore(&failingDB{err: errors.New("timeout")})
	_, err := s.ListSessions(context.Background(), 10)

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "list", storeErr.Operation)
}

func TestMapError(t *testing.T) {
	t.Parallel()

	t.Run("nil passes through", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, MapError(nil))
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		t.Parallel()
		err := MapError(sql.ErrNoRows)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("unique violation is annotated", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "enhancement_sessions_pkey"}
		err := MapError(pgErr)
		assert.Contains(t, err.Error(), "duplicate record")
		assert.Contains(t, err.Error(), "enhancement_sessions_pkey")
	})

	t.Run("unmapped errors pass through unchanged", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("weird failure")
		assert.Same(t, boom, MapError(boom))
	})
}
