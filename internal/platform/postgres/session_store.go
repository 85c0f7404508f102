// Package postgres implements the store interfaces on PostgreSQL,
// plus the embedded goose migrations that create their schema.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notewise/internal/enhance"
	"notewise/internal/platform/logger"
	"notewise/internal/store"
)

// SessionStore implements store.SessionStore on PostgreSQL.
type SessionStore struct {
	db store.DBTX
}

// NewSessionStore creates a session store over db, which may be a
// connection pool or an open transaction.
func NewSessionStore(db store.DBTX) *SessionStore {
	return &SessionStore{db: db}
}

// SaveSession upserts a terminal session record. Archiving retries hit
// the same ID, so insert conflicts update in place.
func (s *SessionStore) SaveSession(ctx context.Context, rec enhance.SessionRecord) error {
	log := logger.FromContext(ctx)

	entities, err := json.Marshal(rec.Entities)
	if err != nil {
		return store.NewStoreError("session", "save", "encoding entities", err)
	}

	query := `
		INSERT INTO enhancement_sessions
			(id, state, original_text, generated_text, feedback, error_message, entities, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			generated_text = EXCLUDED.generated_text,
			feedback = EXCLUDED.feedback,
			error_message = EXCLUDED.error_message,
			finished_at = EXCLUDED.finished_at
	`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		string(rec.State),
		rec.OriginalText,
		rec.GeneratedText,
		rec.Feedback,
		rec.ErrMessage,
		entities,
		rec.StartedAt,
		rec.FinishedAt,
	)
	if err != nil {
		log.Error("failed to save session",
			"session_id", rec.ID,
			"state", rec.State,
			"error", err)
		return store.NewStoreError("session", "save", "database write", MapError(err))
	}
	return nil
}

// GetSession loads one archived session by ID.
func (s *SessionStore) GetSession(ctx context.Context, id uuid.UUID) (enhance.SessionRecord, error) {
	query := `
		SELECT id, state, original_text, generated_text, feedback, error_message, entities, started_at, finished_at
		FROM enhancement_sessions
		WHERE id = $1
	`
	rec, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return enhance.SessionRecord{}, store.ErrSessionNotFound
		}
		return enhance.SessionRecord{}, store.NewStoreError("session", "get", "database read", MapError(err))
	}
	return rec, nil
}

// ListSessions returns archived sessions newest first, up to limit
// (unlimited when limit <= 0).
func (s *SessionStore) ListSessions(ctx context.Context, limit int) ([]enhance.SessionRecord, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, state, original_text, generated_text, feedback, error_message, entities, started_at, finished_at
		FROM enhancement_sessions
		ORDER BY finished_at DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query sessions", "error", err)
		return nil, store.NewStoreError("session", "list", "database read", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var recs []enhance.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, store.NewStoreError("session", "list", "scanning row", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("session", "list", "iterating rows", MapError(err))
	}
	return recs, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (enhance.SessionRecord, error) {
	var (
		rec        enhance.SessionRecord
		state      string
		feedback   sql.NullString
		errMsg     sql.NullString
		entities   []byte
		startedAt  time.Time
		finishedAt time.Time
	)
	if err := row.Scan(&rec.ID, &state, &rec.OriginalText, &rec.GeneratedText,
		&feedback, &errMsg, &entities, &startedAt, &finishedAt); err != nil {
		return enhance.SessionRecord{}, err
	}

	rec.State = enhance.State(state)
	rec.Feedback = feedback.String
	rec.ErrMessage = errMsg.String
	rec.StartedAt = startedAt
	rec.FinishedAt = finishedAt
	if len(entities) > 0 {
		if err := json.Unmarshal(entities, &rec.Entities); err != nil {
			return enhance.SessionRecord{}, fmt.Errorf("decoding entities: %w", err)
		}
	}
	return rec, nil
}
