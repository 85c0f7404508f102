package store

import (
	"context"

	"github.com/google/uuid"

	"notewise/internal/enhance"
)

// SessionStore persists terminal enhancement sessions. SaveSession
// satisfies enhance.Archiver, so any SessionStore can be handed to the
// service directly.
type SessionStore interface {
	SaveSession(ctx context.Context, rec enhance.SessionRecord) error
	GetSession(ctx context.Context, id uuid.UUID) (enhance.SessionRecord, error)
	ListSessions(ctx context.Context, limit int) ([]enhance.SessionRecord, error)
}
