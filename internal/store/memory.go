package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"notewise/internal/enhance"
)

// MemorySessionStore keeps archived sessions in memory. It is the
// fallback when no database URL is configured; records do not survive a
// restart.
type MemorySessionStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]enhance.SessionRecord
	ids  []uuid.UUID
}

// NewMemorySessionStore returns an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{byID: make(map[uuid.UUID]enhance.SessionRecord)}
}

// SaveSession stores or replaces the record.
func (s *MemorySessionStore) SaveSession(ctx context.Context, rec enhance.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[rec.ID]; !exists {
		s.ids = append(s.ids, rec.ID)
	}
	s.byID[rec.ID] = rec
	return nil
}

// GetSession returns the record or ErrSessionNotFound.
func (s *MemorySessionStore) GetSession(ctx context.Context, id uuid.UUID) (enhance.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return enhance.SessionRecord{}, ErrSessionNotFound
	}
	return rec, nil
}

// ListSessions returns the most recently saved records first, up to
// limit (unlimited when limit <= 0).
func (s *MemorySessionStore) ListSessions(ctx context.Context, limit int) ([]enhance.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]enhance.SessionRecord, 0, len(s.ids))
	for i := len(s.ids) - 1; i >= 0; i-- {
		out = append(out, s.byID[s.ids[i]])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
