// Package events decouples the API surface from the enhancement
// service: handlers publish workflow events, subscribers react to them,
// and neither side imports the other.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Workflow event types.
const (
	TypeEnhancementRequested = "enhancement.requested"
	TypeRefinementRequested  = "enhancement.refinement_requested"
	TypeEnhancementAccepted  = "enhancement.accepted"
	TypeEnhancementRejected  = "enhancement.rejected"
	TypeEnhancementFailed    = "enhancement.failed"
)

// Event is one workflow notification. The payload is kept as raw JSON
// so emitters and handlers agree only on the event type string.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// New builds an event of the given type with a JSON-encoded payload.
func New(eventType string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload decodes the payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// EnhancementRequestedPayload accompanies TypeEnhancementRequested.
type EnhancementRequestedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	Style     string    `json:"style"`
	TextChars int       `json:"text_chars"`
}

// SessionOutcomePayload accompanies the accepted, rejected, and failed
// event types.
type SessionOutcomePayload struct {
	SessionID  uuid.UUID `json:"session_id"`
	ErrMessage string    `json:"error,omitempty"`
}

// Handler reacts to a workflow event.
type Handler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// Emitter publishes workflow events to registered handlers.
type Emitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}
