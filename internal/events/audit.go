package events

import (
	"context"
	"log/slog"
)

// AuditHandler logs every workflow event, giving operators a single
// stream of session activity regardless of which endpoint triggered it.
type AuditHandler struct {
	logger *slog.Logger
}

// NewAuditHandler creates the audit subscriber.
func NewAuditHandler(logger *slog.Logger) *AuditHandler {
	return &AuditHandler{logger: logger.With("component", "workflow_audit")}
}

// HandleEvent implements Handler.
func (h *AuditHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.logger.Info("workflow event",
		"event_id", event.ID,
		"event_type", event.Type,
		"created_at", event.CreatedAt)
	return nil
}
