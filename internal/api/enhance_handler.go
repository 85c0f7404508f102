// Package api exposes the enhancement workflow over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"notewise/internal/api/shared"
	"notewise/internal/enhance"
	"notewise/internal/events"
	"notewise/internal/generation"
)

// EnhancementService is the slice of the enhance service the handlers
// need.
type EnhancementService interface {
	StartEnhancement(ctx context.Context, req enhance.StartRequest) (uuid.UUID, error)
	Refine(ctx context.Context, feedback string) error
	Accept(ctx context.Context) (string, error)
	Reject(ctx context.Context) error
	Summarize(ctx context.Context, text string) (string, error)
	Snapshot() enhance.View
}

// StartEnhancementRequest is the body for POST /api/enhancements.
type StartEnhancementRequest struct {
	Text      string             `json:"text"      validate:"required,min=1"`
	Style     string             `json:"style"     validate:"omitempty,oneof=default clarity concise expand custom template"`
	Prompt    string             `json:"prompt"    validate:"omitempty,max=4096"`
	Selection *enhance.Selection `json:"selection" validate:"omitempty"`
}

// RefineRequest is the body for POST /api/enhancements/refine.
type RefineRequest struct {
	Feedback string `json:"feedback" validate:"required,min=1"`
}

// SummarizeRequest is the body for POST /api/summarize.
type SummarizeRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// StartEnhancementResponse acknowledges an accepted enhancement.
type StartEnhancementResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	State     string    `json:"state"`
}

// AcceptResponse returns the accepted text.
type AcceptResponse struct {
	Text string `json:"text"`
}

// SummarizeResponse returns the summary for an ad-hoc note.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// EnhanceHandler serves the enhancement session endpoints.
type EnhanceHandler struct {
	svc     EnhancementService
	emitter events.Emitter
}

// NewEnhanceHandler wires the handler. emitter may be nil when no
// subscribers exist.
func NewEnhanceHandler(svc EnhancementService, emitter events.Emitter) *EnhanceHandler {
	return &EnhanceHandler{svc: svc, emitter: emitter}
}

// Start handles POST /api/enhancements. Processing is asynchronous, so
// a successful start returns 202 and progress is polled via Status.
func (h *EnhanceHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartEnhancementRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	style := enhance.StyleDefault
	if req.Style != "" {
		style = enhance.Style(req.Style)
	}

	id, err := h.svc.StartEnhancement(r.Context(), enhance.StartRequest{
		Text:       req.Text,
		Style:      style,
		UserPrompt: req.Prompt,
		Selection:  req.Selection,
	})
	switch {
	case errors.Is(err, enhance.ErrSessionActive):
		shared.RespondWithError(w, r, http.StatusConflict, "An enhancement session is already active")
		return
	case errors.Is(err, generation.ErrEmptyResult):
		shared.RespondWithError(w, r, http.StatusBadRequest, "Note text is empty")
		return
	case err != nil:
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to start enhancement", err)
		return
	}

	h.emit(r.Context(), events.TypeEnhancementRequested, events.EnhancementRequestedPayload{
		SessionID: id,
		Style:     string(style),
		TextChars: len(req.Text),
	})

	shared.RespondWithJSON(w, r, http.StatusAccepted, StartEnhancementResponse{
		SessionID: id,
		State:     string(enhance.StateStarted),
	})
}

// Status handles GET /api/enhancements/current.
func (h *EnhanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.svc.Snapshot())
}

// Refine handles POST /api/enhancements/refine.
func (h *EnhanceHandler) Refine(w http.ResponseWriter, r *http.Request) {
	var req RefineRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.svc.Refine(r.Context(), req.Feedback); err != nil {
		if errors.Is(err, enhance.ErrNoSession) {
			shared.RespondWithError(w, r, http.StatusConflict, "No enhancement is awaiting feedback")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to start refinement", err)
		return
	}

	h.emit(r.Context(), events.TypeRefinementRequested, events.SessionOutcomePayload{
		SessionID: h.svc.Snapshot().SessionID,
	})
	shared.RespondWithJSON(w, r, http.StatusAccepted, h.svc.Snapshot())
}

// Accept handles POST /api/enhancements/accept.
func (h *EnhanceHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id := h.svc.Snapshot().SessionID
	text, err := h.svc.Accept(r.Context())
	if err != nil {
		if errors.Is(err, enhance.ErrNoSession) {
			shared.RespondWithError(w, r, http.StatusConflict, "No enhancement is ready to accept")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to accept enhancement", err)
		return
	}

	h.emit(r.Context(), events.TypeEnhancementAccepted, events.SessionOutcomePayload{SessionID: id})
	shared.RespondWithJSON(w, r, http.StatusOK, AcceptResponse{Text: text})
}

// Reject handles POST /api/enhancements/reject.
func (h *EnhanceHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := h.svc.Snapshot().SessionID
	if err := h.svc.Reject(r.Context()); err != nil {
		if errors.Is(err, enhance.ErrNoSession) {
			shared.RespondWithError(w, r, http.StatusConflict, "No enhancement is ready to reject")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to reject enhancement", err)
		return
	}

	h.emit(r.Context(), events.TypeEnhancementRejected, events.SessionOutcomePayload{SessionID: id})
	w.WriteHeader(http.StatusNoContent)
}

// Summarize handles POST /api/summarize, a synchronous one-shot
// summary outside any session.
func (h *EnhanceHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	summary, err := h.svc.Summarize(r.Context(), req.Text)
	switch {
	case errors.Is(err, generation.ErrEmptyResult):
		shared.RespondWithError(w, r, http.StatusUnprocessableEntity, "Nothing to summarize")
		return
	case errors.Is(err, generation.ErrNetwork), errors.Is(err, generation.ErrModelUnavailable):
		shared.RespondWithErrorAndLog(w, r, http.StatusBadGateway, "Summarization backend unavailable", err)
		return
	case err != nil:
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to summarize", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SummarizeResponse{Summary: summary})
}

func (h *EnhanceHandler) emit(ctx context.Context, eventType string, payload any) {
	if h.emitter == nil {
		return
	}
	ev, err := events.New(eventType, payload)
	if err != nil {
		return
	}
	// Emission failures are already logged by the emitter.
	_ = h.emitter.EmitEvent(ctx, ev)
}
