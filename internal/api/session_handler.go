package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"notewise/internal/api/shared"
	"notewise/internal/store"
)

// defaultSessionListLimit bounds GET /api/sessions when no limit is
// given.
const defaultSessionListLimit = 20

// SessionHandler serves the archived-session endpoints.
type SessionHandler struct {
	store store.SessionStore
}

// NewSessionHandler wires the handler to a session store.
func NewSessionHandler(s store.SessionStore) *SessionHandler {
	return &SessionHandler{store: s}
}

// List handles GET /api/sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	recs, err := h.store.ListSessions(r.Context(), limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, recs)
}

// Get handles GET /api/sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid session ID")
		return
	}

	rec, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Session not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to load session", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, rec)
}
