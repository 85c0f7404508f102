package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"notewise/internal/api/middleware"
)

// NewRouter assembles the HTTP surface.
func NewRouter(enhance *EnhanceHandler, sessions *SessionHandler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Trace)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/enhancements", func(r chi.Router) {
			r.Post("/", enhance.Start)
			r.Get("/current", enhance.Status)
			r.Post("/refine", enhance.Refine)
			r.Post("/accept", enhance.Accept)
			r.Post("/reject", enhance.Reject)
		})

		r.Post("/summarize", enhance.Summarize)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessions.List)
			r.Get("/{id}", sessions.Get)
		})
	})

	return r
}
