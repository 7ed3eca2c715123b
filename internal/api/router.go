package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

// NewRouter mounts the email API under /api/email behind the auth gate.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.log))
	r.Use(Recover(h.log))
	r.Use(CORS(cfg.AllowedOrigins...))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Route("/api/email", func(r chi.Router) {
		r.Use(Authenticate(cfg.JWTSecret))

		r.Post("/send", h.SendEmail)
		r.Post("/schedule", h.ScheduleEmail)
		r.Post("/batch", h.ScheduleBatch)
		r.Get("/history", h.GetHistory)
		r.Get("/scheduled", h.GetScheduled)
		r.Delete("/scheduled/{id}", h.CancelScheduled)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	return r
}
