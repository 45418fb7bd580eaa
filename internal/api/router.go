package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jarvis/internal/assistant"
)

// RouterConfig controls the protections in front of the routes.
type RouterConfig struct {
	AuthEnabled bool
	Token       string
	// Limiter throttles the routes that reach the language model or the
	// transcription service. Nil disables it.
	Limiter     *RateLimiter
	CORSOrigins []string
}

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *assistant.Service, cfg RouterConfig, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(CORS(cfg.CORSOrigins))
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	r.Get("/actions", h.Actions)
	r.Get("/trash", h.Trash)
	r.Post("/trash/restore", h.Restore)
	r.Get("/history", h.History)

	r.Group(func(r chi.Router) {
		r.Use(cfg.Limiter.Handler)
		r.Post("/chat", h.Chat)
		r.Post("/execute", h.Execute)
		r.Post("/stt", h.STT)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
