package api

import (
	"log/slog"
	"net/http"

	"diary-ai-gateway/generation"
	"diary-ai-gateway/middleware/ratelimit/infra"
	"diary-ai-gateway/middleware/requestid"
	"diary-ai-gateway/transform"

	"github.com/go-chi/chi/v5"
)

type Middleware func(http.Handler) http.Handler

type Deps struct {
	Orchestrator *transform.Orchestrator
	// Chatter usado pelo probe de /api/ai/health; nil responde DOWN.
	Chatter generation.Chatter
	// Stats nil responde 404 em /api/ratelimit/stats.
	Stats infra.StatsReader

	// Aplicados nesta ordem, antes do request id.
	RateLimit   Middleware
	Concurrency Middleware

	Logger *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handlers{
		orch:    d.Orchestrator,
		chatter: d.Chatter,
		stats:   d.Stats,
		log:     d.Logger,
	}

	r := chi.NewRouter()
	if d.RateLimit != nil {
		r.Use(d.RateLimit)
	}
	if d.Concurrency != nil {
		r.Use(d.Concurrency)
	}
	r.Use(requestid.Middleware)

	r.Get("/healthz", h.healthz)
	r.Route("/api/ai", func(r chi.Router) {
		r.Post("/transform", h.transform)
		r.Get("/ping", h.ping)
		r.Get("/health", h.health)
		r.Get("/styles", h.styles)
	})
	r.Get("/api/ratelimit/stats", h.rateStats)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})
	return r
}
