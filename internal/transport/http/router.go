package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"spooker/internal/config"
	"spooker/internal/metrics"
	"spooker/internal/middleware"
	ws "spooker/internal/websocket"
)

// NewRouter assembles the middleware chain and the API routes.
func NewRouter(h *Handler, hub *ws.Hub, cfg *config.Config, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compress(5))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	if cfg.Server.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst, logger)
		r.Use(limiter.Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/files", h.ListFiles)
		r.Post("/upload", h.Upload)
		r.Post("/process", h.Process)
		r.Delete("/files/{name}", h.DeleteFile)
		r.Get("/download/{name}", h.Download)
	})

	r.Get("/ws", ws.Upgrader(hub, cfg.WebSocket, logger))
	r.Handle("/metrics", metrics.Handler())

	if cfg.Paths.WebDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.Paths.WebDir)))
	}

	return r
}
