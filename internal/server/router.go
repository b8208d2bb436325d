package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/guildproxy/internal/metrics"
	"github.com/parsascontentcorner/guildproxy/internal/models"
)

// RouterConfig collects what NewRouter needs besides the handlers
type RouterConfig struct {
	StaticDir string
	// Metrics records request counts; nil disables recording
	Metrics metrics.Recorder
	// MetricsHandler is mounted at /metrics when non-nil
	MetricsHandler http.Handler
}

// NewRouter builds the chi router with every route and the middleware chain
func NewRouter(h *Handlers, cfg RouterConfig, logger *zap.Logger) http.Handler {
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.Noop{}
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(metricsMiddleware(rec))
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", h.HealthHandler)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/invite", h.Cached(models.CacheKeyInviteStats))
		r.Get("/channels", h.Cached(models.CacheKeyChannels))
		r.Get("/moderators", h.Cached(models.CacheKeyModerators))
		r.Get("/gallery", h.Cached(models.CacheKeyGallery))
		r.Get("/jenna", h.Cached(models.CacheKeyJenna))
		r.Post("/join", h.JoinHandler)
		r.Post("/upload", h.UploadHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/uploads", h.ListUploadsHandler)
			r.Post("/approve", h.ApproveHandler)
			r.Post("/reject", h.RejectHandler)
			r.Post("/set_asset", h.SetAssetHandler)
			r.Post("/add_jenna", h.AddJennaHandler)
			r.Post("/collect_jenna_images", h.CollectJennaImagesHandler)
			r.Post("/channels", h.ChannelsHandler)
		})
	})

	static := NewStaticHandler(cfg.StaticDir, logger)
	r.Method(http.MethodGet, "/", static)
	r.Method(http.MethodGet, "/*", static)

	return r
}
