// Package main is the entry point for the guild proxy.
// It serves the fan site API, the admin endpoints and the static files.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/parsascontentcorner/guildproxy/internal/cache"
	"github.com/parsascontentcorner/guildproxy/internal/config"
	"github.com/parsascontentcorner/guildproxy/internal/discord"
	"github.com/parsascontentcorner/guildproxy/internal/gallery"
	"github.com/parsascontentcorner/guildproxy/internal/metrics"
	"github.com/parsascontentcorner/guildproxy/internal/ratelimit"
	"github.com/parsascontentcorner/guildproxy/internal/server"
	"github.com/parsascontentcorner/guildproxy/internal/siteconfig"
	"github.com/parsascontentcorner/guildproxy/internal/uploads"
	"github.com/parsascontentcorner/guildproxy/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		// Sync errors on stdout/stderr are expected and can be safely ignored
		// for non-syncable file descriptors (pipes, terminals, etc.)
		_ = log.Sync()
	}()

	log.Info("starting guild proxy",
		zap.String("environment", cfg.Server.Env),
		zap.String("address", cfg.Server.Addr()),
		zap.String("static_dir", cfg.Storage.StaticDir),
		zap.String("upload_dir", cfg.Storage.UploadDir),
	)

	if !cfg.Discord.HasCredentials() {
		log.Warn("discord credentials not configured, serving fallback data",
			zap.String("guild_id", cfg.Discord.GuildID),
		)
	}

	// Metrics are optional; the no-op recorder keeps call sites unconditional
	var (
		recorder       metrics.Recorder = metrics.Noop{}
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		m := metrics.New()
		recorder = m
		metricsHandler = m.Handler()
	}

	// Initialize Discord client
	discordClient := discord.NewClient(&cfg.Discord, logger.Named(log, "discord"))
	discordClient.SetRateLimiter(ratelimit.NewLimiter(logger.Named(log, "ratelimit")))
	discordClient.SetMetrics(recorder)

	// Initialize cache manager
	siteCache := cache.NewSiteCache(
		discordClient,
		gallery.NewGenerator(),
		logger.Named(log, "cache"),
		recorder,
		nil,
	)

	// Initialize upload store
	uploadStore, err := uploads.NewFSStore(cfg.Storage.UploadDir, logger.Named(log, "uploads"))
	if err != nil {
		log.Fatal("failed to initialize upload store", zap.Error(err))
	}
	uploadStore.SetMetrics(recorder)

	siteStore := siteconfig.NewNoopStore(cfg.Server.CollectDelay, logger.Named(log, "siteconfig"))

	// Initialize HTTP server
	httpLog := logger.Named(log, "http")
	handlers := server.NewHandlers(siteCache, uploadStore, siteStore, httpLog)
	router := server.NewRouter(handlers, server.RouterConfig{
		StaticDir:      cfg.Storage.StaticDir,
		Metrics:        recorder,
		MetricsHandler: metricsHandler,
	}, httpLog)
	httpServer := server.NewServer(router, cfg.Server.Addr(), httpLog)

	// Start server in a goroutine
	httpErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(); err != nil {
			httpErrChan <- err
		}
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-httpErrChan:
		log.Fatal("HTTP server error", zap.Error(err))
	case sig := <-sigChan:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server gracefully", zap.Error(err))
	}

	log.Info("server shut down successfully")
}
