package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"live-player/internal/engine"
	"live-player/internal/platform/config"
	"live-player/internal/platform/logger"
	"live-player/internal/platform/metrics"
	"live-player/internal/player"
	"live-player/internal/session"
	"live-player/internal/viewport"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()
	cfg := config.FromEnv()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	met := metrics.New()
	client := &http.Client{Timeout: cfg.EngineTimeout}
	repo := session.NewInMemoryRepository()
	svc := session.NewService(repo, engine.NewHLSFactory(client, log), session.Options{
		Player: player.Config{
			Viewport: viewport.Config{
				MinZoom:  cfg.MinZoom,
				MaxZoom:  cfg.MaxZoom,
				ZoomStep: cfg.ZoomStep,
			},
			ControlsHideAfter: cfg.ControlsHideAfter,
		},
		EngineTimeout: cfg.EngineTimeout,
		IdleTTL:       cfg.SessionIdleTTL,
	}, log, met)
	h := session.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(svc.ActiveSessionCount()) }).ServeHTTP(w, r)
	})
	h.Routes(r)

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting",
			"port", cfg.Port,
			"log_level", cfg.LogLevel,
			"max_zoom", cfg.MaxZoom,
			"session_idle_ttl", cfg.SessionIdleTTL.String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if cfg.SessionIdleTTL <= 0 {
			return nil
		}
		return svc.RunReaper(gctx, cfg.ReapInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, draining connections")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		svc.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
