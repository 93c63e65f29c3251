package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gleejeyly/storefront/internal/config"
	"github.com/gleejeyly/storefront/internal/shell"
	"github.com/gleejeyly/storefront/pkg/health"
	"github.com/gleejeyly/storefront/pkg/httpclient"
	"github.com/gleejeyly/storefront/pkg/middleware"
)

// ShellServiceName labels metrics, traces and logs of the shell cache.
const ShellServiceName = "storefront-shell"

// Shell wires together the offline shell cache in front of the origin.
type Shell struct {
	cfg        *config.Shell
	logger     *slog.Logger
	worker     *shell.Worker
	httpServer *http.Server
}

// NewShell creates a new shell cache instance.
func NewShell(cfg *config.Shell, logger *slog.Logger) (*Shell, error) {
	manifest, err := shell.LoadManifest(cfg.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	if cfg.ManifestFile == "" || manifest.CacheName == shell.DefaultCacheName {
		manifest.CacheName = cfg.CacheName
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.OriginTimeout
	client := httpclient.New(clientCfg)

	worker, err := shell.NewWorker(cfg.OriginURL, manifest, shell.NewCacheStorage(), client, logger)
	if err != nil {
		return nil, fmt.Errorf("create shell worker: %w", err)
	}

	healthHandler := health.NewHandler("GleeJeYly shell is running")

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ShellServiceName))
	r.Use(middleware.Tracing(ShellServiceName))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/_shell/health", healthHandler.LivenessHandler())
	r.Get("/_shell/metrics", promhttp.Handler().ServeHTTP)
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	r.Handle("/*", worker)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.OriginTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Shell{
		cfg:        cfg,
		logger:     logger,
		worker:     worker,
		httpServer: httpServer,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Shell) Handler() http.Handler {
	return s.httpServer.Handler
}

// Prepare installs the shell and activates it. A failed install leaves the
// cache empty; requests then go to the origin.
func (s *Shell) Prepare(ctx context.Context) {
	if err := s.worker.Install(ctx); err != nil {
		s.logger.Error("shell install failed, serving from origin only",
			slog.String("cache", s.worker.CacheName()),
			slog.String("error", err.Error()),
		)
		return
	}
	s.worker.Activate(ctx)
}

// Run installs the shell, starts the HTTP server and blocks until the context
// is canceled.
func (s *Shell) Run(ctx context.Context) error {
	s.Prepare(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting shell HTTP server",
			slog.String("addr", s.httpServer.Addr),
			slog.String("origin", s.cfg.OriginURL),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the HTTP server.
func (s *Shell) Shutdown() error {
	s.logger.Info("shutting down shell...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	s.logger.Info("shell shutdown complete")
	return nil
}
