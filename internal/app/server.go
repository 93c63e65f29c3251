package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gleejeyly/storefront/internal/config"
	"github.com/gleejeyly/storefront/internal/event"
	handler "github.com/gleejeyly/storefront/internal/handler/http"
	"github.com/gleejeyly/storefront/internal/repository/filestore"
	"github.com/gleejeyly/storefront/internal/service"
	"github.com/gleejeyly/storefront/pkg/health"
	pkgkafka "github.com/gleejeyly/storefront/pkg/kafka"
	"github.com/gleejeyly/storefront/pkg/middleware"
	"github.com/gleejeyly/storefront/pkg/tracing"
)

// Server wires together all dependencies and runs the storefront API.
type Server struct {
	cfg            *config.Server
	logger         *slog.Logger
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewServer creates a new API server instance, initializing all dependencies.
func NewServer(cfg *config.Server, logger *slog.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    handler.ServiceName,
		ServiceVersion: handler.APIVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	healthHandler := health.NewHandler("GleeJeYly API is running")
	healthHandler.Register("data_dir", func(context.Context) error {
		return filestore.CheckWritable(cfg.DataDir)
	})

	// Kafka is optional; without it events are dropped.
	var publisher event.Publisher = event.NopPublisher{}
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := producer.Ping(ctx); err != nil {
			logger.Warn("kafka unreachable, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		publisher = event.NewProducer(producer, logger)
		healthHandler.Register("kafka", producer.Ping)
	}

	// Build the dependency graph.
	filestore.SetSlowOperationLogging(cfg.SlowStoreThreshold)
	orderRepo := filestore.NewOrderRepository(cfg.DataDir, logger)
	reviewRepo := filestore.NewReviewRepository(cfg.DataDir, logger)
	orderService := service.NewOrderService(orderRepo, publisher, logger)
	reviewService := service.NewReviewService(reviewRepo, publisher, logger)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(orderService, reviewService, healthHandler, logger, handler.RouterConfig{
		CORS:           cors,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		StaticDir:      cfg.StaticDir,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		cfg:            cfg,
		logger:         logger,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting HTTP server",
			slog.String("addr", s.httpServer.Addr),
			slog.String("data_dir", s.cfg.DataDir),
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

// Shutdown gracefully stops all components.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			s.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := s.tracerShutdown(shutdownCtx); err != nil {
		s.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	s.logger.Info("application shutdown complete")
	return nil
}
