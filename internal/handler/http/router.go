package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gleejeyly/storefront/internal/service"
	apperrors "github.com/gleejeyly/storefront/pkg/errors"
	"github.com/gleejeyly/storefront/pkg/health"
	"github.com/gleejeyly/storefront/pkg/httputil"
	"github.com/gleejeyly/storefront/pkg/middleware"
)

// ServiceName labels metrics, traces and logs of the API server.
const ServiceName = "storefront-api"

// APIVersion is reported by the banner endpoint.
const APIVersion = "1.0.0"

// RouterConfig carries the tunables of the API router.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	RateLimitRPS   float64
	RateLimitBurst int
	// StaticDir, when set, is served at / with a public cache lifetime.
	StaticDir  string
	PprofCIDRs []string
}

// Banner is the body of the API root endpoint.
type Banner struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// NewRouter creates a chi router with all storefront API routes registered.
func NewRouter(
	orderService *service.OrderService,
	reviewService *service.ReviewService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	orderHandler := NewOrderHandler(orderService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)
	writeLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(ContentTypeJSON)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteError(w, r, apperrors.NotFound("no api route for "+r.Method+" "+r.URL.Path), logger)
		})

		r.Get("/", bannerHandler)
		r.Get("/health", healthHandler.LivenessHandler())
		r.Get("/health/ready", healthHandler.ReadinessHandler())

		r.Get("/orders", orderHandler.ListOrders)
		r.With(writeLimit).Post("/orders", orderHandler.CreateOrder)

		r.Get("/reviews", reviewHandler.ListReviews)
		r.With(writeLimit).Post("/reviews", reviewHandler.CreateReview)
	})

	if cfg.StaticDir != "" {
		files := http.FileServer(http.Dir(cfg.StaticDir))
		r.With(middleware.CacheControl(3600)).Handle("/*", files)
	} else {
		r.Get("/", bannerHandler)
	}

	return r
}

func bannerHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, Banner{Message: "GleeJeYly API Server", Version: APIVersion})
}
