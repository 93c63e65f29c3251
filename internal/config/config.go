package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/gleejeyly/storefront/pkg/config"
)

// Server holds all configuration for the API server.
type Server struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort  int    `env:"HTTP_PORT" envDefault:"3000"`
	StaticDir string `env:"STATIC_DIR"`

	// Flat-file store
	DataDir            string        `env:"DATA_DIR" envDefault:"./data"`
	SlowStoreThreshold time.Duration `env:"SLOW_STORE_THRESHOLD" envDefault:"250ms"`

	// Edge
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"10"`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// LoadServer reads the API server configuration from environment variables.
func LoadServer() (*Server, error) {
	cfg := &Server{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Server) validate() error {
	if err := pkgconfig.ValidatePort("HTTP port", c.HTTPPort); err != nil {
		return err
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if err := pkgconfig.ValidateNonNegative("SLOW_STORE_THRESHOLD", c.SlowStoreThreshold); err != nil {
		return err
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %g", c.RateLimitRPS)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %g", c.OTELSampleRate)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	return nil
}

// Mirror backends.
const (
	MirrorBackendFile  = "file"
	MirrorBackendRedis = "redis"
)

// Client holds configuration for the storefront client.
type Client struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`

	APIBase        string        `env:"API_BASE" envDefault:"http://localhost:3000/api"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`

	// Local mirror
	MirrorBackend string `env:"MIRROR_BACKEND" envDefault:"file"`
	MirrorPath    string `env:"MIRROR_PATH" envDefault:"./gleejeyly_reviews.json"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass     string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	MessengerPhone    string        `env:"MESSENGER_PHONE" envDefault:"639123456789"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"30s"`
}

// LoadClient reads the storefront client configuration from environment
// variables.
func LoadClient() (*Client, error) {
	cfg := &Client{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants. The CLI calls it again after
// applying flag overrides.
func (c *Client) Validate() error {
	if !strings.HasPrefix(c.APIBase, "http://") && !strings.HasPrefix(c.APIBase, "https://") {
		return fmt.Errorf("API_BASE must be an http(s) URL, got %q", c.APIBase)
	}
	if err := pkgconfig.ValidateNonNegative("REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if err := pkgconfig.ValidateNonNegative("RECONCILE_INTERVAL", c.ReconcileInterval); err != nil {
		return err
	}
	switch c.MirrorBackend {
	case MirrorBackendFile:
		if c.MirrorPath == "" {
			return fmt.Errorf("MIRROR_PATH is required for the file mirror")
		}
	case MirrorBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis mirror")
		}
	default:
		return fmt.Errorf("unknown MIRROR_BACKEND %q", c.MirrorBackend)
	}
	if c.MessengerPhone == "" {
		return fmt.Errorf("MESSENGER_PHONE is required")
	}
	return nil
}

// Shell holds configuration for the offline shell cache.
type Shell struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort      int           `env:"SHELL_HTTP_PORT" envDefault:"8080"`
	OriginURL     string        `env:"ORIGIN_URL" envDefault:"http://localhost:3000"`
	CacheName     string        `env:"CACHE_NAME" envDefault:"gle-shell-v1"`
	ManifestFile  string        `env:"MANIFEST_FILE"`
	OriginTimeout time.Duration `env:"ORIGIN_TIMEOUT" envDefault:"10s"`

	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`
}

// LoadShell reads the shell cache configuration from environment variables.
func LoadShell() (*Shell, error) {
	cfg := &Shell{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load shell config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Shell) validate() error {
	if err := pkgconfig.ValidatePort("shell HTTP port", c.HTTPPort); err != nil {
		return err
	}
	if c.OriginURL == "" {
		return fmt.Errorf("ORIGIN_URL is required")
	}
	if c.CacheName == "" {
		return fmt.Errorf("CACHE_NAME is required")
	}
	return pkgconfig.ValidateNonNegative("ORIGIN_TIMEOUT", c.OriginTimeout)
}
