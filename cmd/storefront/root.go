package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/gleejeyly/storefront/internal/client"
	"github.com/gleejeyly/storefront/internal/client/mirror"
	"github.com/gleejeyly/storefront/internal/config"
	"github.com/gleejeyly/storefront/pkg/logger"
)

// globalFlags override the environment configuration when set.
type globalFlags struct {
	apiBase    string
	timeout    time.Duration
	backend    string
	mirrorPath string
	redisAddr  string
	logLevel   string
}

// session is the per-invocation client state shared by subcommands.
type session struct {
	cfg     *config.Client
	log     *slog.Logger
	adapter *client.Adapter
	redis   *redis.Client
}

func (s *session) close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

func newRootCmd() *cobra.Command {
	var (
		flags globalFlags
		sess  = &session{}
	)

	root := &cobra.Command{
		Use:          "storefront",
		Short:        "GleeJeYly storefront client",
		Long:         "Order cheesecake, read and write reviews, and sync reviews saved while offline.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadClientConfig(cmd, flags)
			if err != nil {
				return err
			}
			return sess.open(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			sess.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.apiBase, "api", "", "API base URL (overrides API_BASE)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per-request timeout, 0 disables (overrides REQUEST_TIMEOUT)")
	pf.StringVar(&flags.backend, "mirror", "", "review mirror backend: file or redis (overrides MIRROR_BACKEND)")
	pf.StringVar(&flags.mirrorPath, "mirror-path", "", "review mirror file (overrides MIRROR_PATH)")
	pf.StringVar(&flags.redisAddr, "redis-addr", "", "Redis address for the redis mirror (overrides REDIS_ADDR)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newReviewsCmd(sess),
		newOrdersCmd(sess),
		newSyncCmd(sess),
		newHealthCmd(sess),
	)
	return root
}

func loadClientConfig(cmd *cobra.Command, flags globalFlags) (*config.Client, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("api") {
		cfg.APIBase = flags.apiBase
	}
	if changed("timeout") {
		cfg.RequestTimeout = flags.timeout
	}
	if changed("mirror") {
		cfg.MirrorBackend = flags.backend
	}
	if changed("mirror-path") {
		cfg.MirrorPath = flags.mirrorPath
	}
	if changed("redis-addr") {
		cfg.RedisAddr = flags.redisAddr
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (s *session) open(ctx context.Context, cfg *config.Client, logOut io.Writer) error {
	s.cfg = cfg
	s.log = logger.NewWithWriter("storefront-cli", cfg.LogLevel, logOut)

	var store mirror.Store
	switch cfg.MirrorBackend {
	case config.MirrorBackendRedis:
		rdb, err := mirror.NewRedisClient(ctx, mirror.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("connect review mirror: %w", err)
		}
		s.redis = rdb
		store = mirror.NewRedisStore(rdb, s.log)
	default:
		store = mirror.NewFileStore(cfg.MirrorPath, s.log)
	}

	s.adapter = client.NewAdapter(client.Options{
		APIBase:        cfg.APIBase,
		Timeout:        cfg.RequestTimeout,
		MessengerPhone: cfg.MessengerPhone,
	}, client.NewAPIClient(s.log), store, s.log)
	return nil
}
