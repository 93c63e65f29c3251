package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/gleejeyly/storefront/internal/domain"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// RedisStore mirrors reviews to a single Redis string key.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// NewRedisStore creates a Redis mirror under Key.
func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{client: client, key: Key, logger: logger}
}

// Load returns the mirrored list.
func (s *RedisStore) Load(ctx context.Context) ([]domain.MirroredReview, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.MirroredReview{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get review mirror: %w", err)
	}
	return decode(ctx, data, s.logger, "redis:"+s.key), nil
}

// Save replaces the mirrored list. The key never expires.
func (s *RedisStore) Save(ctx context.Context, reviews []domain.MirroredReview) error {
	if reviews == nil {
		reviews = []domain.MirroredReview{}
	}
	data, err := json.Marshal(reviews)
	if err != nil {
		return fmt.Errorf("marshal review mirror: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set review mirror: %w", err)
	}
	return nil
}
