package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "registry:lookup:"

// RedisAnswerStore implements AnswerStore using Redis, so that answers are
// shared between the CLI and the server
type RedisAnswerStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisAnswerStore connects to Redis and checks the connection
func NewRedisAnswerStore(ctx context.Context, cfg RedisConfig) (*RedisAnswerStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisAnswerStoreWithClient(client, ""), nil
}

// NewRedisAnswerStoreWithClient creates a store on an existing client
func NewRedisAnswerStoreWithClient(client *redis.Client, keyPrefix string) *RedisAnswerStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisAnswerStore{client: client, keyPrefix: keyPrefix}
}

// Get implements AnswerStore
func (s *RedisAnswerStore) Get(ctx context.Context, key string) (bool, bool, error) {
	v, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to read lookup answer: %w", err)
	}
	return v == "1", true, nil
}

// Set implements AnswerStore
func (s *RedisAnswerStore) Set(ctx context.Context, key string, exists bool, ttl time.Duration) error {
	v := "0"
	if exists {
		v = "1"
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, v, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store lookup answer: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisAnswerStore) Close() error {
	return s.client.Close()
}

var _ AnswerStore = (*RedisAnswerStore)(nil)
