package cache

import (
	"context"
	"fmt"

	"github.com/covidtrack/registry/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewAnswerStore returns a Redis store when Redis is enabled and reachable,
// and an in-memory store otherwise. With allowFallback false an unreachable
// Redis is an error.
func NewAnswerStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger, allowFallback bool) (AnswerStore, error) {
	if !cfg.Enabled {
		return NewInMemoryAnswerStore(), nil
	}

	store, err := NewRedisAnswerStore(ctx, RedisConfig{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err == nil {
		logger.Info("using Redis lookup cache", zap.String("addr", cfg.Addr()))
		return store, nil
	}

	if !allowFallback {
		return nil, fmt.Errorf("redis lookup cache unavailable: %w", err)
	}

	logger.Warn("Redis unavailable, falling back to in-memory lookup cache", zap.Error(err))
	return NewInMemoryAnswerStore(), nil
}
