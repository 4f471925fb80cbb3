package cache

import (
	"context"
	"time"

	"github.com/covidtrack/registry/internal/domain/patient"
	"go.uber.org/zap"
)

// LookupCache puts an AnswerStore in front of the name and surname registries.
// Store failures are logged and the upstream registry is asked instead;
// upstream failures are returned and never cached.
type LookupCache struct {
	store  AnswerStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewLookupCache creates a cache keeping answers for ttl
func NewLookupCache(store AnswerStore, ttl time.Duration, logger *zap.Logger) *LookupCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupCache{store: store, ttl: ttl, logger: logger}
}

// Names wraps a name registry
func (c *LookupCache) Names(upstream patient.NameRegistry) patient.NameRegistry {
	if upstream == nil {
		return nil
	}
	return cachedNames{cache: c, upstream: upstream}
}

// Surnames wraps a surname registry
func (c *LookupCache) Surnames(upstream patient.SurnameRegistry) patient.SurnameRegistry {
	if upstream == nil {
		return nil
	}
	return cachedSurnames{cache: c, upstream: upstream}
}

func (c *LookupCache) lookup(ctx context.Context, key string, ask func() (bool, error)) (bool, error) {
	exists, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("lookup cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return exists, nil
	}

	exists, err = ask()
	if err != nil {
		return false, err
	}
	if err := c.store.Set(ctx, key, exists, c.ttl); err != nil {
		c.logger.Warn("lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
	return exists, nil
}

type cachedNames struct {
	cache    *LookupCache
	upstream patient.NameRegistry
}

func (r cachedNames) NameExists(ctx context.Context, name string) (bool, error) {
	return r.cache.lookup(ctx, "name:"+name, func() (bool, error) {
		return r.upstream.NameExists(ctx, name)
	})
}

type cachedSurnames struct {
	cache    *LookupCache
	upstream patient.SurnameRegistry
}

func (r cachedSurnames) SurnameExists(ctx context.Context, surname string) (bool, error) {
	return r.cache.lookup(ctx, "surname:"+surname, func() (bool, error) {
		return r.upstream.SurnameExists(ctx, surname)
	})
}
