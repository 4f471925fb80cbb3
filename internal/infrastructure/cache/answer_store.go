// Package cache keeps answers of the advisory name and surname registries so
// that repeated lookups of the same value do not hit the network.
package cache

import (
	"context"
	"time"
)

// AnswerStore remembers whether a looked-up value exists
type AnswerStore interface {
	// Get returns the stored answer; ok is false when nothing is stored
	Get(ctx context.Context, key string) (exists, ok bool, err error)
	Set(ctx context.Context, key string, exists bool, ttl time.Duration) error
	Close() error
}
