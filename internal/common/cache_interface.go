package common

import (
	"strings"
	"time"

	"label-cabinet/backstage/internal/metrics"
)

// CacheInterface defines the contract for cache implementations
type CacheInterface interface {
	// Set stores a value in cache with the given key and duration
	Set(key string, value interface{}, duration time.Duration)

	// Get retrieves a value from cache by key
	// Returns the value and true if found, nil and false otherwise
	Get(key string) (interface{}, bool)

	// GetInto decodes a cached value into dest, which must be a pointer.
	// Values round-trip through JSON in every implementation.
	GetInto(key string, dest interface{}) bool

	// SetNX stores the value only when the key is absent and reports whether it was stored
	SetNX(key string, value interface{}, duration time.Duration) bool

	// Delete removes a value from cache by key
	Delete(key string)

	// DeletePrefix removes every key starting with prefix
	DeletePrefix(prefix string)

	// GetOrSet retrieves a value from cache, or loads it using the loader function if not found
	GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error)

	// Close closes any underlying connections (for Redis, etc.)
	Close() error
}

// keyPattern reduces a key to its prefix for metric labels.
func keyPattern(key string) string {
	if i := strings.Index(key, "_"); i > 0 {
		return key[:i+1]
	}
	return key
}

func recordLookup(key string, hit bool) {
	m := metrics.NewMetricsRegistry()
	if hit {
		m.CacheHitsTotal.WithLabelValues(keyPattern(key)).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(keyPattern(key)).Inc()
}
