package dedupe

import "time"

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of application ids kept in memory.
// maxSize > 0 evicts the oldest id first; maxSize <= 0 never evicts.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// RedisOption applies a configuration option to the Redis deduper.
type RedisOption func(*RedisDeduper)

// WithTTL sets how long an application id is remembered.
func WithTTL(ttl time.Duration) RedisOption {
	return func(d *RedisDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces the keys written to Redis.
func WithKeyPrefix(prefix string) RedisOption {
	return func(d *RedisDeduper) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}
