package dedupe

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL    = 24 * time.Hour
	defaultPrefix = "placement:application:"
)

// RedisDeduper shares seen application ids between service instances.
// Ids expire after the configured TTL.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	size   atomic.Int64 // ids recorded by this process
}

// NewRedisDeduper wraps an existing client.
func NewRedisDeduper(client *redis.Client, opts ...RedisOption) *RedisDeduper {
	d := &RedisDeduper{
		client: client,
		ttl:    defaultTTL,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord uses SETNX so concurrent instances agree on the first writer.
func (d *RedisDeduper) SeenAndRecord(ctx context.Context, id string) (bool, error) {
	created, err := d.client.SetNX(ctx, d.prefix+id, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe setnx %q: %w", id, err)
	}
	if created {
		d.size.Add(1)
	}
	return !created, nil
}

// Unrecord deletes the id key.
func (d *RedisDeduper) Unrecord(ctx context.Context, id string) error {
	n, err := d.client.Del(ctx, d.prefix+id).Result()
	if err != nil {
		return fmt.Errorf("dedupe del %q: %w", id, err)
	}
	if n > 0 {
		d.size.Add(-1)
	}
	return nil
}

// Size returns the number of ids this process recorded and has not unrecorded.
func (d *RedisDeduper) Size() int64 {
	return d.size.Load()
}

// Ping checks connectivity.
func (d *RedisDeduper) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (d *RedisDeduper) Close() error {
	return d.client.Close()
}
