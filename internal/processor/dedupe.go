package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduplicator remembers which orders a processor has already handled. Both
// channels deliver at least once, so the same order can arrive again.
type Deduplicator interface {
	FirstSeen(ctx context.Context, orderID string) (bool, error)
}

type RedisDeduplicator struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisDeduplicator(client *redis.Client, prefix string, ttl time.Duration) *RedisDeduplicator {
	return &RedisDeduplicator{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (d *RedisDeduplicator) FirstSeen(ctx context.Context, orderID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(orderID), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

func (d *RedisDeduplicator) key(orderID string) string {
	return fmt.Sprintf("%s:%s", d.prefix, orderID)
}

// NoopDeduplicator treats every order as new. It is used when no Redis is
// configured.
type NoopDeduplicator struct{}

func (NoopDeduplicator) FirstSeen(context.Context, string) (bool, error) { return true, nil }
