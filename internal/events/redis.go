package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes each event on the channel "<prefix><type>".
type RedisPublisher struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisPublisher returns a publisher sharing rdb with the rest of the app.
func NewRedisPublisher(rdb *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, prefix: prefix}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := e.encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Type, err)
	}
	if err := p.rdb.Publish(ctx, p.prefix+e.Type, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", e.Type, err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (p *RedisPublisher) Close() error { return nil }
