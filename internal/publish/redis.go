// Package publish broadcasts each cycle's game data on a Redis channel so
// overlays running elsewhere can follow the match.
package publish

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const publishTimeout = 500 * time.Millisecond

// redisPublisher is the subset of *redis.Client the publisher needs
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Connect opens a Redis client and checks it answers
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return rdb, nil
}

// RedisBroadcaster publishes JSON payloads on a fixed channel
type RedisBroadcaster struct {
	r       redisPublisher
	channel string
}

func NewRedisBroadcaster(r redisPublisher, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

// Channel returns the channel messages go to
func (b *RedisBroadcaster) Channel() string {
	return b.channel
}

// Publish encodes payload and publishes it. The call is bounded by a short
// timeout so a slow broker cannot stall the caller's cycle.
func (b *RedisBroadcaster) Publish(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := b.r.Publish(ctx, b.channel, body).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", b.channel, err)
	}
	return nil
}
