// Package feed carries member-change notifications over a Redis pub/sub
// channel so every running instance invalidates its directory together.
package feed

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const channel = "members:changed"

// Feed implements both feed.Publisher and feed.Subscriber.
type Feed struct {
	rdb *redis.Client
}

func NewFeed(rdb *redis.Client) *Feed {
	return &Feed{rdb: rdb}
}

func (f *Feed) Publish(ctx context.Context) error {
	if err := f.rdb.Publish(ctx, channel, "1").Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe delivers one event per received message. Events carry no payload;
// subscribers re-fetch whatever they display. Delivery is coalescing: an
// event that arrives while the previous one is still unread is dropped.
func (f *Feed) Subscribe(ctx context.Context) (<-chan struct{}, func(), error) {
	pubsub := f.rdb.Subscribe(ctx, channel)

	// Force the subscription to be established before returning so callers
	// do not miss events published immediately after Subscribe.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	events := make(chan struct{}, 1)
	go func() {
		defer close(events)
		for range pubsub.Channel() {
			select {
			case events <- struct{}{}:
			default:
			}
		}
	}()

	stop := func() { _ = pubsub.Close() }
	return events, stop, nil
}
