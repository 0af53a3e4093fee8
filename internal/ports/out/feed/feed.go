package feed

import "context"

// Feed carries "a profile changed" invalidation events. Events have no
// payload: subscribers react by re-fetching, never by interpreting a diff.
// Delivery is best effort and carries no ordering guarantee relative to
// in-flight admin actions.
type Feed interface {
	Publisher
	Subscriber
}

type Publisher interface {
	Publish(ctx context.Context) error
}

type Subscriber interface {
	// Subscribe returns a channel that receives an element per invalidation
	// and a stop function releasing the subscription. The channel is closed
	// when the subscription ends.
	Subscribe(ctx context.Context) (<-chan struct{}, func(), error)
}
