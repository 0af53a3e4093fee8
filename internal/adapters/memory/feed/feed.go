package feed

import (
	"context"
	"sync"
)

// Feed is an in-process implementation of feed.Feed: a bounded fan-out with
// drop-on-full semantics, since invalidation events are best effort and
// coalescing lost events into the next one is always safe.
// It is safe for concurrent use.
type Feed struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[chan struct{}]struct{})}
}

func (f *Feed) Publish(ctx context.Context) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (f *Feed) Subscribe(ctx context.Context) (<-chan struct{}, func(), error) {
	_ = ctx
	ch := make(chan struct{}, 1)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, stop, nil
}
