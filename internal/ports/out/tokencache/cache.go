package tokencache

import "context"

// Cache persists the device's session token across process restarts so the
// controller can resume a session on cold start.
type Cache interface {
	// Load returns the cached token; ok=false means no token is cached.
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
