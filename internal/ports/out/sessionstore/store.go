package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/ifiscoder/CommunityApp/internal/domain"
)

// ErrNotFound indicates the token has no live session (unknown or expired).
var ErrNotFound = errors.New("session not found")

// Store holds issued session tokens and the sessions they resolve to.
// Account store adapters use it for token persistence; it is not consumed by
// the application layer directly.
type Store interface {
	Put(ctx context.Context, token string, s domain.Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (domain.Session, error)

	// Delete is idempotent; removing an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
