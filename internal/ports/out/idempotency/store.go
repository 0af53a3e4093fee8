package idempotency

import (
	"context"
	"time"
)

// Fingerprint identifies a registration submission uniquely so a retried
// submit replays the recorded response instead of creating a second
// account/profile pair. BodyHash covers the submitted draft fields.
type Fingerprint struct {
	WizardID string
	BodyHash string
}

// Record is the stored response we can replay for a duplicate submission.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists submission records for replaying safe responses on retries.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
