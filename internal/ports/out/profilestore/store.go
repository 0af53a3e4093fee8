package profilestore

import (
	"context"

	"github.com/ifiscoder/CommunityApp/internal/domain"
)

// Store provides access to persisted member profiles.
//
// Result ordering expectations:
// - ListAll returns profiles ordered by CreatedAt descending (newest first)
//   to keep the admin directory deterministic.
type Store interface {
	// Get returns the profile for id, or nil when no profile exists. Absence
	// is a valid result, not an error.
	Get(ctx context.Context, id domain.MemberID) (*domain.Profile, error)

	Create(ctx context.Context, p domain.Profile) (domain.Profile, error)

	// Update applies the specified fields and returns the stored profile.
	Update(ctx context.Context, id domain.MemberID, patch Patch) (domain.Profile, error)

	ListAll(ctx context.Context) ([]domain.Profile, error)

	// PhoneInUse reports whether any profile already carries the phone number.
	PhoneInUse(ctx context.Context, phone string) (bool, error)
}
