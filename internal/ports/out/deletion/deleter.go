package deletion

import (
	"context"
	"errors"

	"github.com/ifiscoder/CommunityApp/internal/domain"
)

var (
	// ErrUnauthorized indicates the caller lacks the admin rights the
	// privileged deletion operation requires.
	ErrUnauthorized = errors.New("deletion not authorized")

	// ErrNotFound indicates no member exists for the id.
	ErrNotFound = errors.New("member not found")
)

// Deleter is the privileged deletion operation: a single server-side cascade
// that removes both the account and the profile. A plain profile-row delete
// would orphan the authentication account, so admin delete always goes
// through this operation.
type Deleter interface {
	DeleteMember(ctx context.Context, id domain.MemberID) error
}
