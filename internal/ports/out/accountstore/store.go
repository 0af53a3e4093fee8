package accountstore

import (
	"context"

	"github.com/ifiscoder/CommunityApp/internal/domain"
)

// Account is the authentication-side view of a principal. RoleMetadata is the
// raw role string attached to the account; callers map it to a domain.Role
// (unset metadata means member).
type Account struct {
	ID           domain.MemberID
	Email        string
	RoleMetadata string
}

// Store is the external account service: credential checks, account creation,
// and resolution of persisted session tokens.
//
// SignIn and SignUp issue an opaque session token; the caller is responsible
// for persisting it (token cache) if the session should survive a restart.
type Store interface {
	SignIn(ctx context.Context, email, password string) (Account, string, error)
	SignUp(ctx context.Context, email, password string) (Account, string, error)

	// SignOut invalidates the session token remotely. Unknown tokens are not
	// an error.
	SignOut(ctx context.Context, token string) error

	// Session resolves a previously issued token. ErrNoSession means the token
	// is unknown or expired.
	Session(ctx context.Context, token string) (Account, error)
}
