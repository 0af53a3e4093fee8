// Package deletion implements the privileged cascade directly against the
// database, for deployments that run the deletion function in-process.
package deletion

import (
	"context"
	"errors"

	pgaccountstore "github.com/ifiscoder/CommunityApp/internal/adapters/postgres/accountstore"
	pgprofilestore "github.com/ifiscoder/CommunityApp/internal/adapters/postgres/profilestore"
	"github.com/ifiscoder/CommunityApp/internal/domain"
	deletionport "github.com/ifiscoder/CommunityApp/internal/ports/out/deletion"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
)

// Deleter removes the profile row and then the account row. Order matters:
// a dangling account with no profile self-heals on the next resume, while a
// profile with no account would look like a live member.
type Deleter struct {
	accounts *pgaccountstore.Store
	profiles *pgprofilestore.Store
}

func NewDeleter(accounts *pgaccountstore.Store, profiles *pgprofilestore.Store) *Deleter {
	return &Deleter{accounts: accounts, profiles: profiles}
}

func (d *Deleter) DeleteMember(ctx context.Context, id domain.MemberID) error {
	if err := d.profiles.Delete(ctx, id); err != nil {
		if errors.Is(err, profilestore.ErrNotFound) {
			return deletionport.ErrNotFound
		}
		return err
	}
	return d.accounts.Remove(ctx, id)
}
