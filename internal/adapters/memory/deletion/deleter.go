package deletion

import (
	"context"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	memaccountstore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/accountstore"
	memprofilestore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/profilestore"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/deletion"
)

// Deleter implements the privileged cascade against the in-memory stores:
// profile row and account are removed together, mirroring the server-side
// function's behavior.
type Deleter struct {
	accounts *memaccountstore.Store
	profiles *memprofilestore.Store
}

func NewDeleter(accounts *memaccountstore.Store, profiles *memprofilestore.Store) *Deleter {
	return &Deleter{accounts: accounts, profiles: profiles}
}

func (d *Deleter) DeleteMember(ctx context.Context, id domain.MemberID) error {
	p, err := d.profiles.Get(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return deletion.ErrNotFound
	}
	if err := d.profiles.Delete(ctx, id); err != nil {
		return err
	}
	d.accounts.Remove(id)
	return nil
}
