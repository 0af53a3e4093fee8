package profilestore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	clockport "github.com/ifiscoder/CommunityApp/internal/ports/out/clock"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
)

// Store is an in-memory implementation of profilestore.Store.
// It is safe for concurrent use.
type Store struct {
	clk clockport.Clock

	mu   sync.RWMutex
	byID map[domain.MemberID]domain.Profile
}

func NewStore(clk clockport.Clock) *Store {
	return &Store{
		clk:  clk,
		byID: make(map[domain.MemberID]domain.Profile),
	}
}

func (s *Store) Get(ctx context.Context, id domain.MemberID) (*domain.Profile, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	out := cloneProfile(p)
	return &out, nil
}

func (s *Store) Create(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[p.ID]; ok {
		return domain.Profile{}, profilestore.ErrAlreadyExists
	}
	if p.Phone != "" && s.phoneInUseLocked(p.Phone, p.ID) {
		return domain.Profile{}, profilestore.ErrPhoneTaken
	}

	s.byID[p.ID] = cloneProfile(p)
	return cloneProfile(p), nil
}

func (s *Store) Update(ctx context.Context, id domain.MemberID, patch profilestore.Patch) (domain.Profile, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return domain.Profile{}, profilestore.ErrNotFound
	}

	if patch.Phone.IsSpecified() && !patch.Phone.IsNull() {
		phone := patch.Phone.Value()
		if phone != "" && s.phoneInUseLocked(phone, id) {
			return domain.Profile{}, profilestore.ErrPhoneTaken
		}
	}

	applyPatch(&p, patch)
	p.UpdatedAt = s.clk.Now()
	s.byID[id] = cloneProfile(p)
	return cloneProfile(p), nil
}

func (s *Store) ListAll(ctx context.Context) ([]domain.Profile, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Profile, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, cloneProfile(p))
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) PhoneInUse(ctx context.Context, phone string) (bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phoneInUseLocked(phone, ""), nil
}

// Delete removes a profile row. It is not part of profilestore.Store; the
// memory deletion adapter uses it to implement the privileged cascade.
func (s *Store) Delete(ctx context.Context, id domain.MemberID) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

func (s *Store) phoneInUseLocked(phone string, exclude domain.MemberID) bool {
	for _, p := range s.byID {
		if p.ID == exclude {
			continue
		}
		if p.Phone != "" && p.Phone == phone {
			return true
		}
	}
	return false
}

func applyPatch(p *domain.Profile, patch profilestore.Patch) {
	applyString := func(dst *string, o profilestore.Optional[string]) {
		if o.IsSpecified() && !o.IsNull() {
			*dst = o.Value()
		}
	}
	applyStringPtr := func(dst **string, o profilestore.Optional[string]) {
		if !o.IsSpecified() {
			return
		}
		if o.IsNull() {
			*dst = nil
			return
		}
		v := o.Value()
		*dst = &v
	}

	applyString(&p.Email, patch.Email)
	applyString(&p.FullName, patch.FullName)
	applyString(&p.Phone, patch.Phone)
	applyStringPtr(&p.PhotoURL, patch.PhotoURL)

	applyString(&p.AddressStreet, patch.AddressStreet)
	applyString(&p.AddressCity, patch.AddressCity)
	applyString(&p.AddressState, patch.AddressState)
	applyString(&p.AddressPostal, patch.AddressPostal)

	if patch.DateOfBirth.IsSpecified() {
		if patch.DateOfBirth.IsNull() {
			p.DateOfBirth = nil
		} else {
			v := patch.DateOfBirth.Value()
			p.DateOfBirth = &v
		}
	}
	applyStringPtr(&p.Gender, patch.Gender)
	applyStringPtr(&p.Occupation, patch.Occupation)
	applyStringPtr(&p.EmergencyContactName, patch.EmergencyContactName)
	applyStringPtr(&p.EmergencyContactPhone, patch.EmergencyContactPhone)

	if patch.IsVerified.IsSpecified() && !patch.IsVerified.IsNull() {
		p.IsVerified = patch.IsVerified.Value()
	}
	if patch.IsApproved.IsSpecified() && !patch.IsApproved.IsNull() {
		p.IsApproved = patch.IsApproved.Value()
	}
}

func cloneProfile(p domain.Profile) domain.Profile {
	out := p
	out.PhotoURL = cloneStringPtr(p.PhotoURL)
	out.Gender = cloneStringPtr(p.Gender)
	out.Occupation = cloneStringPtr(p.Occupation)
	out.EmergencyContactName = cloneStringPtr(p.EmergencyContactName)
	out.EmergencyContactPhone = cloneStringPtr(p.EmergencyContactPhone)
	if p.DateOfBirth != nil {
		v := *p.DateOfBirth
		out.DateOfBirth = &v
	}
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sortNewestFirst(ps []domain.Profile) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return strings.Compare(string(ps[i].ID), string(ps[j].ID)) < 0
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
}
