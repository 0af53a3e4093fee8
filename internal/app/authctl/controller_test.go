package authctl

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	memaccountstore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/accountstore"
	memclock "github.com/ifiscoder/CommunityApp/internal/adapters/memory/clock"
	memfeed "github.com/ifiscoder/CommunityApp/internal/adapters/memory/feed"
	memprofilestore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/profilestore"
	memsessionstore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/sessionstore"
	memtokencache "github.com/ifiscoder/CommunityApp/internal/adapters/memory/tokencache"
	"github.com/ifiscoder/CommunityApp/internal/domain"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/accountstore"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
)

type fixture struct {
	accounts *memaccountstore.Store
	profiles *memprofilestore.Store
	tokens   *memtokencache.Cache
	clk      *memclock.ManualClock
}

func newFixture() *fixture {
	clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
	sessions := memsessionstore.NewStore(clk)
	return &fixture{
		accounts: memaccountstore.NewStore(sessions, time.Hour),
		profiles: memprofilestore.NewStore(clk),
		tokens:   memtokencache.NewCache(),
		clk:      clk,
	}
}

func (f *fixture) controller() *Controller {
	return NewController(f.accounts, f.profiles, f.tokens, memfeed.NewFeed(), f.clk, quietLogger())
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func validDraft() domain.ProfileDraft {
	return domain.ProfileDraft{
		FullName:      "Alice Smith",
		Phone:         "+1 555 000 1234",
		AddressStreet: "1 Main St",
		AddressCity:   "Oakland",
		AddressState:  "CA",
		AddressPostal: "94601",
	}
}

func TestController_SignUpPublishesSessionAndProfileTogether(t *testing.T) {
	t.Parallel()

	ctl := newFixture().controller()
	ctl.Resume(context.Background())

	if err := ctl.SignUp(context.Background(), "a@b.com", "secret1", validDraft()); err != nil {
		t.Fatalf("SignUp err=%v", err)
	}

	st := ctl.Snapshot()
	if st.User == nil || st.Profile == nil {
		t.Fatalf("expected user and profile published together, got %+v", st)
	}
	if st.User.ID != st.Profile.ID {
		t.Fatalf("session id %q != profile id %q", st.User.ID, st.Profile.ID)
	}
	if st.Profile.IsApproved || st.Profile.IsVerified {
		t.Fatalf("new profile must start unapproved and unverified: %+v", st.Profile)
	}
	if st.User.Role != domain.RoleMember {
		t.Fatalf("role=%q, want member", st.User.Role)
	}
}

func TestController_SignInThenResumeOnFreshProcess(t *testing.T) {
	t.Parallel()

	f := newFixture()
	first := f.controller()
	first.Resume(context.Background())
	if err := first.SignUp(context.Background(), "a@b.com", "secret1", validDraft()); err != nil {
		t.Fatalf("SignUp err=%v", err)
	}
	wantID := first.Snapshot().User.ID

	// Same stores and token cache, fresh controller: a cold start.
	second := f.controller()
	second.Resume(context.Background())

	st := second.Snapshot()
	if st.Loading {
		t.Fatalf("loading must settle after resume")
	}
	if st.User == nil || st.User.ID != wantID {
		t.Fatalf("resumed user=%+v, want id %q", st.User, wantID)
	}
	if st.Profile == nil || st.Profile.ID != wantID {
		t.Fatalf("resumed profile=%+v, want id %q", st.Profile, wantID)
	}
}

func TestController_ResumeWithoutTokenStaysSignedOut(t *testing.T) {
	t.Parallel()

	ctl := newFixture().controller()
	if !ctl.Snapshot().Loading {
		t.Fatalf("loading must be true before resume")
	}
	ctl.Resume(context.Background())

	st := ctl.Snapshot()
	if st.Loading || st.User != nil || st.Profile != nil {
		t.Fatalf("expected settled signed-out state, got %+v", st)
	}
}

func TestController_SignInBadCredentials(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctl := f.controller()
	ctl.Resume(context.Background())
	if err := ctl.SignUp(context.Background(), "a@b.com", "secret1", validDraft()); err != nil {
		t.Fatalf("SignUp err=%v", err)
	}
	ctl.SignOut(context.Background())

	err := ctl.SignIn(context.Background(), "a@b.com", "wrong")
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != CodeAuthenticationFailed {
		t.Fatalf("err=%v, want %s", err, CodeAuthenticationFailed)
	}
	if st := ctl.Snapshot(); st.User != nil {
		t.Fatalf("failed sign-in must not publish a session")
	}
}

func TestController_SignUpDuplicatePhonePrecheckLeavesNoAccount(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctl := f.controller()
	ctl.Resume(context.Background())
	if err := ctl.SignUp(context.Background(), "a@b.com", "secret1", validDraft()); err != nil {
		t.Fatalf("seed SignUp err=%v", err)
	}
	ctl.SignOut(context.Background())

	err := ctl.SignUp(context.Background(), "b@c.com", "secret2", validDraft())
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != CodePhoneTaken {
		t.Fatalf("err=%v, want %s", err, CodePhoneTaken)
	}

	// No orphaned account: the attempted email must not authenticate.
	err = ctl.SignIn(context.Background(), "b@c.com", "secret2")
	if !errors.As(err, &ae) || ae.Code != CodeAuthenticationFailed {
		t.Fatalf("expected no account for b@c.com, got err=%v", err)
	}
}

func TestController_SignUpDuplicateEmail(t *testing.T) {
	t.Parallel()

	ctl := newFixture().controller()
	ctl.Resume(context.Background())
	if err := ctl.SignUp(context.Background(), "a@b.com", "secret1", validDraft()); err != nil {
		t.Fatalf("seed SignUp err=%v", err)
	}
	ctl.SignOut(context.Background())

	draft := validDraft()
	draft.Phone = "+1 555 000 9999"
	err := ctl.SignUp(context.Background(), "a@b.com", "secret2", draft)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != CodeEmailTaken {
		t.Fatalf("err=%v, want %s", err, CodeEmailTaken)
	}
}

// racingPhoneStore lets the precheck pass and then reports the uniqueness
// violation on create, simulating a concurrent registration with the same
// phone number.
type racingPhoneStore struct {
	profilestore.Store
}

func (racingPhoneStore) PhoneInUse(ctx context.Context, phone string) (bool, error) {
	return false, nil
}

func (racingPhoneStore) Create(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	return domain.Profile{}, profilestore.ErrPhoneTaken
}

func TestController_SignUpPhoneRaceSurfacesDuplicatePhone(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctl := NewController(f.accounts, racingPhoneStore{}, f.tokens, nil, f.clk, quietLogger())
	ctl.Resume(context.Background())

	err := ctl.SignUp(context.Background(), "a@b.com", "secret1", validDraft())
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != CodePhoneTaken {
		t.Fatalf("err=%v, want %s", err, CodePhoneTaken)
	}
}

// failingSignOutStore rejects remote invalidation to prove local state still
// clears.
type failingSignOutStore struct {
	accountstore.Store
}

func (s failingSignOutStore) SignOut(ctx context.Context, token string) error {
	return errors.New("remote unavailable")
}

func TestController_SignOutClearsStateDespiteRemoteFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seed := f.controller()
	seed.Resume(context.Background())
	if err := seed.SignUp(context.Background(), "a@b.com", "secret1", validDraft()); err != nil {
		t.Fatalf("SignUp err=%v", err)
	}

	ctl := NewController(failingSignOutStore{Store: f.accounts}, f.profiles, f.tokens, nil, f.clk, quietLogger())
	ctl.Resume(context.Background())
	if ctl.Snapshot().User == nil {
		t.Fatalf("expected resumed session")
	}

	ctl.SignOut(context.Background())
	st := ctl.Snapshot()
	if st.User != nil || st.Profile != nil {
		t.Fatalf("local state must clear unconditionally, got %+v", st)
	}
	if _, ok, _ := f.tokens.Load(context.Background()); ok {
		t.Fatalf("token cache must clear on sign-out")
	}
}

func TestController_RefreshProfileForcesSignOutWhenProfileVanishes(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctl := f.controller()
	ctl.Resume(context.Background())
	if err := ctl.SignUp(context.Background(), "a@b.com", "secret1", validDraft()); err != nil {
		t.Fatalf("SignUp err=%v", err)
	}
	id := ctl.Snapshot().User.ID

	// Admin deletes the member out from under the cached session.
	if err := f.profiles.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete err=%v", err)
	}

	if err := ctl.RefreshProfile(context.Background()); err != nil {
		t.Fatalf("RefreshProfile err=%v", err)
	}
	st := ctl.Snapshot()
	if st.User != nil || st.Profile != nil {
		t.Fatalf("expected forced sign-out, got %+v", st)
	}
}

func TestController_ResumeDiscardsSessionWithoutProfile(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seed := f.controller()
	seed.Resume(context.Background())
	if err := seed.SignUp(context.Background(), "a@b.com", "secret1", validDraft()); err != nil {
		t.Fatalf("SignUp err=%v", err)
	}
	id := seed.Snapshot().User.ID
	if err := f.profiles.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete err=%v", err)
	}

	ctl := f.controller()
	ctl.Resume(context.Background())
	st := ctl.Snapshot()
	if st.Loading || st.User != nil {
		t.Fatalf("expected settled signed-out state, got %+v", st)
	}
	if _, ok, _ := f.tokens.Load(context.Background()); ok {
		t.Fatalf("cached token must be discarded when the profile is gone")
	}
}

func TestController_UpdateProfileValidatesLocally(t *testing.T) {
	t.Parallel()

	ctl := newFixture().controller()
	ctl.Resume(context.Background())
	if err := ctl.SignUp(context.Background(), "a@b.com", "secret1", validDraft()); err != nil {
		t.Fatalf("SignUp err=%v", err)
	}

	_, err := ctl.UpdateProfile(context.Background(), profilestore.Patch{
		FullName: profilestore.Some("A"),
	})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != CodeValidationError {
		t.Fatalf("err=%v, want %s", err, CodeValidationError)
	}
	if _, ok := ae.Details["fullName"]; !ok {
		t.Fatalf("expected fullName detail, got %v", ae.Details)
	}
}

func TestController_UpdateProfileRepublishes(t *testing.T) {
	t.Parallel()

	ctl := newFixture().controller()
	ctl.Resume(context.Background())
	if err := ctl.SignUp(context.Background(), "a@b.com", "secret1", validDraft()); err != nil {
		t.Fatalf("SignUp err=%v", err)
	}

	updated, err := ctl.UpdateProfile(context.Background(), profilestore.Patch{
		Occupation: profilestore.Some("engineer"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile err=%v", err)
	}
	if updated.Occupation == nil || *updated.Occupation != "engineer" {
		t.Fatalf("occupation=%v", updated.Occupation)
	}
	st := ctl.Snapshot()
	if st.Profile.Occupation == nil || *st.Profile.Occupation != "engineer" {
		t.Fatalf("published profile not refreshed: %+v", st.Profile)
	}
}

func TestController_SubscribeObservesTransitions(t *testing.T) {
	t.Parallel()

	ctl := newFixture().controller()
	ch, stop := ctl.Subscribe()
	defer stop()

	if st := <-ch; !st.Loading {
		t.Fatalf("first snapshot must be loading")
	}

	ctl.Resume(context.Background())
	if err := ctl.SignUp(context.Background(), "a@b.com", "secret1", validDraft()); err != nil {
		t.Fatalf("SignUp err=%v", err)
	}

	// The channel coalesces to the latest snapshot.
	st := <-ch
	for st.User == nil {
		st = <-ch
	}
	if st.Profile == nil || st.Profile.ID != st.User.ID {
		t.Fatalf("observer saw session without matching profile: %+v", st)
	}
}
