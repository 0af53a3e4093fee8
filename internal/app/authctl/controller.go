package authctl

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/accountstore"
	clockport "github.com/ifiscoder/CommunityApp/internal/ports/out/clock"
	feedport "github.com/ifiscoder/CommunityApp/internal/ports/out/feed"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/tokencache"
)

// State is the controller's published snapshot. User and Profile transition
// together: no observer ever sees a new User paired with a stale Profile.
// Loading is true only until the initial Resume settles.
type State struct {
	User    *domain.Session
	Profile *domain.Profile
	Loading bool
}

// Controller is the single source of truth for "who is signed in and what is
// their profile". It is the sole writer of that state; workflows mutate it
// only through the operations below.
// It is safe for concurrent use.
type Controller struct {
	accounts accountstore.Store
	profiles profilestore.Store
	tokens   tokencache.Cache
	changes  feedport.Publisher
	clk      clockport.Clock
	logger   *log.Logger

	mu      sync.Mutex
	state   State
	token   string
	resumed bool
	subs    map[chan State]struct{}
}

func NewController(
	accounts accountstore.Store,
	profiles profilestore.Store,
	tokens tokencache.Cache,
	changes feedport.Publisher,
	clk clockport.Clock,
	logger *log.Logger,
) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		accounts: accounts,
		profiles: profiles,
		tokens:   tokens,
		changes:  changes,
		clk:      clk,
		logger:   logger,
		state:    State{Loading: true},
		subs:     make(map[chan State]struct{}),
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers an observer. The channel holds the latest snapshot;
// a slow reader sees intermediate states coalesced, never out of order.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	c.subs[ch] = struct{}{}
	ch <- c.state
	c.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, stop
}

// Resume restores a persisted session, if any, and settles Loading. It is
// invoked once at startup; every failure is swallowed (logged) because the
// app must come up signed-out rather than fail to start.
func (c *Controller) Resume(ctx context.Context) {
	defer c.settleLoading()

	c.mu.Lock()
	if c.resumed {
		c.mu.Unlock()
		return
	}
	c.resumed = true
	c.mu.Unlock()

	token, ok, err := c.tokens.Load(ctx)
	if err != nil {
		c.logger.Printf("authctl: session resume: token cache read: %v", err)
		return
	}
	if !ok {
		return
	}

	acct, err := c.accounts.Session(ctx, token)
	if err != nil {
		if errors.Is(err, accountstore.ErrNoSession) {
			if cerr := c.tokens.Clear(ctx); cerr != nil {
				c.logger.Printf("authctl: session resume: token cache clear: %v", cerr)
			}
		} else {
			c.logger.Printf("authctl: session resume: %v", err)
		}
		return
	}

	sess := sessionFromAccount(acct)
	profile, err := c.profiles.Get(ctx, sess.ID)
	if err != nil {
		c.logger.Printf("authctl: session resume: profile fetch: %v", err)
		return
	}
	if profile == nil {
		// Account survives upstream but the profile row is gone (deleted
		// member with a cached token). Repair instead of resuming.
		c.logger.Printf("authctl: session resume: no profile for %s, discarding session", sess.ID)
		c.discardSession(ctx, token)
		return
	}

	c.publish(&sess, profile, token)
}

// SignIn authenticates and publishes Session and Profile together.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	acct, token, err := c.accounts.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, accountstore.ErrInvalidCredentials) {
			return &Error{Status: 401, Code: CodeAuthenticationFailed, Message: err.Error()}
		}
		return err
	}

	sess := sessionFromAccount(acct)
	profile, err := c.profiles.Get(ctx, sess.ID)
	if err != nil {
		return err
	}
	if profile == nil {
		// Invalid principal: signed in upstream but no member record. Force
		// the repair path rather than publishing a session without a profile.
		c.discardSession(ctx, token)
		return &Error{
			Status:  404,
			Code:    CodeProfileNotFound,
			Message: "No member profile exists for this account.",
		}
	}

	if err := c.tokens.Save(ctx, token); err != nil {
		c.logger.Printf("authctl: sign-in: token cache save: %v", err)
	}
	c.publish(&sess, profile, token)
	return nil
}

// SignUp creates the account and the profile, in that order, and publishes
// both on full success.
//
// Failure handling follows the store contracts:
//   - a phone already registered fails before any account exists;
//   - an account-creation failure has no side effects;
//   - a profile-creation failure leaves the new account in place. The orphan
//     is tolerated and repaired lazily by the self-healing sign-out.
func (c *Controller) SignUp(ctx context.Context, email, password string, draft domain.ProfileDraft) error {
	if draft.Phone != "" {
		taken, err := c.profiles.PhoneInUse(ctx, draft.Phone)
		if err != nil {
			return err
		}
		if taken {
			return &Error{Status: 409, Code: CodePhoneTaken, Message: duplicatePhoneMessage}
		}
	}

	acct, token, err := c.accounts.SignUp(ctx, email, password)
	if err != nil {
		if errors.Is(err, accountstore.ErrEmailTaken) {
			return &Error{Status: 409, Code: CodeEmailTaken, Message: err.Error()}
		}
		return err
	}

	now := c.clk.Now()
	created, err := c.profiles.Create(ctx, domain.Profile{
		ID:    acct.ID,
		Email: domain.NormalizeEmail(email),
		Role:  domain.RoleMember,

		FullName: domain.NormalizeHumanName(draft.FullName),
		Phone:    draft.Phone,

		AddressStreet: draft.AddressStreet,
		AddressCity:   draft.AddressCity,
		AddressState:  draft.AddressState,
		AddressPostal: draft.AddressPostal,

		DateOfBirth:           draft.DateOfBirth,
		Gender:                draft.Gender,
		Occupation:            draft.Occupation,
		EmergencyContactName:  draft.EmergencyContactName,
		EmergencyContactPhone: draft.EmergencyContactPhone,

		IsVerified: false,
		IsApproved: false,

		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		// The account already exists at this point. A duplicate phone that
		// slipped past the precheck surfaces as the store's uniqueness
		// violation; everything else is a generic creation failure.
		if errors.Is(err, profilestore.ErrPhoneTaken) {
			return &Error{Status: 409, Code: CodePhoneTaken, Message: duplicatePhoneMessage}
		}
		return &Error{Status: 502, Code: CodeProfileCreationFailed, Message: "Failed to create profile."}
	}

	if err := c.tokens.Save(ctx, token); err != nil {
		c.logger.Printf("authctl: sign-up: token cache save: %v", err)
	}
	sess := sessionFromAccount(acct)
	c.publish(&sess, &created, token)
	c.notifyChanged(ctx)
	return nil
}

// SignOut invalidates the remote session and clears local state. Local state
// clears unconditionally: a failed remote invalidation is logged, never
// surfaced, because leaving the device signed in would be worse.
func (c *Controller) SignOut(ctx context.Context) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token != "" {
		if err := c.accounts.SignOut(ctx, token); err != nil {
			c.logger.Printf("authctl: sign-out: remote invalidation: %v", err)
		}
	}
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Printf("authctl: sign-out: token cache clear: %v", err)
	}
	c.publish(nil, nil, "")
}

// RefreshProfile re-fetches the profile for the current session and
// republishes it. A no-op when signed out. Observing a vanished profile
// triggers the self-healing forced sign-out.
func (c *Controller) RefreshProfile(ctx context.Context) error {
	c.mu.Lock()
	user := c.state.User
	c.mu.Unlock()
	if user == nil {
		return nil
	}

	profile, err := c.profiles.Get(ctx, user.ID)
	if err != nil {
		return err
	}
	if profile == nil {
		c.logger.Printf("authctl: refresh: profile for %s vanished, forcing sign-out", user.ID)
		c.SignOut(ctx)
		return nil
	}

	c.mu.Lock()
	// Session publication precedes profile publication; only republish the
	// profile if the session it belongs to is still current.
	if c.state.User != nil && c.state.User.ID == profile.ID {
		c.state.Profile = profile
		c.broadcastLocked()
	}
	c.mu.Unlock()
	return nil
}

// UpdateProfile applies a self-service edit for the signed-in member and
// republishes the stored result.
func (c *Controller) UpdateProfile(ctx context.Context, patch profilestore.Patch) (domain.Profile, error) {
	c.mu.Lock()
	user := c.state.User
	c.mu.Unlock()
	if user == nil {
		return domain.Profile{}, &Error{Status: 401, Code: CodeNotSignedIn, Message: "Not signed in."}
	}
	if details := validatePatch(patch); len(details) > 0 {
		return domain.Profile{}, &Error{
			Status:  422,
			Code:    CodeValidationError,
			Message: "invalid profile fields",
			Details: details,
		}
	}
	// Status flags are admin-only; a self-edit never carries them.
	patch.IsApproved = profilestore.Unspecified[bool]()
	patch.IsVerified = profilestore.Unspecified[bool]()

	updated, err := c.profiles.Update(ctx, user.ID, patch)
	if err != nil {
		if errors.Is(err, profilestore.ErrPhoneTaken) {
			return domain.Profile{}, &Error{Status: 409, Code: CodePhoneTaken, Message: duplicatePhoneMessage}
		}
		if errors.Is(err, profilestore.ErrNotFound) {
			c.logger.Printf("authctl: update: profile for %s vanished, forcing sign-out", user.ID)
			c.SignOut(ctx)
			return domain.Profile{}, &Error{Status: 404, Code: CodeProfileNotFound, Message: "Profile no longer exists."}
		}
		return domain.Profile{}, err
	}

	c.mu.Lock()
	if c.state.User != nil && c.state.User.ID == updated.ID {
		c.state.Profile = &updated
		c.broadcastLocked()
	}
	c.mu.Unlock()
	c.notifyChanged(ctx)
	return updated, nil
}

func sessionFromAccount(a accountstore.Account) domain.Session {
	return domain.Session{
		ID:    a.ID,
		Email: a.Email,
		Role:  domain.ParseRole(a.RoleMetadata),
	}
}

func validatePatch(patch profilestore.Patch) map[string]any {
	details := map[string]any{}
	if patch.FullName.IsSpecified() {
		if patch.FullName.IsNull() || len([]rune(domain.NormalizeHumanName(patch.FullName.Value()))) < 2 {
			details["fullName"] = "must be at least 2 characters"
		}
	}
	if patch.Phone.IsSpecified() {
		if patch.Phone.IsNull() || !domain.ValidPhone(patch.Phone.Value()) {
			details["phone"] = "must be a valid phone number"
		}
	}
	requireNonEmpty := func(field string, o profilestore.Optional[string]) {
		if o.IsSpecified() && (o.IsNull() || o.Value() == "") {
			details[field] = "is required"
		}
	}
	requireNonEmpty("addressStreet", patch.AddressStreet)
	requireNonEmpty("addressCity", patch.AddressCity)
	requireNonEmpty("addressState", patch.AddressState)
	requireNonEmpty("addressPostal", patch.AddressPostal)
	if len(details) == 0 {
		return nil
	}
	return details
}

// publish replaces User, Profile, and the held token in one transition.
func (c *Controller) publish(user *domain.Session, profile *domain.Profile, token string) {
	c.mu.Lock()
	c.state.User = user
	c.state.Profile = profile
	c.token = token
	c.broadcastLocked()
	c.mu.Unlock()
}

func (c *Controller) settleLoading() {
	c.mu.Lock()
	if c.state.Loading {
		c.state.Loading = false
		c.broadcastLocked()
	}
	c.mu.Unlock()
}

func (c *Controller) broadcastLocked() {
	for ch := range c.subs {
		select {
		case ch <- c.state:
		default:
			// Replace the stale snapshot so readers always wake to the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c.state:
			default:
			}
		}
	}
}

func (c *Controller) discardSession(ctx context.Context, token string) {
	if err := c.accounts.SignOut(ctx, token); err != nil {
		c.logger.Printf("authctl: discard session: remote invalidation: %v", err)
	}
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Printf("authctl: discard session: token cache clear: %v", err)
	}
}

func (c *Controller) notifyChanged(ctx context.Context) {
	if c.changes == nil {
		return
	}
	if err := c.changes.Publish(ctx); err != nil {
		c.logger.Printf("authctl: change feed publish: %v", err)
	}
}
