package adminflow

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	deletionport "github.com/ifiscoder/CommunityApp/internal/ports/out/deletion"
	feedport "github.com/ifiscoder/CommunityApp/internal/ports/out/feed"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
)

// Phase is the per-member action state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConfirmPending
	PhaseInFlight
)

// Kind selects which confirmation-gated action is pending.
type Kind int

const (
	KindNone Kind = iota
	KindApprove
	KindDelete
)

var (
	// ErrNoPendingAction indicates Confirm was called without a prior request.
	ErrNoPendingAction = errors.New("no pending action")

	// ErrActionInFlight indicates a second trigger arrived while an action was
	// running; the caller treats it as a no-op.
	ErrActionInFlight = errors.New("action already in flight")
)

// Outcome reports a settled action. Profile is the authoritative re-fetch
// after an approve; Deleted is set when the member is gone and the detail
// view should exit.
type Outcome struct {
	Kind    Kind
	Profile *domain.Profile
	Deleted bool
}

// Actions is the admin approve/delete workflow: per-member, confirmation
// gated, and single-flight. While any action on a member is in flight, both
// actions on that member are disabled; extra triggers are no-ops.
// It is safe for concurrent use.
type Actions struct {
	profiles profilestore.Store
	deleter  deletionport.Deleter
	changes  feedport.Publisher
	logger   *log.Logger

	mu      sync.Mutex
	phase   map[domain.MemberID]Phase
	pending map[domain.MemberID]Kind
}

func NewActions(profiles profilestore.Store, deleter deletionport.Deleter, changes feedport.Publisher, logger *log.Logger) *Actions {
	if logger == nil {
		logger = log.Default()
	}
	return &Actions{
		profiles: profiles,
		deleter:  deleter,
		changes:  changes,
		logger:   logger,
		phase:    make(map[domain.MemberID]Phase),
		pending:  make(map[domain.MemberID]Kind),
	}
}

// Phase returns the current phase for a member.
func (a *Actions) Phase(id domain.MemberID) Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase[id]
}

// RequestApprove records explicit intent to approve; nothing fires until
// Confirm.
func (a *Actions) RequestApprove(id domain.MemberID) error {
	return a.request(id, KindApprove)
}

// RequestDelete records explicit intent to delete; nothing fires until
// Confirm.
func (a *Actions) RequestDelete(id domain.MemberID) error {
	return a.request(id, KindDelete)
}

// Cancel drops a pending confirmation.
func (a *Actions) Cancel(id domain.MemberID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase[id] == PhaseConfirmPending {
		delete(a.phase, id)
		delete(a.pending, id)
	}
}

// Confirm executes the pending action. Exactly one execution runs per member
// at a time; a Confirm racing an in-flight action returns ErrActionInFlight
// without touching the store. Failures return the member to Idle with
// displayed state unmodified.
func (a *Actions) Confirm(ctx context.Context, id domain.MemberID) (Outcome, error) {
	a.mu.Lock()
	switch a.phase[id] {
	case PhaseInFlight:
		a.mu.Unlock()
		return Outcome{}, ErrActionInFlight
	case PhaseIdle:
		a.mu.Unlock()
		return Outcome{}, ErrNoPendingAction
	}
	kind := a.pending[id]
	a.phase[id] = PhaseInFlight
	a.mu.Unlock()

	var (
		out Outcome
		err error
	)
	switch kind {
	case KindApprove:
		out, err = a.approve(ctx, id)
	case KindDelete:
		out, err = a.delete(ctx, id)
	default:
		err = ErrNoPendingAction
	}

	a.mu.Lock()
	delete(a.phase, id)
	delete(a.pending, id)
	a.mu.Unlock()

	return out, err
}

// Retryable classifies a settled failure: network/store errors may be
// re-tapped; an authorization failure is terminal for the action and
// escalates to re-authentication upstream.
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, deletionport.ErrUnauthorized)
}

func (a *Actions) request(id domain.MemberID, kind Kind) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase[id] == PhaseInFlight {
		return ErrActionInFlight
	}
	a.phase[id] = PhaseConfirmPending
	a.pending[id] = kind
	return nil
}

func (a *Actions) approve(ctx context.Context, id domain.MemberID) (Outcome, error) {
	patch := profilestore.Patch{IsApproved: profilestore.Some(true)}
	if _, err := a.profiles.Update(ctx, id, patch); err != nil {
		return Outcome{}, err
	}

	// Re-fetch so the caller reflects server-authoritative state, not an
	// optimistic guess.
	fresh, err := a.profiles.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if fresh == nil {
		return Outcome{}, profilestore.ErrNotFound
	}
	a.notifyChanged(ctx)
	return Outcome{Kind: KindApprove, Profile: fresh}, nil
}

func (a *Actions) delete(ctx context.Context, id domain.MemberID) (Outcome, error) {
	if err := a.deleter.DeleteMember(ctx, id); err != nil {
		return Outcome{}, err
	}
	a.notifyChanged(ctx)
	return Outcome{Kind: KindDelete, Deleted: true}, nil
}

func (a *Actions) notifyChanged(ctx context.Context) {
	if a.changes == nil {
		return
	}
	// Best effort; a lost invalidation is repaired by the next refresh.
	if err := a.changes.Publish(ctx); err != nil {
		a.logger.Printf("adminflow: change feed publish: %v", err)
	}
}
