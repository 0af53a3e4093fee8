package register

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ifiscoder/CommunityApp/internal/app/authctl"
	"github.com/ifiscoder/CommunityApp/internal/domain"
)

// ErrUnknownField reports a field name outside the wizard's draft.
var ErrUnknownField = errors.New("unknown field")

// Step is the wizard's position. Steps are strictly ordered; Next never skips
// and Back never re-validates.
type Step int

const (
	StepAccount Step = iota
	StepPersonalInfo
	StepAddress
)

const lastStep = StepAddress

// Submission is the tagged submit state.
type Submission int

const (
	SubmissionIdle Submission = iota
	SubmissionInFlight
	SubmissionFailed
	SubmissionDone
)

// Draft is the accumulated form input across all steps.
type Draft struct {
	Email    string
	Password string

	FullName string
	Phone    string

	AddressStreet string
	AddressCity   string
	AddressState  string
	AddressPostal string
}

// State is a snapshot of the wizard: current step, draft, field errors for
// the active step, and the submission phase with its last failure message.
type State struct {
	Step       Step
	Draft      Draft
	Errors     map[string]string
	Submission Submission
	FailureMsg string
}

// SignUpper is the single controller operation the wizard drives.
type SignUpper interface {
	SignUp(ctx context.Context, email, password string, draft domain.ProfileDraft) error
}

// Wizard is the guarded 3-step registration state machine. All mutating
// methods validate before moving; the draft survives every failure so no
// input is ever lost.
// It is safe for concurrent use.
type Wizard struct {
	ctl SignUpper

	mu    sync.Mutex
	state State
}

func NewWizard(ctl SignUpper) *Wizard {
	return &Wizard{
		ctl: ctl,
		state: State{
			Step:   StepAccount,
			Errors: map[string]string{},
		},
	}
}

// Snapshot returns the current wizard state.
func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneState(w.state)
}

// SetFields merges field values into the draft and clears the error for each
// touched field, mirroring how the form revalidates on edit. An unknown field
// name fails with ErrUnknownField and leaves the draft untouched.
func (w *Wizard) SetFields(fields map[string]string) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name := range fields {
		if draftField(&w.state.Draft, name) == nil {
			return cloneState(w.state), fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
	}
	for name, value := range fields {
		*draftField(&w.state.Draft, name) = value
		delete(w.state.Errors, name)
	}
	return cloneState(w.state), nil
}

// Next validates the active step and advances when it is clean. On the final
// step Next is invalid; Submit is the only exit.
func (w *Wizard) Next() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Step >= lastStep || w.state.Submission == SubmissionInFlight {
		return cloneState(w.state)
	}
	w.state.Errors = validateStep(w.state.Step, w.state.Draft)
	if len(w.state.Errors) == 0 {
		w.state.Step++
	}
	return cloneState(w.state)
}

// Back moves one step earlier and clears the error map without re-validating.
func (w *Wizard) Back() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Step > StepAccount && w.state.Submission != SubmissionInFlight {
		w.state.Step--
		w.state.Errors = map[string]string{}
	}
	return cloneState(w.state)
}

// Submit is the final step's only exit: it re-validates the whole draft and
// drives the controller's SignUp. Invoked on an earlier step it returns the
// state unchanged. A submit while one is already in flight (or after success)
// is a no-op: exactly one account/profile pair is ever created. On failure the
// wizard stays on the same step with the draft intact.
func (w *Wizard) Submit(ctx context.Context) State {
	w.mu.Lock()
	if w.state.Step != lastStep {
		out := cloneState(w.state)
		w.mu.Unlock()
		return out
	}
	if w.state.Submission == SubmissionInFlight || w.state.Submission == SubmissionDone {
		out := cloneState(w.state)
		w.mu.Unlock()
		return out
	}
	w.state.Errors = validateDraft(w.state.Draft)
	if len(w.state.Errors) > 0 {
		out := cloneState(w.state)
		w.mu.Unlock()
		return out
	}
	w.state.Submission = SubmissionInFlight
	w.state.FailureMsg = ""
	draft := w.state.Draft
	w.mu.Unlock()

	err := w.ctl.SignUp(ctx, draft.Email, draft.Password, domain.ProfileDraft{
		FullName:      draft.FullName,
		Phone:         draft.Phone,
		AddressStreet: draft.AddressStreet,
		AddressCity:   draft.AddressCity,
		AddressState:  draft.AddressState,
		AddressPostal: draft.AddressPostal,
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state.Submission = SubmissionFailed
		w.state.FailureMsg = failureMessage(err)
		return cloneState(w.state)
	}
	w.state.Submission = SubmissionDone
	return cloneState(w.state)
}

func failureMessage(err error) string {
	ae := (*authctl.Error)(nil)
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Failed to create account. Please try again."
}

// draftField maps a wire field name to its draft slot, nil when the name is
// not part of the draft. Names match the gateway's camelCase wire contract.
func draftField(d *Draft, name string) *string {
	switch name {
	case "email":
		return &d.Email
	case "password":
		return &d.Password
	case "fullName":
		return &d.FullName
	case "phone":
		return &d.Phone
	case "addressStreet":
		return &d.AddressStreet
	case "addressCity":
		return &d.AddressCity
	case "addressState":
		return &d.AddressState
	case "addressPostal":
		return &d.AddressPostal
	}
	return nil
}

func cloneState(s State) State {
	out := s
	out.Errors = make(map[string]string, len(s.Errors))
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	return out
}
