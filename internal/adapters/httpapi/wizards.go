package httpapi

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ifiscoder/CommunityApp/internal/app/register"
)

// wizardRegistry tracks in-progress registration wizards by id. A wizard is
// removed once its submission is done; abandoned wizards stay until process
// restart, which matches their in-memory, pre-account nature.
type wizardRegistry struct {
	ctl register.SignUpper

	mu   sync.Mutex
	byID map[string]*register.Wizard
}

func newWizardRegistry(ctl register.SignUpper) *wizardRegistry {
	return &wizardRegistry{ctl: ctl, byID: make(map[string]*register.Wizard)}
}

func (r *wizardRegistry) create() (string, *register.Wizard) {
	id := uuid.NewString()
	w := register.NewWizard(r.ctl)

	r.mu.Lock()
	r.byID[id] = w
	r.mu.Unlock()
	return id, w
}

func (r *wizardRegistry) get(id string) (*register.Wizard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byID[id]
	return w, ok
}

func (r *wizardRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}
