package register

import "github.com/ifiscoder/CommunityApp/internal/domain"

// validateStep returns the field-error map for one step over the draft.
// Validation is resolved entirely locally; a step with errors never reaches
// the network.
func validateStep(step Step, d Draft) map[string]string {
	errs := map[string]string{}

	switch step {
	case StepAccount:
		if d.Email == "" {
			errs["email"] = "Email is required"
		} else if !domain.ValidEmail(d.Email) {
			errs["email"] = "Please enter a valid email"
		}
		if d.Password == "" {
			errs["password"] = "Password is required"
		} else if len(d.Password) < 6 {
			errs["password"] = "Password must be at least 6 characters"
		}

	case StepPersonalInfo:
		if len([]rune(d.FullName)) < 2 {
			errs["fullName"] = "Full name must be at least 2 characters"
		}
		if d.Phone == "" {
			errs["phone"] = "Phone number is required"
		} else if !domain.ValidPhone(d.Phone) {
			errs["phone"] = "Please enter a valid phone number"
		}

	case StepAddress:
		if d.AddressStreet == "" {
			errs["addressStreet"] = "Street address is required"
		}
		if d.AddressCity == "" {
			errs["addressCity"] = "City is required"
		}
		if d.AddressState == "" {
			errs["addressState"] = "State is required"
		}
		if d.AddressPostal == "" {
			errs["addressPostal"] = "Postal code is required"
		}
	}

	return errs
}

// validateDraft runs every step's validators over the draft. Submit uses it
// so fields merged after a step was passed cannot sneak past validation.
func validateDraft(d Draft) map[string]string {
	errs := map[string]string{}
	for step := StepAccount; step <= lastStep; step++ {
		for field, msg := range validateStep(step, d) {
			errs[field] = msg
		}
	}
	return errs
}
