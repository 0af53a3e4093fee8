package authctl

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// Stable error codes surfaced to workflows and the gateway.
const (
	CodeAuthenticationFailed  = "AUTHENTICATION_FAILED"
	CodeEmailTaken            = "EMAIL_ALREADY_REGISTERED"
	CodePhoneTaken            = "PHONE_ALREADY_REGISTERED"
	CodeProfileCreationFailed = "PROFILE_CREATION_FAILED"
	CodeProfileNotFound       = "PROFILE_NOT_FOUND"
	CodeNotSignedIn           = "NOT_SIGNED_IN"
	CodeValidationError       = "VALIDATION_ERROR"
)

// duplicatePhoneMessage matches the member-facing wording used wherever the
// phone uniqueness rule trips, before or after account creation.
const duplicatePhoneMessage = "This phone number is already registered. Please use a different phone number."
