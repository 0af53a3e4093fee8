package profilestore

import "errors"

var (
	// ErrNotFound indicates an update targeted a profile that does not exist.
	ErrNotFound = errors.New("profile not found")

	// ErrAlreadyExists indicates a profile already exists with the provided id.
	ErrAlreadyExists = errors.New("profile already exists")

	// ErrPhoneTaken indicates the phone uniqueness constraint was violated.
	ErrPhoneTaken = errors.New("phone number already registered")
)
