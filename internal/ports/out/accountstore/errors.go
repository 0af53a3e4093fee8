package accountstore

import "errors"

var (
	// ErrInvalidCredentials indicates the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken indicates an account already exists for the email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNoSession indicates the token does not resolve to a live session.
	ErrNoSession = errors.New("no session")
)
