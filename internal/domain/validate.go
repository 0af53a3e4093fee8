package domain

import "regexp"

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// Loose phone shape: optional leading +, then at least ten digits or
	// common punctuation characters. Deliberately permissive; the store's
	// uniqueness constraint is the real gate.
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]{10,}$`)
)

// ValidEmail reports whether s looks like a bare email address.
func ValidEmail(s string) bool { return emailPattern.MatchString(s) }

// ValidPhone reports whether s matches the loose phone shape.
func ValidPhone(s string) bool { return phonePattern.MatchString(s) }
