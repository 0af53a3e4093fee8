package domain

import "time"

// Profile is the durable member record, keyed by the owning Session's id.
//
// Optional personal attributes and the emergency contact are pointers; nil
// means unset.
type Profile struct {
	ID    MemberID
	Email string
	Role  Role

	FullName string
	Phone    string
	PhotoURL *string

	AddressStreet string
	AddressCity   string
	AddressState  string
	AddressPostal string

	DateOfBirth *time.Time
	Gender      *string
	Occupation  *string

	EmergencyContactName  *string
	EmergencyContactPhone *string

	IsVerified bool
	IsApproved bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileDraft carries the self-service fields gathered during registration
// (and reused by profile editing). Identity, status flags, and timestamps are
// never part of a draft; the controller owns those.
type ProfileDraft struct {
	FullName string
	Phone    string

	AddressStreet string
	AddressCity   string
	AddressState  string
	AddressPostal string

	DateOfBirth *time.Time
	Gender      *string
	Occupation  *string

	EmergencyContactName  *string
	EmergencyContactPhone *string
}
