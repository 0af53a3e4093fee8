package profilestore

import "time"

// Optional is a tri-state field used to distinguish:
// - unspecified (leave stored value alone)
// - specified as null (clear the stored value)
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// Patch is a partial profile update. Null is only meaningful for fields the
// domain models as pointers; required fields reject it at the app layer.
type Patch struct {
	Email    Optional[string]
	FullName Optional[string]
	Phone    Optional[string]
	PhotoURL Optional[string]

	AddressStreet Optional[string]
	AddressCity   Optional[string]
	AddressState  Optional[string]
	AddressPostal Optional[string]

	DateOfBirth Optional[time.Time]
	Gender      Optional[string]
	Occupation  Optional[string]

	EmergencyContactName  Optional[string]
	EmergencyContactPhone Optional[string]

	IsVerified Optional[bool]
	IsApproved Optional[bool]
}
