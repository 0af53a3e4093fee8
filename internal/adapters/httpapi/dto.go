package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
)

type sessionDTO struct {
	ID    string              `json:"id"`
	Email openapi_types.Email `json:"email"`
	Role  string              `json:"role"`
}

type profileDTO struct {
	ID       string              `json:"id"`
	Email    openapi_types.Email `json:"email"`
	Role     string              `json:"role"`
	FullName string              `json:"fullName"`
	Phone    string              `json:"phone"`
	PhotoURL *string             `json:"photoUrl"`

	AddressStreet string `json:"addressStreet"`
	AddressCity   string `json:"addressCity"`
	AddressState  string `json:"addressState"`
	AddressPostal string `json:"addressPostal"`

	DateOfBirth           *openapi_types.Date `json:"dateOfBirth"`
	Gender                *string             `json:"gender"`
	Occupation            *string             `json:"occupation"`
	EmergencyContactName  *string             `json:"emergencyContactName"`
	EmergencyContactPhone *string             `json:"emergencyContactPhone"`

	IsVerified bool `json:"isVerified"`
	IsApproved bool `json:"isApproved"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type stateDTO struct {
	User    *sessionDTO `json:"user"`
	Profile *profileDTO `json:"profile"`
	Loading bool        `json:"loading"`
}

func toSessionDTO(s *domain.Session) *sessionDTO {
	if s == nil {
		return nil
	}
	return &sessionDTO{
		ID:    string(s.ID),
		Email: openapi_types.Email(s.Email),
		Role:  string(s.Role),
	}
}

func toProfileDTO(p *domain.Profile) *profileDTO {
	if p == nil {
		return nil
	}
	dto := &profileDTO{
		ID:       string(p.ID),
		Email:    openapi_types.Email(p.Email),
		Role:     string(p.Role),
		FullName: p.FullName,
		Phone:    p.Phone,
		PhotoURL: p.PhotoURL,

		AddressStreet: p.AddressStreet,
		AddressCity:   p.AddressCity,
		AddressState:  p.AddressState,
		AddressPostal: p.AddressPostal,

		Gender:                p.Gender,
		Occupation:            p.Occupation,
		EmergencyContactName:  p.EmergencyContactName,
		EmergencyContactPhone: p.EmergencyContactPhone,

		IsVerified: p.IsVerified,
		IsApproved: p.IsApproved,

		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if p.DateOfBirth != nil {
		d := openapi_types.Date{Time: *p.DateOfBirth}
		dto.DateOfBirth = &d
	}
	return dto
}

// patchRequest is the PATCH /me body. Nullable keeps the wire tri-state:
// a field that is absent stays untouched, null clears, a value overwrites.
type patchRequest struct {
	FullName nullable.Nullable[string] `json:"fullName,omitempty"`
	Phone    nullable.Nullable[string] `json:"phone,omitempty"`

	AddressStreet nullable.Nullable[string] `json:"addressStreet,omitempty"`
	AddressCity   nullable.Nullable[string] `json:"addressCity,omitempty"`
	AddressState  nullable.Nullable[string] `json:"addressState,omitempty"`
	AddressPostal nullable.Nullable[string] `json:"addressPostal,omitempty"`

	DateOfBirth           nullable.Nullable[openapi_types.Date] `json:"dateOfBirth,omitempty"`
	Gender                nullable.Nullable[string]             `json:"gender,omitempty"`
	Occupation            nullable.Nullable[string]             `json:"occupation,omitempty"`
	EmergencyContactName  nullable.Nullable[string]             `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone nullable.Nullable[string]             `json:"emergencyContactPhone,omitempty"`
}

func (req patchRequest) toPatch() profilestore.Patch {
	var patch profilestore.Patch

	patch.FullName = toOptional(req.FullName)
	patch.Phone = toOptional(req.Phone)
	patch.AddressStreet = toOptional(req.AddressStreet)
	patch.AddressCity = toOptional(req.AddressCity)
	patch.AddressState = toOptional(req.AddressState)
	patch.AddressPostal = toOptional(req.AddressPostal)
	patch.Gender = toOptional(req.Gender)
	patch.Occupation = toOptional(req.Occupation)
	patch.EmergencyContactName = toOptional(req.EmergencyContactName)
	patch.EmergencyContactPhone = toOptional(req.EmergencyContactPhone)

	if req.DateOfBirth.IsSpecified() {
		if req.DateOfBirth.IsNull() {
			patch.DateOfBirth = profilestore.Null[time.Time]()
		} else {
			d, _ := req.DateOfBirth.Get()
			patch.DateOfBirth = profilestore.Some(d.Time.UTC())
		}
	}
	return patch
}

func toOptional(n nullable.Nullable[string]) profilestore.Optional[string] {
	if !n.IsSpecified() {
		return profilestore.Unspecified[string]()
	}
	if n.IsNull() {
		return profilestore.Null[string]()
	}
	v, _ := n.Get()
	return profilestore.Some(v)
}
