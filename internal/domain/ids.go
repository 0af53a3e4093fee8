package domain

// MemberID identifies both the account and the profile row: the profile is
// keyed by the account's id, so the two always share the same identifier.
type MemberID string

// Role is the coarse authorization level carried by a session.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// ParseRole maps arbitrary role metadata to a known Role, defaulting to member.
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleMember
}
