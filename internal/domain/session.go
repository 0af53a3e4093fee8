package domain

// Session is the locally held identity of the signed-in principal.
type Session struct {
	ID    MemberID
	Email string
	Role  Role
}

// IsAdmin reports whether the session carries admin rights.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }
