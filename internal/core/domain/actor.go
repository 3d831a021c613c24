package domain

// Role is the authorization level carried in a session token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Authorize reports whether a caller holding role may perform an operation
// that requires required. Admins satisfy every requirement.
func Authorize(role, required Role) bool {
	if role == RoleAdmin {
		return true
	}
	return role == required && role.Valid()
}

// Actor is the resolved identity on whose behalf an operation runs.
// It is passed explicitly into every workflow call.
type Actor struct {
	ClientID int64
	Role     Role
}

// Require returns ErrForbidden unless the actor holds the required role.
func (a Actor) Require(required Role) error {
	if !Authorize(a.Role, required) {
		return ErrForbidden
	}
	return nil
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
