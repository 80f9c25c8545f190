package domain

import "time"

// User is the domain model for anyone who logs into the system.
type User struct {
	ID           string
	Login        string
	PasswordHash string
	RoleID       string
	Role         *Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleName returns the name of the user's role, empty when the role
// has not been loaded alongside the user.
func (u *User) RoleName() RoleName {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}
