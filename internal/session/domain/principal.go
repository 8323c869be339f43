package domain

import "time"

// Role is the closed set of roles a principal can hold. Keeping it a typed
// string (rather than free-form) lets gate checks enumerate the set instead
// of comparing arbitrary text.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// AccountStatus tracks whether a principal may currently authenticate.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
)

// Principal is an identity known to the directory. The session core only
// reads principals; the directory owns their lifecycle.
type Principal struct {
	ID           string
	Username     string
	DisplayName  string
	PasswordHash string // argon2 encoded
	Role         Role
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Valid reports whether the status is one of the known values.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// Active reports whether the account may hold a live session.
func (p Principal) Active() bool { return p.Status == StatusActive }
