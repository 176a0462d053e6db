package types

import "time"

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user (UUID).
	ID string `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's unique email address, used as the login name.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the system:
	// "admin" or "editor".
	Role string `json:"role" db:"role"`

	// Avatar is an optional stored filename or URL for the user's
	// profile picture.
	Avatar *string `json:"avatar" db:"avatar"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Roles assignable to users.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// Actor is the authenticated identity attached to a mutating request.
type Actor struct {
	ID   string
	Role string
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
