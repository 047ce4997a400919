package models

import (
	"time"
)

// User represents a studio account stored in the identity store
type User struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	Password  string    `json:"-" db:"password"` // bcrypt hash, never serialized
	Admin     bool      `json:"admin" db:"admin"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// NewUser creates a new User instance; ID is assigned by the store on insert
func NewUser(email, firstName, lastName, passwordHash string, admin bool) *User {
	now := time.Now()
	return &User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Password:  passwordHash,
		Admin:     admin,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin returns true if the user has elevated privileges
func (u *User) IsAdmin() bool {
	return u.Admin
}
