package services

import "github.com/upb/studio-auth/models"

// Principal is the authenticated identity attached to a request.
// It is built fresh for every request and never cached.
type Principal struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Admin     bool   `json:"admin"`

	passwordHash string
}

// PrincipalFromUser copies the identity fields of a stored user
func PrincipalFromUser(user *models.User) *Principal {
	return &Principal{
		ID:           user.ID,
		Username:     user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Admin:        user.IsAdmin(),
		passwordHash: user.Password,
	}
}

// PasswordHash returns the stored secret hash for credential checks
func (p *Principal) PasswordHash() string {
	return p.passwordHash
}

// String keeps the hash out of %v output
func (p *Principal) String() string {
	return p.Username
}
