package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier compares a raw secret with a stored hash
type CredentialVerifier interface {
	Matches(raw, hash string) bool
}

// BcryptVerifier hashes and verifies passwords with bcrypt
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier creates a verifier; cost 0 selects bcrypt.DefaultCost
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

// Hash returns the bcrypt hash of raw
func (v *BcryptVerifier) Hash(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), v.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrInvalidInput.Wrap(err)
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether raw is the secret behind hash
func (v *BcryptVerifier) Matches(raw, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
