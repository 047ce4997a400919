package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// CredentialAuthenticator verifies an identity and secret against the identity store
type CredentialAuthenticator struct {
	resolver *PrincipalResolver
	verifier CredentialVerifier
	logger   *zap.Logger
}

// NewCredentialAuthenticator creates an authenticator. It does not issue tokens.
func NewCredentialAuthenticator(store IdentityStore, verifier CredentialVerifier, logger *zap.Logger) *CredentialAuthenticator {
	return &CredentialAuthenticator{
		resolver: NewPrincipalResolver(store, logger),
		verifier: verifier,
		logger:   logger,
	}
}

// Authenticate returns the principal for identity when secret matches its stored hash.
// Errors: ErrUserNotFound, ErrBadCredential, or an internal error from the store.
func (a *CredentialAuthenticator) Authenticate(ctx context.Context, identity, secret string) (*Principal, error) {
	principal, err := a.resolver.Resolve(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			a.logger.Debug("authentication failed", zap.String("reason", "unknown_identity"))
		}
		return nil, err
	}

	if !a.verifier.Matches(secret, principal.PasswordHash()) {
		a.logger.Debug("authentication failed",
			zap.String("reason", "bad_credential"),
			zap.Int64("user_id", principal.ID),
		)
		return nil, ErrBadCredential
	}

	a.logger.Debug("authentication succeeded", zap.Int64("user_id", principal.ID))
	return principal, nil
}
