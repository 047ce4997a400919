package services

import (
	"context"
	"errors"
	"strings"

	"github.com/upb/studio-auth/models"
	"github.com/upb/studio-auth/repositories"
	"go.uber.org/zap"
)

// IdentityStore looks up stored accounts by identity string
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// PrincipalResolver loads the principal for a token subject
type PrincipalResolver struct {
	store  IdentityStore
	logger *zap.Logger
}

// NewPrincipalResolver creates a resolver over the identity store
func NewPrincipalResolver(store IdentityStore, logger *zap.Logger) *PrincipalResolver {
	return &PrincipalResolver{
		store:  store,
		logger: logger,
	}
}

// Resolve returns the principal for identity. A missing account yields
// ErrUserNotFound; any other store failure is wrapped as internal.
func (r *PrincipalResolver) Resolve(ctx context.Context, identity string) (*Principal, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, ErrUserNotFound
	}

	user, err := r.store.FindByEmail(ctx, identity)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound.Wrap(err)
		}
		r.logger.Error("identity store lookup failed", zap.Error(err))
		return nil, WrapInternal("failed to load user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return PrincipalFromUser(user), nil
}
