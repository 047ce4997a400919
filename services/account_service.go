package services

import (
	"context"
	"errors"
	"strings"

	"github.com/upb/studio-auth/models"
	"github.com/upb/studio-auth/repositories"
	"github.com/upb/studio-auth/utils"
	"go.uber.org/zap"
)

// SignupRequest is the payload for creating an account
type SignupRequest struct {
	Email     string `json:"email" validate:"required,email,max=50"`
	FirstName string `json:"firstName" validate:"required,min=3,max=20"`
	LastName  string `json:"lastName" validate:"required,min=3,max=20"`
	Password  string `json:"password" validate:"required,min=6,max=40"`
}

// PasswordHasher turns a raw password into its stored form
type PasswordHasher interface {
	Hash(raw string) (string, error)
}

// AccountService manages stored accounts
type AccountService struct {
	users  repositories.UserRepository
	txMgr  repositories.TransactionManager
	hasher PasswordHasher
	logger *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(users repositories.UserRepository, txMgr repositories.TransactionManager, hasher PasswordHasher, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:  users,
		txMgr:  txMgr,
		hasher: hasher,
		logger: logger,
	}
}

// Register creates a regular account. A taken email yields ErrDuplicateEmail.
func (s *AccountService) Register(ctx context.Context, req SignupRequest) (*models.User, error) {
	return s.create(ctx, req, false)
}

// CreateAdmin creates an account with the admin flag set
func (s *AccountService) CreateAdmin(ctx context.Context, req SignupRequest) (*models.User, error) {
	return s.create(ctx, req, true)
}

func (s *AccountService) create(ctx context.Context, req SignupRequest, admin bool) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if err := utils.ValidateStruct(req); err != nil {
		domainErr := ErrInvalidInput.Wrap(err)
		for field, msg := range utils.GetValidationFields(err) {
			domainErr.WithDetail(field, msg)
		}
		return nil, domainErr
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(req.Email, req.FirstName, req.LastName, hash, admin)

	err = WithTransaction(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		exists, err := s.users.ExistsByEmail(ctx, user.Email)
		if err != nil {
			return WrapInternal("failed to check email", err)
		}
		if exists {
			return ErrDuplicateEmail
		}
		// a concurrent signup can win between the check and the insert
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrDuplicateEmail
			}
			return WrapInternal("failed to create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered",
		zap.Int64("user_id", user.ID),
		zap.Bool("admin", admin),
	)
	return user, nil
}

// GetUser returns the stored account with id
func (s *AccountService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound.Wrap(err)
		}
		return nil, WrapInternal("failed to load user", err)
	}
	return user, nil
}

// DeleteUser removes the account with id. Callers check ownership first.
func (s *AccountService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound.Wrap(err)
		}
		return WrapInternal("failed to delete user", err)
	}
	s.logger.Info("account deleted", zap.Int64("user_id", id))
	return nil
}
