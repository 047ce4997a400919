package repositories

import (
	"context"
	"errors"

	"github.com/upb/studio-auth/models"
)

var (
	// ErrNotFound is returned (wrapped) when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned (wrapped) when an insert violates a unique constraint
	ErrDuplicate = errors.New("record already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the context carrying the transaction
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create inserts a new user and sets its ID
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// FindByEmail retrieves a user by email (the identity string)
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// ExistsByEmail reports whether an account already uses the email
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Delete deletes a user
	Delete(ctx context.Context, id int64) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users UserRepository
}
