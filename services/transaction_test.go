package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/upb/studio-auth/repositories"
)

type txMarker struct{}

// MockTransactionManager is a mock implementation of TransactionManager
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return WithTransaction(ctx, m, fn)
}

// MockTransaction is a mock implementation of Transaction
type MockTransaction struct {
	mock.Mock
	ctx        context.Context
	committed  bool
	rolledback bool
}

func newMockTransaction(parent context.Context) *MockTransaction {
	return &MockTransaction{ctx: context.WithValue(parent, txMarker{}, true)}
}

func (m *MockTransaction) Commit() error {
	args := m.Called()
	m.committed = true
	return args.Error(0)
}

func (m *MockTransaction) Rollback() error {
	args := m.Called()
	m.rolledback = true
	return args.Error(0)
}

func (m *MockTransaction) Context() context.Context {
	return m.ctx
}

func TestWithTransaction_Success(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)
	mockTx := newMockTransaction(ctx)

	mockTxMgr.On("Begin", ctx).Return(mockTx, nil)
	mockTx.On("Commit").Return(nil)

	err := WithTransaction(ctx, mockTxMgr, func(ctx context.Context, tx repositories.Transaction) error {
		assert.Equal(t, true, ctx.Value(txMarker{}), "fn must run with the transaction context")
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, mockTx.committed)
	assert.False(t, mockTx.rolledback)
	mockTxMgr.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestWithTransaction_ErrorInFunction(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)
	mockTx := newMockTransaction(ctx)
	expectedErr := errors.New("operation failed")

	mockTxMgr.On("Begin", ctx).Return(mockTx, nil)
	mockTx.On("Rollback").Return(nil)

	err := WithTransaction(ctx, mockTxMgr, func(ctx context.Context, tx repositories.Transaction) error {
		return expectedErr
	})

	assert.Equal(t, expectedErr, err)
	assert.False(t, mockTx.committed)
	assert.True(t, mockTx.rolledback)
	mockTxMgr.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestWithTransaction_BeginError(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)

	mockTxMgr.On("Begin", ctx).Return(nil, errors.New("connection refused"))

	err := WithTransaction(ctx, mockTxMgr, func(ctx context.Context, tx repositories.Transaction) error {
		t.Fatal("fn must not run")
		return nil
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
	mockTxMgr.AssertExpectations(t)
}

func TestWithTransaction_CommitError(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)
	mockTx := newMockTransaction(ctx)

	mockTxMgr.On("Begin", ctx).Return(mockTx, nil)
	mockTx.On("Commit").Return(errors.New("commit failed"))

	err := WithTransaction(ctx, mockTxMgr, func(ctx context.Context, tx repositories.Transaction) error {
		return nil
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
	assert.True(t, mockTx.committed)
	mockTx.AssertExpectations(t)
}

func TestWithTransaction_RollbackError(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)
	mockTx := newMockTransaction(ctx)

	mockTxMgr.On("Begin", ctx).Return(mockTx, nil)
	mockTx.On("Rollback").Return(errors.New("rollback failed"))

	err := WithTransaction(ctx, mockTxMgr, func(ctx context.Context, tx repositories.Transaction) error {
		return errors.New("operation failed")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transaction error")
	assert.Contains(t, err.Error(), "rollback error")
	assert.True(t, mockTx.rolledback)
}

func TestWithTransaction_RollbackErrorKeepsDomainError(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)
	mockTx := newMockTransaction(ctx)

	mockTxMgr.On("Begin", ctx).Return(mockTx, nil)
	mockTx.On("Rollback").Return(errors.New("rollback failed"))

	err := WithTransaction(ctx, mockTxMgr, func(ctx context.Context, tx repositories.Transaction) error {
		return ErrDuplicateEmail
	})

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.True(t, IsConflictError(err))
}

func TestWithTransaction_PanicRollsBack(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)
	mockTx := newMockTransaction(ctx)

	mockTxMgr.On("Begin", ctx).Return(mockTx, nil)
	mockTx.On("Rollback").Return(nil)

	assert.Panics(t, func() {
		_ = WithTransaction(ctx, mockTxMgr, func(ctx context.Context, tx repositories.Transaction) error {
			panic("boom")
		})
	})
	assert.True(t, mockTx.rolledback)
	assert.False(t, mockTx.committed)
}

func TestWithTransactionResult_Success(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)
	mockTx := newMockTransaction(ctx)

	mockTxMgr.On("Begin", ctx).Return(mockTx, nil)
	mockTx.On("Commit").Return(nil)

	result, err := WithTransactionResult(ctx, mockTxMgr, func(ctx context.Context, tx repositories.Transaction) (string, error) {
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.True(t, mockTx.committed)
	mockTx.AssertExpectations(t)
}

func TestWithTransactionResult_CommitError(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)
	mockTx := newMockTransaction(ctx)

	mockTxMgr.On("Begin", ctx).Return(mockTx, nil)
	mockTx.On("Commit").Return(errors.New("commit failed"))

	result, err := WithTransactionResult(ctx, mockTxMgr, func(ctx context.Context, tx repositories.Transaction) (int, error) {
		return 42, nil
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
	assert.Equal(t, 42, result)
}
