package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/mining_ledger/internal/core/services"
	"github.com/SscSPs/mining_ledger/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock TransactionManager ---
type MockTxManager struct {
	mock.Mock
}

var _ portsrepo.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) RunInTx(ctx context.Context, work portsrepo.UnitOfWork) error {
	args := m.Called(ctx, work)
	return args.Error(0)
}

func noBackoff(maxAttempts int) services.RetryPolicy {
	return services.RetryPolicy{
		MaxAttempts: maxAttempts,
		IsTransient: apperrors.IsTransient,
		Backoff:     func(int) time.Duration { return 0 },
	}
}

func TestExecutor_RetriesTransientThenSucceeds(t *testing.T) {
	tm := new(MockTxManager)
	conflict := fmt.Errorf("serialization failure: %w", apperrors.ErrTransient)
	tm.On("RunInTx", mock.Anything, mock.Anything).Return(conflict).Twice()
	tm.On("RunInTx", mock.Anything, mock.Anything).Return(nil).Once()

	exec := services.NewExecutor(tm, noBackoff(3))
	err := exec.Run(context.Background(), func(context.Context, portsrepo.Store) error { return nil })

	require.NoError(t, err)
	tm.AssertNumberOfCalls(t, "RunInTx", 3)
}

func TestExecutor_GivesUpAfterMaxAttempts(t *testing.T) {
	tm := new(MockTxManager)
	tm.On("RunInTx", mock.Anything, mock.Anything).Return(apperrors.ErrTransient)

	exec := services.NewExecutor(tm, noBackoff(3))
	err := exec.Run(context.Background(), func(context.Context, portsrepo.Store) error { return nil })

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransient)
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
	tm.AssertNumberOfCalls(t, "RunInTx", 3)
}

func TestExecutor_DoesNotRetryPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"insufficient funds", apperrors.ErrInsufficientFunds},
		{"validation", apperrors.ErrValidation},
		{"not found", apperrors.ErrNotFound},
		{"unknown", errors.New("disk on fire")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := new(MockTxManager)
			tm.On("RunInTx", mock.Anything, mock.Anything).Return(tt.err).Once()

			exec := services.NewExecutor(tm, noBackoff(3))
			err := exec.Run(context.Background(), func(context.Context, portsrepo.Store) error { return nil })

			assert.ErrorIs(t, err, tt.err)
			tm.AssertNumberOfCalls(t, "RunInTx", 1)
		})
	}
}

func TestExecutor_StopsWhenContextCancelled(t *testing.T) {
	tm := new(MockTxManager)
	tm.On("RunInTx", mock.Anything, mock.Anything).Return(apperrors.ErrTransient)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	policy := noBackoff(3)
	policy.Backoff = services.LinearBackoff(time.Hour)

	err := services.NewExecutor(tm, policy).Run(ctx, func(context.Context, portsrepo.Store) error { return nil })

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransient)
	tm.AssertNumberOfCalls(t, "RunInTx", 1)
}

func TestLinearBackoff(t *testing.T) {
	backoff := services.LinearBackoff(time.Second)
	assert.Equal(t, time.Second, backoff(1))
	assert.Equal(t, 2*time.Second, backoff(2))
}

func TestRunAtomic_RerunsWholeUnitAndCommitsOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.FailNextCommits(1)
	exec := services.NewExecutor(store, noBackoff(3))

	runs := 0
	got, err := services.RunAtomic(ctx, exec, func(ctx context.Context, s portsrepo.Store) (string, error) {
		runs++
		b, err := s.Balances().GetOrCreateBalance(ctx, "u1", epoch)
		if err != nil {
			return "", err
		}
		next, err := b.Apply(dec("10"), dec("0"), epoch)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("run-%d", runs), s.Balances().UpdateBalance(ctx, next)
	})

	require.NoError(t, err)
	assert.Equal(t, "run-2", got)
	assert.Equal(t, 2, runs)
	assert.Equal(t, 1, store.Commits())

	b, err := store.Reader().Balances().FindBalance(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(b.TotalBalance), "one mutation only, got %s", b.TotalBalance)
}

func TestLedger_ApplyDeltaRejectsOverdraftBeforeWriting(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ledger := services.NewLedger(func() time.Time { return epoch })

	err := store.RunInTx(ctx, func(ctx context.Context, s portsrepo.Store) error {
		_, _, err := ledger.ApplyDelta(ctx, s, services.Entry{
			UserID:     "u1",
			AdminDelta: dec("-5"),
			Type:       domain.TxMachinePurchase,
			Metadata:   domain.MachinePurchaseMetadata{MachineID: "m", Quantity: 1},
		})
		return err
	})
	require.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
	assert.Equal(t, 0, store.Commits())
}
