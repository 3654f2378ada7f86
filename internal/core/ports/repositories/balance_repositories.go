package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
)

// BalanceReader defines read operations for balances
type BalanceReader interface {
	// FindBalance retrieves a user's balance; ErrNotFound when the user has never been touched.
	FindBalance(ctx context.Context, userID string) (*domain.Balance, error)

	// ListBalances retrieves a page of balances ordered by last update, newest first.
	ListBalances(ctx context.Context, limit int, offset int) ([]domain.Balance, error)
}

// BalanceWriter defines write operations for balances
type BalanceWriter interface {
	// GetOrCreateBalance returns the user's balance locked for the rest of the
	// session, inserting a zeroed row first when none exists. Concurrent first
	// touches resolve to the same row.
	GetOrCreateBalance(ctx context.Context, userID string, now time.Time) (*domain.Balance, error)

	// UpdateBalance overwrites the accumulators of an existing balance.
	UpdateBalance(ctx context.Context, balance domain.Balance) error
}

// BalanceRepositoryFacade combines all balance-related repository interfaces
type BalanceRepositoryFacade interface {
	BalanceReader
	BalanceWriter
}
