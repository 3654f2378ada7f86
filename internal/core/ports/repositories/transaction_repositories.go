package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
)

// TransactionFilter narrows a user's transaction history. Results are ordered
// by transaction date then id, newest first; a non-zero BeforeDate resumes
// after the row identified by (BeforeDate, BeforeID).
type TransactionFilter struct {
	Types      []domain.TransactionType
	Limit      int
	BeforeDate time.Time
	BeforeID   string
}

// WithdrawalFilter narrows the operator listing of withdrawals. Zero fields
// match everything; From and To bound the request date inclusively.
type WithdrawalFilter struct {
	Status    domain.TransactionStatus
	From      time.Time
	To        time.Time
	Ascending bool
	Limit     int
	Offset    int
}

// TransactionReader defines read operations for ledger entries
type TransactionReader interface {
	// FindTransactionByID retrieves a single entry.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// CountTransactions counts a user's entries of one type in one status.
	CountTransactions(ctx context.Context, userID string, txType domain.TransactionType, status domain.TransactionStatus) (int, error)

	// ListUserTransactions retrieves one page of a user's history.
	ListUserTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]domain.Transaction, error)

	// ListTransactionsByStatus retrieves entries of a type in a status, oldest first.
	ListTransactionsByStatus(ctx context.Context, txType domain.TransactionType, status domain.TransactionStatus, limit int, offset int) ([]domain.Transaction, error)

	// ListWithdrawals retrieves one page of withdrawals in any status.
	ListWithdrawals(ctx context.Context, filter WithdrawalFilter) ([]domain.Transaction, error)

	// SummarizeWithdrawals counts and sums the withdrawals matching filter,
	// ignoring its paging fields. Status of the result is filter.Status.
	SummarizeWithdrawals(ctx context.Context, filter WithdrawalFilter) (domain.WithdrawalStat, error)

	// WithdrawalStats aggregates withdrawals per status.
	WithdrawalStats(ctx context.Context) ([]domain.WithdrawalStat, error)
}

// TransactionWriter defines write operations for ledger entries
type TransactionWriter interface {
	// SaveTransaction appends a new entry.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// LockTransaction retrieves an entry and locks it for the rest of the session.
	LockTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// SettleTransaction moves a pending entry to a terminal status, storing the
	// snapshot and review fields of txn. ErrAlreadyProcessed when the stored
	// entry is no longer pending.
	SettleTransaction(ctx context.Context, txn domain.Transaction) error
}

// TransactionRepositoryFacade combines all transaction-related repository interfaces
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
