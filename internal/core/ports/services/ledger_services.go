package services

import (
	"context"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/SscSPs/mining_ledger/internal/dto"
)

// LedgerReaderSvc defines read operations over balances and history
type LedgerReaderSvc interface {
	// GetBalance returns the user's balance, creating a zeroed one on first access.
	GetBalance(ctx context.Context, userID string) (*domain.Balance, error)

	// GetBalanceOverview returns the balance with the active positions feeding it.
	GetBalanceOverview(ctx context.Context, userID string) (*domain.BalanceOverview, error)

	// ListBalances returns a page of all balances.
	ListBalances(ctx context.Context, limit, offset int) ([]domain.Balance, error)

	// ListTransactions returns one page of a user's ledger history.
	ListTransactions(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// LedgerWriterSvc defines administrative balance mutations
type LedgerWriterSvc interface {
	// CreditAdmin adds a positive amount to the user's admin funds.
	CreditAdmin(ctx context.Context, userID string, req dto.CreditBalanceRequest, adminID string) (*domain.Balance, *domain.Transaction, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
