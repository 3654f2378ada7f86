package services

import (
	"context"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/SscSPs/mining_ledger/internal/dto"
)

// WithdrawalWriterSvc defines the withdrawal state machine
type WithdrawalWriterSvc interface {
	// RequestWithdrawal records a pending withdrawal without moving funds.
	RequestWithdrawal(ctx context.Context, userID string, req dto.CreateWithdrawalRequest) (*domain.Transaction, error)

	// DecideWithdrawal approves or rejects a pending withdrawal.
	DecideWithdrawal(ctx context.Context, transactionID string, req dto.WithdrawalDecisionRequest, reviewerID string) (*domain.Transaction, *domain.Balance, error)
}

// WithdrawalReaderSvc defines read operations over withdrawals
type WithdrawalReaderSvc interface {
	ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]domain.Transaction, error)
	ListWithdrawalHistory(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
	GetWithdrawalStats(ctx context.Context) ([]domain.WithdrawalStat, error)

	// ListWithdrawals pages through withdrawals in any status, with the count
	// and total amount of everything matching the filter.
	ListWithdrawals(ctx context.Context, params dto.ListWithdrawalsParams) (*dto.ListWithdrawalsResponse, error)
}

// WithdrawalSvcFacade combines all withdrawal-related service interfaces
type WithdrawalSvcFacade interface {
	WithdrawalWriterSvc
	WithdrawalReaderSvc
}
