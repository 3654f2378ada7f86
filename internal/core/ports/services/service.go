package services

import (
	"context"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
)

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Ledger     LedgerSvcFacade
	Market     MarketSvcFacade
	Withdrawal WithdrawalSvcFacade
	Accrual    AccrualSvc
	User       UserSvcFacade
}

// Notifier delivers post-commit notifications. Implementations must not block
// the caller for long and must swallow delivery failures.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}
