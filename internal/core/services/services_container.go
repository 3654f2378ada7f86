package services

import (
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, options ...ServiceOption) *portssvc.ServiceContainer {
	base := newBaseService(options...)

	// One executor and one ledger are shared so every mutation follows the same
	// retry contract and balance rules.
	executor := NewExecutor(repos.TxManager, DefaultRetryPolicy(cfg.TxMaxAttempts, cfg.TxBaseDelay))
	ledger := NewLedger(base.Clock)

	return &portssvc.ServiceContainer{
		Ledger:     NewLedgerService(executor, ledger, repos.Reader, options...),
		Market:     NewMarketService(executor, ledger, repos.Reader, cfg.AccrualPeriod, options...),
		Withdrawal: NewWithdrawalService(executor, ledger, repos.Reader, options...),
		Accrual: NewAccrualService(executor, ledger, repos.Reader, AccrualConfig{
			Period:    cfg.AccrualPeriod,
			BatchSize: cfg.AccrualBatchSize,
		}, options...),
		User: NewUserService(executor, repos.Reader, options...),
	}
}
