package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/SscSPs/mining_ledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ledgerService struct {
	BaseService
	executor *Executor
	ledger   *Ledger
	reader   portsrepo.Store
}

// NewLedgerService creates the balance and history service.
func NewLedgerService(executor *Executor, ledger *Ledger, reader portsrepo.Store, options ...ServiceOption) portssvc.LedgerSvcFacade {
	return &ledgerService{
		BaseService: newBaseService(options...),
		executor:    executor,
		ledger:      ledger,
		reader:      reader,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperrors.ErrValidation)
	}
	balance, err := s.reader.Balances().FindBalance(ctx, userID)
	if err == nil {
		return balance, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	// First access: create the zeroed record inside a session.
	return RunAtomic(ctx, s.executor, func(ctx context.Context, store portsrepo.Store) (*domain.Balance, error) {
		return s.ledger.GetOrCreateBalance(ctx, store, userID)
	})
}

func (s *ledgerService) GetBalanceOverview(ctx context.Context, userID string) (*domain.BalanceOverview, error) {
	balance, err := s.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	machines, err := s.reader.Machines().ListUserMachines(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list machine positions: %w", err)
	}
	shares, err := s.reader.Shares().ListSharePurchases(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list share positions: %w", err)
	}

	catalog := newCatalogCache(s.reader.Machines())
	monthly := decimal.Zero
	for _, m := range machines {
		machine, err := catalog.get(ctx, m.MachineID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				s.GetLogger(ctx).Warn("Position references a missing catalog entry", slog.String("machine_id", m.MachineID))
				continue
			}
			return nil, err
		}
		monthly = monthly.Add(machine.MonthlyProfit)
	}
	for _, sp := range shares {
		monthly = monthly.Add(sp.PeriodProfit())
	}

	return &domain.BalanceOverview{
		Balance:            *balance,
		ActiveMachines:     machines,
		ActiveShares:       shares,
		MonthlyProfit:      monthly,
		ActiveMachineCount: len(machines),
	}, nil
}

func (s *ledgerService) ListBalances(ctx context.Context, limit, offset int) ([]domain.Balance, error) {
	limit = pagination.NormalizeLimit(limit, defaultPageSize, maxPageSize)
	if offset < 0 {
		offset = 0
	}
	balances, err := s.reader.Balances().ListBalances(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	if balances == nil {
		return []domain.Balance{}, nil
	}
	return balances, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	types, err := parseTypeFilter(params.Type)
	if err != nil {
		return nil, err
	}
	return listHistory(ctx, s.reader, userID, types, params)
}

func (s *ledgerService) CreditAdmin(ctx context.Context, userID string, req dto.CreditBalanceRequest, adminID string) (*domain.Balance, *domain.Transaction, error) {
	if userID == "" {
		return nil, nil, fmt.Errorf("%w: user id is required", apperrors.ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	amount := domain.RoundMoney(req.Amount)
	logger := s.GetLogger(ctx).With(slog.String("target_user_id", userID), slog.String("admin_id", adminID))

	type creditResult struct {
		balance *domain.Balance
		txn     *domain.Transaction
	}
	res, err := RunAtomic(ctx, s.executor, func(ctx context.Context, store portsrepo.Store) (creditResult, error) {
		balance, txn, err := s.ledger.ApplyDelta(ctx, store, Entry{
			UserID:     userID,
			AdminDelta: amount,
			Type:       domain.TxAdminAdd,
			Details:    req.Note,
			Metadata:   domain.AdminCreditMetadata{CreditedBy: adminID, Note: req.Note},
		})
		return creditResult{balance: balance, txn: txn}, err
	})
	if err != nil {
		s.logFailure(ctx, err, "Admin credit failed", slog.String("target_user_id", userID))
		return nil, nil, err
	}

	s.committed(*res.txn)
	logger.Info("Admin credit applied", slog.String("amount", amount.String()), slog.String("transaction_id", res.txn.TransactionID))
	return res.balance, res.txn, nil
}

func parseTypeFilter(raw string) ([]domain.TransactionType, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var types []domain.TransactionType
	for _, part := range strings.Split(raw, ",") {
		t := domain.TransactionType(strings.TrimSpace(part))
		if !t.Valid() {
			return nil, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, part)
		}
		types = append(types, t)
	}
	return types, nil
}

// listHistory reads one page of a user's history, fetching one extra row to
// know whether another page exists.
func listHistory(ctx context.Context, reader portsrepo.Store, userID string, types []domain.TransactionType, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperrors.ErrValidation)
	}
	limit := pagination.NormalizeLimit(params.Limit, defaultPageSize, maxPageSize)
	filter := portsrepo.TransactionFilter{Types: types, Limit: limit + 1}
	if params.NextToken != "" {
		cursor, err := pagination.DecodeToken(params.NextToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		filter.BeforeDate = cursor.TransactionDate
		filter.BeforeID = cursor.TransactionID
	}

	txns, err := reader.Transactions().ListUserTransactions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	resp := &dto.ListTransactionsResponse{}
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		token := pagination.EncodeToken(last.TransactionDate, last.TransactionID)
		resp.NextToken = &token
	}
	resp.Transactions = dto.ToTransactionResponses(txns)
	return resp, nil
}

// catalogCache memoises catalog lookups for the duration of one operation.
type catalogCache struct {
	repo    portsrepo.MachineReader
	entries map[string]*domain.Machine
}

func newCatalogCache(repo portsrepo.MachineReader) *catalogCache {
	return &catalogCache{repo: repo, entries: make(map[string]*domain.Machine)}
}

func (c *catalogCache) get(ctx context.Context, machineID string) (*domain.Machine, error) {
	if m, ok := c.entries[machineID]; ok {
		return m, nil
	}
	m, err := c.repo.FindMachineByID(ctx, machineID)
	if err != nil {
		return nil, err
	}
	c.entries[machineID] = m
	return m, nil
}
