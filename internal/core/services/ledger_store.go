package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/mining_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger is the only code path that mutates balances. Every method runs
// inside the session of the store it is given.
type Ledger struct {
	clock func() time.Time
}

// NewLedger creates a Ledger using clock for timestamps.
func NewLedger(clock func() time.Time) *Ledger {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Ledger{clock: clock}
}

// Entry describes a balance mutation and the ledger entry recording it.
type Entry struct {
	UserID      string
	AdminDelta  decimal.Decimal
	MiningDelta decimal.Decimal
	Type        domain.TransactionType
	Details     string
	Metadata    domain.TransactionMetadata
}

// GetOrCreateBalance returns the user's balance, creating a zeroed one on first touch.
func (l *Ledger) GetOrCreateBalance(ctx context.Context, store portsrepo.Store, userID string) (*domain.Balance, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperrors.ErrValidation)
	}
	balance, err := store.Balances().GetOrCreateBalance(ctx, userID, l.clock())
	if err != nil {
		return nil, fmt.Errorf("failed to load balance for user %s: %w", userID, err)
	}
	return balance, nil
}

// RequireFunds loads the user's balance and fails with ErrInsufficientFunds
// when its total cannot cover amount. Nothing is written.
func (l *Ledger) RequireFunds(ctx context.Context, store portsrepo.Store, userID string, amount decimal.Decimal) (*domain.Balance, error) {
	balance, err := l.GetOrCreateBalance(ctx, store, userID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(balance.TotalBalance) {
		return balance, fmt.Errorf("%w: balance %s cannot cover %s", apperrors.ErrInsufficientFunds,
			balance.TotalBalance.StringFixed(2), amount.StringFixed(2))
	}
	return balance, nil
}

// Adjust applies both deltas to the user's balance and stores the result.
// It returns the snapshots before and after the change. A change that would
// leave the total negative is rejected before anything is written.
func (l *Ledger) Adjust(ctx context.Context, store portsrepo.Store, userID string, adminDelta, miningDelta decimal.Decimal) (before, after domain.Balance, err error) {
	current, err := l.GetOrCreateBalance(ctx, store, userID)
	if err != nil {
		return domain.Balance{}, domain.Balance{}, err
	}
	next, err := current.Apply(adminDelta, miningDelta, l.clock())
	if err != nil {
		return *current, *current, err
	}
	if err := store.Balances().UpdateBalance(ctx, next); err != nil {
		return *current, *current, fmt.Errorf("failed to update balance for user %s: %w", userID, err)
	}
	return *current, next, nil
}

// DrawDown debits amount from the user's balance, consuming mining profit
// before admin funds.
func (l *Ledger) DrawDown(ctx context.Context, store portsrepo.Store, userID string, amount decimal.Decimal) (before, after domain.Balance, err error) {
	current, err := l.RequireFunds(ctx, store, userID, amount)
	if err != nil {
		if current == nil {
			return domain.Balance{}, domain.Balance{}, err
		}
		return *current, *current, err
	}
	adminDelta, miningDelta := current.DrawOrder(amount)
	return l.Adjust(ctx, store, userID, adminDelta, miningDelta)
}

// ApplyDelta adjusts the balance and appends a completed transaction carrying
// the before and after totals.
func (l *Ledger) ApplyDelta(ctx context.Context, store portsrepo.Store, e Entry) (*domain.Balance, *domain.Transaction, error) {
	adminDelta := domain.RoundMoney(e.AdminDelta)
	miningDelta := domain.RoundMoney(e.MiningDelta)
	signed := adminDelta.Add(miningDelta)
	if signed.IsZero() {
		return nil, nil, fmt.Errorf("%w: %s entry must move the balance", apperrors.ErrValidation, e.Type)
	}
	if signed.IsPositive() != e.Type.IsCredit() {
		return nil, nil, fmt.Errorf("delta %s has the wrong direction for %s", signed, e.Type)
	}

	before, after, err := l.Adjust(ctx, store, e.UserID, adminDelta, miningDelta)
	if err != nil {
		return nil, nil, err
	}

	txn := domain.Transaction{
		TransactionID:   uuid.NewString(),
		UserID:          e.UserID,
		Amount:          signed.Abs(),
		Type:            e.Type,
		Status:          domain.StatusCompleted,
		BalanceBefore:   before.TotalBalance,
		BalanceAfter:    after.TotalBalance,
		Details:         e.Details,
		Metadata:        e.Metadata,
		TransactionDate: after.LastUpdated,
	}
	if err := l.Record(ctx, store, txn); err != nil {
		return nil, nil, err
	}
	return &after, &txn, nil
}

// Record validates and appends a transaction without touching any balance.
func (l *Ledger) Record(ctx context.Context, store portsrepo.Store, txn domain.Transaction) error {
	if err := txn.Validate(); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if err := accounting.ValidateSnapshot(txn); err != nil {
		return fmt.Errorf("refusing to record inconsistent entry: %w", err)
	}
	if err := store.Transactions().SaveTransaction(ctx, txn); err != nil {
		return fmt.Errorf("failed to save %s transaction: %w", txn.Type, err)
	}
	return nil
}
