package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Balance is the per-user money record. TotalBalance is derived and always
// equals AdminAdd + MiningBalance.
type Balance struct {
	UserID        string          `json:"userID"`
	AdminAdd      decimal.Decimal `json:"adminAdd"`      // admin credits and purchase/sale adjustments, signed
	MiningBalance decimal.Decimal `json:"miningBalance"` // accrued profit
	TotalBalance  decimal.Decimal `json:"totalBalance"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

// NewBalance returns a zeroed balance for userID.
func NewBalance(userID string, now time.Time) Balance {
	return Balance{
		UserID:        userID,
		AdminAdd:      decimal.Zero,
		MiningBalance: decimal.Zero,
		TotalBalance:  decimal.Zero,
		LastUpdated:   now,
	}
}

// Consistent reports whether the derived total matches its components.
func (b Balance) Consistent() bool {
	return b.TotalBalance.Equal(b.AdminAdd.Add(b.MiningBalance))
}

// Apply returns a copy of b with both deltas applied and the total recomputed.
// The receiver is left untouched. A result with a negative total is rejected.
func (b Balance) Apply(adminDelta, miningDelta decimal.Decimal, now time.Time) (Balance, error) {
	next := b
	next.AdminAdd = RoundMoney(b.AdminAdd.Add(adminDelta))
	next.MiningBalance = RoundMoney(b.MiningBalance.Add(miningDelta))
	next.TotalBalance = next.AdminAdd.Add(next.MiningBalance)
	if next.TotalBalance.IsNegative() {
		return b, fmt.Errorf("%w: balance %s cannot cover %s", apperrors.ErrInsufficientFunds,
			b.TotalBalance.StringFixed(2), adminDelta.Add(miningDelta).Neg().StringFixed(2))
	}
	next.LastUpdated = now
	return next, nil
}

// DrawOrder splits a debit of amount into the deltas to apply: profit in
// MiningBalance is consumed first and the remainder comes out of AdminAdd.
// Both returned deltas are zero or negative.
func (b Balance) DrawOrder(amount decimal.Decimal) (adminDelta, miningDelta decimal.Decimal) {
	available := decimal.Max(b.MiningBalance, decimal.Zero)
	fromMining := decimal.Min(amount, available)
	rest := amount.Sub(fromMining)
	return rest.Neg(), fromMining.Neg()
}
