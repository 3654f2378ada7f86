package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is a row of the balances table. total_balance is stored alongside
// its components so readers never recompute it.
type Balance struct {
	UserID        string          `db:"user_id"`
	AdminAdd      decimal.Decimal `db:"admin_add"`
	MiningBalance decimal.Decimal `db:"mining_balance"`
	TotalBalance  decimal.Decimal `db:"total_balance"`
	LastUpdated   time.Time       `db:"last_updated"`
}
