package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the transactions table. Metadata holds the raw
// JSONB payload; its shape depends on TransactionType.
type Transaction struct {
	TransactionID   string          `db:"transaction_id"`
	UserID          string          `db:"user_id"`
	Amount          decimal.Decimal `db:"amount"`
	TransactionType string          `db:"transaction_type"`
	Status          string          `db:"status"`
	BalanceBefore   decimal.Decimal `db:"balance_before"`
	BalanceAfter    decimal.Decimal `db:"balance_after"`
	Details         sql.NullString  `db:"details"`
	Metadata        []byte          `db:"metadata"`
	TransactionDate time.Time       `db:"transaction_date"`
	ProcessedBy     sql.NullString  `db:"processed_by"`
	ProcessedAt     sql.NullTime    `db:"processed_at"`
	AdminComment    sql.NullString  `db:"admin_comment"`
}
