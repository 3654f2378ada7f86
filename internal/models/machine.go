package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Machine is a row of the machines catalog.
type Machine struct {
	MachineID      string          `db:"machine_id"`
	Name           string          `db:"name"`
	Price          decimal.Decimal `db:"price"`
	MonthlyProfit  decimal.Decimal `db:"monthly_profit"`
	IsShareBased   bool            `db:"is_share_based"`
	TotalShares    int             `db:"total_shares"`
	SharePrice     decimal.Decimal `db:"share_price"`
	ProfitPerShare decimal.Decimal `db:"profit_per_share"`
	AuditFields
}

// UserMachine is a row of user_machines.
type UserMachine struct {
	UserMachineID     string          `db:"user_machine_id"`
	UserID            string          `db:"user_id"`
	MachineID         string          `db:"machine_id"`
	PurchasePrice     decimal.Decimal `db:"purchase_price"`
	Status            string          `db:"status"`
	AssignedDate      time.Time       `db:"assigned_date"`
	LastProfitUpdate  sql.NullTime    `db:"last_profit_update"`
	TotalProfitEarned decimal.Decimal `db:"total_profit_earned"`
}

// SharePurchase is a row of share_purchases.
type SharePurchase struct {
	SharePurchaseID   string          `db:"share_purchase_id"`
	UserID            string          `db:"user_id"`
	MachineID         string          `db:"machine_id"`
	NumberOfShares    int             `db:"number_of_shares"`
	PricePerShare     decimal.Decimal `db:"price_per_share"`
	ProfitPerShare    decimal.Decimal `db:"profit_per_share"`
	TotalInvestment   decimal.Decimal `db:"total_investment"`
	Status            string          `db:"status"`
	PurchaseDate      time.Time       `db:"purchase_date"`
	LastProfitUpdate  sql.NullTime    `db:"last_profit_update"`
	TotalProfitEarned decimal.Decimal `db:"total_profit_earned"`
}
