package domain

import "github.com/shopspring/decimal"

// MaxOrderQuantity caps the units or shares bought in one purchase.
const MaxOrderQuantity = 1000

// Machine is a catalog entry. A share-based machine is sold in fractional
// shares out of a fixed TotalShares capacity instead of whole units.
type Machine struct {
	MachineID      string          `json:"machineID"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`         // unit price of a whole machine
	MonthlyProfit  decimal.Decimal `json:"monthlyProfit"` // credited per accrual period per unit
	IsShareBased   bool            `json:"isShareBased"`
	TotalShares    int             `json:"totalShares"`
	SharePrice     decimal.Decimal `json:"sharePrice"`
	ProfitPerShare decimal.Decimal `json:"profitPerShare"`
	AuditFields
}
