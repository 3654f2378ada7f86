package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus is the lifecycle state of an owned asset.
type PositionStatus string

const (
	PositionActive   PositionStatus = "active"
	PositionInactive PositionStatus = "inactive"
)

// UserMachine is one owned unit of a whole machine.
type UserMachine struct {
	UserMachineID     string          `json:"userMachineID"`
	UserID            string          `json:"userID"`
	MachineID         string          `json:"machineID"`
	PurchasePrice     decimal.Decimal `json:"purchasePrice"`
	Status            PositionStatus  `json:"status"`
	AssignedDate      time.Time       `json:"assignedDate"`
	LastProfitUpdate  *time.Time      `json:"lastProfitUpdate,omitempty"`
	TotalProfitEarned decimal.Decimal `json:"totalProfitEarned"`
}

// AccrualAnchor is the instant the next accrual period is measured from.
func (m UserMachine) AccrualAnchor() time.Time {
	if m.LastProfitUpdate != nil {
		return *m.LastProfitUpdate
	}
	return m.AssignedDate
}

// DueForAccrual reports whether a full period has elapsed since the anchor.
func (m UserMachine) DueForAccrual(now time.Time, period time.Duration) bool {
	return m.Status == PositionActive && !now.Before(m.AccrualAnchor().Add(period))
}

// SharePurchase is an aggregated holding of shares in one share-based machine.
type SharePurchase struct {
	SharePurchaseID   string          `json:"sharePurchaseID"`
	UserID            string          `json:"userID"`
	MachineID         string          `json:"machineID"`
	NumberOfShares    int             `json:"numberOfShares"`
	PricePerShare     decimal.Decimal `json:"pricePerShare"`
	ProfitPerShare    decimal.Decimal `json:"profitPerShare"`
	TotalInvestment   decimal.Decimal `json:"totalInvestment"`
	Status            PositionStatus  `json:"status"`
	PurchaseDate      time.Time       `json:"purchaseDate"`
	LastProfitUpdate  *time.Time      `json:"lastProfitUpdate,omitempty"`
	TotalProfitEarned decimal.Decimal `json:"totalProfitEarned"`
}

// AccrualAnchor is the instant the next accrual period is measured from.
func (s SharePurchase) AccrualAnchor() time.Time {
	if s.LastProfitUpdate != nil {
		return *s.LastProfitUpdate
	}
	return s.PurchaseDate
}

// DueForAccrual reports whether a full period has elapsed since the anchor.
func (s SharePurchase) DueForAccrual(now time.Time, period time.Duration) bool {
	return s.Status == PositionActive && !now.Before(s.AccrualAnchor().Add(period))
}

// PeriodProfit is the amount one accrual period credits for this holding.
func (s SharePurchase) PeriodProfit() decimal.Decimal {
	return RoundMoney(s.ProfitPerShare.Mul(decimal.NewFromInt(int64(s.NumberOfShares))))
}

// SharePositionView pairs a holding with the time it next accrues.
type SharePositionView struct {
	SharePurchase
	NextProfitUpdate time.Time `json:"nextProfitUpdate"`
}

// ShareSummary aggregates a user's share holdings.
type ShareSummary struct {
	Positions         []SharePositionView `json:"positions"`
	TotalShares       int                 `json:"totalShares"`
	TotalInvestment   decimal.Decimal     `json:"totalInvestment"`
	TotalProfitEarned decimal.Decimal     `json:"totalProfitEarned"`
}

// BalanceOverview is a balance plus the active positions feeding it.
type BalanceOverview struct {
	Balance            Balance         `json:"balance"`
	ActiveMachines     []UserMachine   `json:"activeMachines"`
	ActiveShares       []SharePurchase `json:"activeShares"`
	MonthlyProfit      decimal.Decimal `json:"monthlyProfit"`
	ActiveMachineCount int             `json:"activeMachineCount"`
}

// PurchaseResult is returned by a successful machine or share purchase.
type PurchaseResult struct {
	Transaction      Transaction     `json:"transaction"`
	Balance          Balance         `json:"balance"`
	Machines         []UserMachine   `json:"machines,omitempty"`
	Shares           *SharePurchase  `json:"shares,omitempty"`
	BonusPercentage  decimal.Decimal `json:"bonusPercentage"`
	ReferrerCredited bool            `json:"referrerCredited"`
}

// SaleResult is returned by a successful machine or share sale.
type SaleResult struct {
	Transaction    Transaction     `json:"transaction"`
	Balance        Balance         `json:"balance"`
	SoldUnits      int             `json:"soldUnits"`
	RemainingUnits int             `json:"remainingUnits"`
	SellingPrice   decimal.Decimal `json:"sellingPrice"`
	Deduction      decimal.Decimal `json:"deduction"`
}

// AssetKind distinguishes whole machines from share holdings.
type AssetKind string

const (
	AssetMachine AssetKind = "machine"
	AssetShare   AssetKind = "share"
)

// PurchaseEligibility reports whether a user could place an order right now.
// It is a read-only estimate; the purchase itself checks funds and capacity again.
type PurchaseEligibility struct {
	CanPurchase     bool            `json:"canPurchase"`
	Reason          string          `json:"reason,omitempty"`
	MachineID       string          `json:"machineID"`
	MachineName     string          `json:"machineName"`
	IsShareBased    bool            `json:"isShareBased"`
	Quantity        int             `json:"quantity"`
	PricePerUnit    decimal.Decimal `json:"pricePerUnit"`
	RequiredAmount  decimal.Decimal `json:"requiredAmount"`
	UserBalance     decimal.Decimal `json:"userBalance"`
	Shortfall       decimal.Decimal `json:"shortfall"`
	AvailableShares *int            `json:"availableShares,omitempty"`
}
