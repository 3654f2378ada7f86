package dto

import (
	"time"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreditBalanceRequest adds admin funds to a user's balance.
type CreditBalanceRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required,dgt0"`
	Note   string          `json:"note" binding:"max=500"`
}

type BalanceResponse struct {
	UserID        string          `json:"userID"`
	AdminAdd      decimal.Decimal `json:"adminAdd"`
	MiningBalance decimal.Decimal `json:"miningBalance"`
	TotalBalance  decimal.Decimal `json:"totalBalance"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

// ToBalanceResponse converts a domain.Balance to its API shape.
func ToBalanceResponse(b *domain.Balance) BalanceResponse {
	return BalanceResponse{
		UserID:        b.UserID,
		AdminAdd:      b.AdminAdd,
		MiningBalance: b.MiningBalance,
		TotalBalance:  b.TotalBalance,
		LastUpdated:   b.LastUpdated,
	}
}

// CreditBalanceResponse is returned after an admin credit.
type CreditBalanceResponse struct {
	Balance     BalanceResponse     `json:"balance"`
	Transaction TransactionResponse `json:"transaction"`
}

// BalanceOverviewResponse is the balance view with its active positions.
type BalanceOverviewResponse struct {
	Balance            BalanceResponse        `json:"balance"`
	ActiveMachineCount int                    `json:"activeMachineCount"`
	MonthlyProfit      decimal.Decimal        `json:"monthlyProfit"`
	ActiveMachines     []domain.UserMachine   `json:"activeMachines"`
	ActiveShares       []domain.SharePurchase `json:"activeShares"`
}

// ToBalanceOverviewResponse converts a domain.BalanceOverview.
func ToBalanceOverviewResponse(o *domain.BalanceOverview) BalanceOverviewResponse {
	return BalanceOverviewResponse{
		Balance:            ToBalanceResponse(&o.Balance),
		ActiveMachineCount: o.ActiveMachineCount,
		MonthlyProfit:      o.MonthlyProfit,
		ActiveMachines:     o.ActiveMachines,
		ActiveShares:       o.ActiveShares,
	}
}

// ListBalancesParams defines pagination for the admin balance list.
type ListBalancesParams struct {
	Limit  int `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"omitempty,min=0"`
}

type ListBalancesResponse struct {
	Balances []BalanceResponse `json:"balances"`
}

// ToListBalancesResponse converts a slice of domain.Balance.
func ToListBalancesResponse(balances []domain.Balance) ListBalancesResponse {
	out := make([]BalanceResponse, len(balances))
	for i := range balances {
		out[i] = ToBalanceResponse(&balances[i])
	}
	return ListBalancesResponse{Balances: out}
}
