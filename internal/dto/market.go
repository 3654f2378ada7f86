package dto

import (
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateMachineRequest adds an entry to the machine catalog. Share-based
// machines require TotalShares, SharePrice and ProfitPerShare; whole machines
// require Price.
type CreateMachineRequest struct {
	Name           string          `json:"name" binding:"required,max=200"`
	Price          decimal.Decimal `json:"price"`
	MonthlyProfit  decimal.Decimal `json:"monthlyProfit"`
	IsShareBased   bool            `json:"isShareBased"`
	TotalShares    int             `json:"totalShares" binding:"omitempty,min=1"`
	SharePrice     decimal.Decimal `json:"sharePrice"`
	ProfitPerShare decimal.Decimal `json:"profitPerShare"`
}

// PurchaseRequest buys units of a machine or shares of a share class.
type PurchaseRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=1000"`
}

// SellRequest sells units of an owned position. Whole-machine positions hold one unit.
type SellRequest struct {
	Quantity int `json:"quantity" binding:"omitempty,min=1"`
}

type PurchaseResponse struct {
	Transaction      TransactionResponse   `json:"transaction"`
	Balance          BalanceResponse       `json:"balance"`
	Machines         []domain.UserMachine  `json:"machines,omitempty"`
	Shares           *domain.SharePurchase `json:"shares,omitempty"`
	BonusPercentage  decimal.Decimal       `json:"bonusPercentage"`
	ReferrerCredited bool                  `json:"referrerCredited"`
}

// ToPurchaseResponse converts a domain.PurchaseResult.
func ToPurchaseResponse(r *domain.PurchaseResult) PurchaseResponse {
	return PurchaseResponse{
		Transaction:      ToTransactionResponse(&r.Transaction),
		Balance:          ToBalanceResponse(&r.Balance),
		Machines:         r.Machines,
		Shares:           r.Shares,
		BonusPercentage:  r.BonusPercentage,
		ReferrerCredited: r.ReferrerCredited,
	}
}

type SaleResponse struct {
	Transaction    TransactionResponse `json:"transaction"`
	Balance        BalanceResponse     `json:"balance"`
	SoldUnits      int                 `json:"soldUnits"`
	RemainingUnits int                 `json:"remainingUnits"`
	SellingPrice   decimal.Decimal     `json:"sellingPrice"`
	Deduction      decimal.Decimal     `json:"deduction"`
}

// ToSaleResponse converts a domain.SaleResult.
func ToSaleResponse(r *domain.SaleResult) SaleResponse {
	return SaleResponse{
		Transaction:    ToTransactionResponse(&r.Transaction),
		Balance:        ToBalanceResponse(&r.Balance),
		SoldUnits:      r.SoldUnits,
		RemainingUnits: r.RemainingUnits,
		SellingPrice:   r.SellingPrice,
		Deduction:      r.Deduction,
	}
}

// ListMachinesResponse wraps the catalog.
type ListMachinesResponse struct {
	Machines []domain.Machine `json:"machines"`
}

// ListUserMachinesParams filters a user's machine positions.
type ListUserMachinesParams struct {
	ActiveOnly bool `form:"activeOnly,default=true"`
}

type ListUserMachinesResponse struct {
	Machines []domain.UserMachine `json:"machines"`
}

// EligibilityParams sizes the order being checked.
type EligibilityParams struct {
	Quantity int `form:"quantity,default=1" binding:"omitempty,min=1,max=1000"`
}

// ListAllUserMachinesParams filters the operator view of machine positions.
type ListAllUserMachinesParams struct {
	UserID    string `form:"userID" binding:"omitempty,max=64"`
	MachineID string `form:"machineID" binding:"omitempty,max=64"`
	Status    string `form:"status" binding:"omitempty,oneof=active inactive"`
	Limit     int    `form:"limit,default=50" binding:"omitempty,min=1,max=200"`
	Offset    int    `form:"offset,default=0" binding:"omitempty,min=0"`
}

type ListAllUserMachinesResponse struct {
	Machines []domain.UserMachine `json:"machines"`
	Total    int                  `json:"total"`
	Limit    int                  `json:"limit"`
	Offset   int                  `json:"offset"`
}
