package dto

import (
	"time"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateWithdrawalRequest asks for funds to be paid out to an external wallet.
// The wallet address is an opaque destination; it is not validated against any chain.
type CreateWithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required,dgt0"`
	WalletAddress string          `json:"walletAddress" binding:"required,max=200"`
	Network       string          `json:"network" binding:"required,max=50"`
}

// WithdrawalDecisionRequest is a reviewer's verdict on a pending withdrawal.
type WithdrawalDecisionRequest struct {
	Decision domain.WithdrawalDecision `json:"decision" binding:"required,oneof=approved rejected"`
	Comment  string                    `json:"comment" binding:"max=1000"`
}

// WithdrawalDecisionResponse is returned after a decision.
type WithdrawalDecisionResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Balance     *BalanceResponse    `json:"balance,omitempty"`
}

// ListPendingParams pages the pending withdrawal queue.
type ListPendingParams struct {
	Limit  int `form:"limit,default=50" binding:"omitempty,min=1,max=200"`
	Offset int `form:"offset,default=0" binding:"omitempty,min=0"`
}

type WithdrawalStatsResponse struct {
	Stats []domain.WithdrawalStat `json:"stats"`
}

// ListWithdrawalsParams filters the operator view of all withdrawals. From and
// To are RFC 3339 instants bounding the request date.
type ListWithdrawalsParams struct {
	Status string    `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	From   time.Time `form:"from"`
	To     time.Time `form:"to"`
	Sort   string    `form:"sort,default=desc" binding:"omitempty,oneof=asc desc"`
	Limit  int       `form:"limit,default=50" binding:"omitempty,min=1,max=200"`
	Offset int       `form:"offset,default=0" binding:"omitempty,min=0"`
}

type ListWithdrawalsResponse struct {
	Withdrawals []TransactionResponse `json:"withdrawals"`
	Total       int                   `json:"total"`
	TotalAmount decimal.Decimal       `json:"totalAmount"`
	Limit       int                   `json:"limit"`
	Offset      int                   `json:"offset"`
}
