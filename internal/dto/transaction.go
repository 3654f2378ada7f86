package dto

import (
	"time"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ListTransactionsParams defines query parameters for a user's history.
type ListTransactionsParams struct {
	Type      string `form:"type"`
	Limit     int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken string `form:"nextToken"`
}

// ListTransactionsResponse wraps one page of history.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// TransactionResponse is the API shape of a ledger entry. Metadata is the
// type-specific payload.
type TransactionResponse struct {
	TransactionID   string                   `json:"transactionID"`
	UserID          string                   `json:"userID"`
	Amount          decimal.Decimal          `json:"amount"`
	Type            domain.TransactionType   `json:"type"`
	Status          domain.TransactionStatus `json:"status"`
	BalanceBefore   decimal.Decimal          `json:"balanceBefore"`
	BalanceAfter    decimal.Decimal          `json:"balanceAfter"`
	Details         string                   `json:"details,omitempty"`
	Metadata        any                      `json:"metadata"`
	TransactionDate time.Time                `json:"transactionDate"`
	ProcessedBy     *string                  `json:"processedBy,omitempty"`
	ProcessedAt     *time.Time               `json:"processedAt,omitempty"`
	AdminComment    *string                  `json:"adminComment,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to its API shape.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   t.TransactionID,
		UserID:          t.UserID,
		Amount:          t.Amount,
		Type:            t.Type,
		Status:          t.Status,
		BalanceBefore:   t.BalanceBefore,
		BalanceAfter:    t.BalanceAfter,
		Details:         t.Details,
		Metadata:        t.Metadata,
		TransactionDate: t.TransactionDate,
		ProcessedBy:     t.ProcessedBy,
		ProcessedAt:     t.ProcessedAt,
		AdminComment:    t.AdminComment,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i])
	}
	return out
}
