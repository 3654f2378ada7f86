package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType names the balance-affecting event a ledger entry records.
type TransactionType string

const (
	TxAdminAdd        TransactionType = "ADMIN_ADD"
	TxMachinePurchase TransactionType = "MACHINE_PURCHASE"
	TxMachineSale     TransactionType = "MACHINE_SALE"
	TxSharePurchase   TransactionType = "SHARE_PURCHASE"
	TxShareSale       TransactionType = "SHARE_SALE"
	TxShareProfit     TransactionType = "SHARE_PROFIT"
	TxMachineProfit   TransactionType = "profit"
	TxWithdrawal      TransactionType = "withdrawal"
	TxReferralBonus   TransactionType = "REFERRAL_BONUS"
)

var transactionTypes = map[TransactionType]bool{
	TxAdminAdd:        true,
	TxMachinePurchase: false,
	TxMachineSale:     true,
	TxSharePurchase:   false,
	TxShareSale:       true,
	TxShareProfit:     true,
	TxMachineProfit:   true,
	TxWithdrawal:      false,
	TxReferralBonus:   true,
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	_, ok := transactionTypes[t]
	return ok
}

// IsCredit reports whether the type adds money to the balance.
func (t TransactionType) IsCredit() bool {
	return transactionTypes[t]
}

// TransactionStatus is the lifecycle state of a ledger entry.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusApproved  TransactionStatus = "approved"
	StatusCompleted TransactionStatus = "completed"
	StatusRejected  TransactionStatus = "rejected"
)

// IsTerminal reports whether no further status transition is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s != StatusPending
}

// Transaction is an append-only ledger entry. Amount is always positive; the
// direction comes from Type.
type Transaction struct {
	TransactionID   string              `json:"transactionID"`
	UserID          string              `json:"userID"`
	Amount          decimal.Decimal     `json:"amount"`
	Type            TransactionType     `json:"type"`
	Status          TransactionStatus   `json:"status"`
	BalanceBefore   decimal.Decimal     `json:"balanceBefore"`
	BalanceAfter    decimal.Decimal     `json:"balanceAfter"`
	Details         string              `json:"details,omitempty"`
	Metadata        TransactionMetadata `json:"metadata"`
	TransactionDate time.Time           `json:"transactionDate"`
	ProcessedBy     *string             `json:"processedBy,omitempty"`
	ProcessedAt     *time.Time          `json:"processedAt,omitempty"`
	AdminComment    *string             `json:"adminComment,omitempty"`
}

// Validate checks the fields every stored transaction must satisfy.
func (t Transaction) Validate() error {
	if t.UserID == "" {
		return fmt.Errorf("transaction user is required")
	}
	if !t.Type.Valid() {
		return fmt.Errorf("unknown transaction type %q", t.Type)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("transaction amount must be positive, got %s", t.Amount)
	}
	if t.Metadata == nil {
		return fmt.Errorf("transaction %s has no metadata", t.Type)
	}
	if t.Metadata.MetadataKind() != t.Type {
		return fmt.Errorf("metadata kind %s does not match transaction type %s", t.Metadata.MetadataKind(), t.Type)
	}
	return nil
}

// WithdrawalStat aggregates withdrawals sharing a status.
type WithdrawalStat struct {
	Status TransactionStatus `json:"status"`
	Count  int               `json:"count"`
	Total  decimal.Decimal   `json:"total"`
}

// WithdrawalDecision is the reviewer's verdict on a pending withdrawal.
type WithdrawalDecision string

const (
	DecisionApproved WithdrawalDecision = "approved"
	DecisionRejected WithdrawalDecision = "rejected"
)

// Valid reports whether d is one of the two allowed verdicts.
func (d WithdrawalDecision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}
