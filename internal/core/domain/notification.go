package domain

import "time"

// NotificationKind names an event announced after a ledger commit.
type NotificationKind string

const (
	NotifyPurchaseConfirmed   NotificationKind = "purchase.confirmed"
	NotifySaleConfirmed       NotificationKind = "sale.confirmed"
	NotifyWithdrawalRequested NotificationKind = "withdrawal.requested"
	NotifyWithdrawalDecided   NotificationKind = "withdrawal.decided"
	NotifyProfitCredited      NotificationKind = "profit.credited"
)

// Notification is a fire-and-forget message about a committed ledger change.
type Notification struct {
	Kind          NotificationKind `json:"kind"`
	UserID        string           `json:"userID"`
	Email         string           `json:"email,omitempty"`
	TransactionID string           `json:"transactionID,omitempty"`
	Subject       string           `json:"subject"`
	Data          map[string]any   `json:"data,omitempty"`
	OccurredAt    time.Time        `json:"occurredAt"`
}
