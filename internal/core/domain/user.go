package domain

import "github.com/shopspring/decimal"

// ReferralStatus tracks whether a referred user has made a purchase yet.
type ReferralStatus string

const (
	ReferralPending ReferralStatus = "pending"
	ReferralActive  ReferralStatus = "active"
)

// User is the slice of identity data the ledger needs: contact details,
// referral linkage and the accumulated purchase discount.
type User struct {
	UserID         string          `json:"userID"` // Primary Key (e.g., UUID)
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	ReferrerID     *string         `json:"referrerID,omitempty"`
	ReferralStatus ReferralStatus  `json:"referralStatus"`
	Discount       decimal.Decimal `json:"discount"`
	AuditFields
}
