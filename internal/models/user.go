package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// User is a row of the users table.
type User struct {
	UserID         string          `db:"user_id"`
	Name           string          `db:"name"`
	Email          string          `db:"email"`
	ReferrerID     sql.NullString  `db:"referrer_id"`
	ReferralStatus string          `db:"referral_status"`
	Discount       decimal.Decimal `db:"discount"`
	AuditFields
}
