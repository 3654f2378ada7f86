package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
)

// ShareReader defines read operations for share holdings
type ShareReader interface {
	FindSharePurchaseByID(ctx context.Context, sharePurchaseID string) (*domain.SharePurchase, error)

	// ListSharePurchases retrieves a user's holdings, optionally only active ones.
	ListSharePurchases(ctx context.Context, userID string, activeOnly bool) ([]domain.SharePurchase, error)

	// CountActiveShares sums the shares held in active holdings of a share class.
	CountActiveShares(ctx context.Context, machineID string) (int, error)

	// ListShareAccrualOwners returns the distinct owners of active holdings
	// whose accrual anchor is at or before cutoff, ordered by user id.
	ListShareAccrualOwners(ctx context.Context, cutoff time.Time) ([]string, error)

	// ListDueSharePurchases returns the active holdings of userIDs whose accrual anchor is at or before cutoff.
	ListDueSharePurchases(ctx context.Context, userIDs []string, cutoff time.Time) ([]domain.SharePurchase, error)
}

// ShareWriter defines write operations for share holdings
type ShareWriter interface {
	SaveSharePurchase(ctx context.Context, holding domain.SharePurchase) error

	// LockSharePurchase retrieves a holding and locks it for the rest of the session.
	LockSharePurchase(ctx context.Context, sharePurchaseID string) (*domain.SharePurchase, error)

	// UpdateSharePurchase stores share count, investment, status and accrual fields.
	UpdateSharePurchase(ctx context.Context, holding domain.SharePurchase) error
}

// ShareRepositoryFacade combines all share-related repository interfaces
type ShareRepositoryFacade interface {
	ShareReader
	ShareWriter
}
