package services

import (
	"context"
)

// AccrualSvc credits profit to positions whose accrual period has elapsed.
type AccrualSvc interface {
	// RunAccrualBatch credits every due position and returns how many were credited.
	RunAccrualBatch(ctx context.Context) (int, error)
}
