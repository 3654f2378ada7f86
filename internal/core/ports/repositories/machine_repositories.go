package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
)

// UserMachineFilter narrows the operator listing of machine positions. Zero
// fields match every position.
type UserMachineFilter struct {
	UserID    string
	MachineID string
	Status    domain.PositionStatus
	Limit     int
	Offset    int
}

// MachineReader defines read operations for the catalog and machine positions
type MachineReader interface {
	FindMachineByID(ctx context.Context, machineID string) (*domain.Machine, error)
	ListMachines(ctx context.Context) ([]domain.Machine, error)

	FindUserMachineByID(ctx context.Context, userMachineID string) (*domain.UserMachine, error)

	// ListUserMachines retrieves a user's machine positions, optionally only active ones.
	ListUserMachines(ctx context.Context, userID string, activeOnly bool) ([]domain.UserMachine, error)

	// ListAllUserMachines retrieves one page of positions across all users,
	// newest first, and the number of positions matching filter.
	ListAllUserMachines(ctx context.Context, filter UserMachineFilter) ([]domain.UserMachine, int, error)

	// ListMachineAccrualOwners returns the distinct owners of active positions
	// whose accrual anchor is at or before cutoff, ordered by user id.
	ListMachineAccrualOwners(ctx context.Context, cutoff time.Time) ([]string, error)

	// ListDueUserMachines returns the active positions of userIDs whose accrual anchor is at or before cutoff.
	ListDueUserMachines(ctx context.Context, userIDs []string, cutoff time.Time) ([]domain.UserMachine, error)
}

// MachineWriter defines write operations for the catalog and machine positions
type MachineWriter interface {
	SaveMachine(ctx context.Context, machine domain.Machine) error

	// LockMachine retrieves a catalog entry and locks it for the rest of the session.
	LockMachine(ctx context.Context, machineID string) (*domain.Machine, error)

	SaveUserMachine(ctx context.Context, position domain.UserMachine) error

	// LockUserMachine retrieves a position and locks it for the rest of the session.
	LockUserMachine(ctx context.Context, userMachineID string) (*domain.UserMachine, error)

	// UpdateUserMachine stores status and accrual fields of a position.
	UpdateUserMachine(ctx context.Context, position domain.UserMachine) error
}

// MachineRepositoryFacade combines all machine-related repository interfaces
type MachineRepositoryFacade interface {
	MachineReader
	MachineWriter
}
