package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/mining_ledger/internal/models"
	"github.com/SscSPs/mining_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxMachineRepository struct {
	BaseRepository
}

func newPgxMachineRepository(db DBTX) *PgxMachineRepository {
	return &PgxMachineRepository{BaseRepository: BaseRepository{db: db}}
}

// Ensure PgxMachineRepository implements portsrepo.MachineRepositoryFacade
var _ portsrepo.MachineRepositoryFacade = (*PgxMachineRepository)(nil)

const machineColumns = `machine_id, name, price, monthly_profit, is_share_based, total_shares,
	share_price, profit_per_share, created_at, created_by, last_updated_at, last_updated_by`

const userMachineColumns = `user_machine_id, user_id, machine_id, purchase_price, status,
	assigned_date, last_profit_update, total_profit_earned`

func scanMachine(row pgx.Row) (models.Machine, error) {
	var m models.Machine
	err := row.Scan(
		&m.MachineID,
		&m.Name,
		&m.Price,
		&m.MonthlyProfit,
		&m.IsShareBased,
		&m.TotalShares,
		&m.SharePrice,
		&m.ProfitPerShare,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func scanUserMachine(row pgx.Row) (models.UserMachine, error) {
	var m models.UserMachine
	err := row.Scan(
		&m.UserMachineID,
		&m.UserID,
		&m.MachineID,
		&m.PurchasePrice,
		&m.Status,
		&m.AssignedDate,
		&m.LastProfitUpdate,
		&m.TotalProfitEarned,
	)
	return m, err
}

func (r *PgxMachineRepository) findMachine(ctx context.Context, query, machineID string) (*domain.Machine, error) {
	m, err := scanMachine(r.db.QueryRow(ctx, query, machineID))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to find machine %s", machineID))
	}
	machine := mapping.ToDomainMachine(m)
	return &machine, nil
}

func (r *PgxMachineRepository) findUserMachine(ctx context.Context, query, userMachineID string) (*domain.UserMachine, error) {
	m, err := scanUserMachine(r.db.QueryRow(ctx, query, userMachineID))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to find machine position %s", userMachineID))
	}
	position := mapping.ToDomainUserMachine(m)
	return &position, nil
}

func collectUserMachines(rows pgx.Rows) ([]domain.UserMachine, error) {
	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.UserMachine, error) { return scanUserMachine(row) })
	if err != nil {
		return nil, translateError(err, "failed to scan machine positions")
	}
	out := make([]domain.UserMachine, len(ms))
	for i, m := range ms {
		out[i] = mapping.ToDomainUserMachine(m)
	}
	return out, nil
}

func (r *PgxMachineRepository) FindMachineByID(ctx context.Context, machineID string) (*domain.Machine, error) {
	return r.findMachine(ctx, `SELECT `+machineColumns+` FROM machines WHERE machine_id = $1;`, machineID)
}

func (r *PgxMachineRepository) ListMachines(ctx context.Context) ([]domain.Machine, error) {
	rows, err := r.db.Query(ctx, `SELECT `+machineColumns+` FROM machines ORDER BY name, machine_id;`)
	if err != nil {
		return nil, translateError(err, "failed to query machines")
	}
	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Machine, error) { return scanMachine(row) })
	if err != nil {
		return nil, translateError(err, "failed to scan machines")
	}
	out := make([]domain.Machine, len(ms))
	for i, m := range ms {
		out[i] = mapping.ToDomainMachine(m)
	}
	return out, nil
}

func (r *PgxMachineRepository) FindUserMachineByID(ctx context.Context, userMachineID string) (*domain.UserMachine, error) {
	return r.findUserMachine(ctx, `SELECT `+userMachineColumns+` FROM user_machines WHERE user_machine_id = $1;`, userMachineID)
}

func (r *PgxMachineRepository) ListUserMachines(ctx context.Context, userID string, activeOnly bool) ([]domain.UserMachine, error) {
	query := `
		SELECT ` + userMachineColumns + `
		FROM user_machines
		WHERE user_id = $1 AND (NOT $2 OR status = 'active')
		ORDER BY assigned_date, user_machine_id;
	`
	rows, err := r.db.Query(ctx, query, userID, activeOnly)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to query machine positions for user %s", userID))
	}
	return collectUserMachines(rows)
}

func (r *PgxMachineRepository) ListAllUserMachines(ctx context.Context, filter portsrepo.UserMachineFilter) ([]domain.UserMachine, int, error) {
	const where = `
		WHERE ($1::text = '' OR user_id = $1)
		  AND ($2::text = '' OR machine_id = $2)
		  AND ($3::text = '' OR status = $3)
	`
	args := []any{filter.UserID, filter.MachineID, string(filter.Status)}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_machines`+where+`;`, args...).Scan(&total); err != nil {
		return nil, 0, translateError(err, "failed to count machine positions")
	}

	var limit *int
	if filter.Limit > 0 {
		limit = &filter.Limit
	}
	query := `SELECT ` + userMachineColumns + ` FROM user_machines` + where + `
		ORDER BY assigned_date DESC, user_machine_id DESC
		LIMIT $4 OFFSET $5;
	`
	rows, err := r.db.Query(ctx, query, append(args, limit, filter.Offset)...)
	if err != nil {
		return nil, 0, translateError(err, "failed to query machine positions")
	}
	positions, err := collectUserMachines(rows)
	if err != nil {
		return nil, 0, err
	}
	return positions, total, nil
}

func (r *PgxMachineRepository) ListMachineAccrualOwners(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM user_machines
		WHERE status = 'active' AND COALESCE(last_profit_update, assigned_date) <= $1
		ORDER BY user_id;
	`
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, translateError(err, "failed to query machine accrual owners")
	}
	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, translateError(err, "failed to scan machine accrual owners")
	}
	return owners, nil
}

func (r *PgxMachineRepository) ListDueUserMachines(ctx context.Context, userIDs []string, cutoff time.Time) ([]domain.UserMachine, error) {
	query := `
		SELECT ` + userMachineColumns + `
		FROM user_machines
		WHERE user_id = ANY($1::text[])
		  AND status = 'active'
		  AND COALESCE(last_profit_update, assigned_date) <= $2
		ORDER BY user_machine_id;
	`
	rows, err := r.db.Query(ctx, query, userIDs, cutoff)
	if err != nil {
		return nil, translateError(err, "failed to query due machine positions")
	}
	return collectUserMachines(rows)
}

func (r *PgxMachineRepository) SaveMachine(ctx context.Context, machine domain.Machine) error {
	m := mapping.ToModelMachine(machine)
	query := `
		INSERT INTO machines (` + machineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.db.Exec(ctx, query,
		m.MachineID,
		m.Name,
		m.Price,
		m.MonthlyProfit,
		m.IsShareBased,
		m.TotalShares,
		m.SharePrice,
		m.ProfitPerShare,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to save machine %s", machine.MachineID))
	}
	return nil
}

func (r *PgxMachineRepository) LockMachine(ctx context.Context, machineID string) (*domain.Machine, error) {
	return r.findMachine(ctx, `SELECT `+machineColumns+` FROM machines WHERE machine_id = $1 FOR UPDATE;`, machineID)
}

func (r *PgxMachineRepository) SaveUserMachine(ctx context.Context, position domain.UserMachine) error {
	m := mapping.ToModelUserMachine(position)
	query := `
		INSERT INTO user_machines (` + userMachineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.db.Exec(ctx, query,
		m.UserMachineID,
		m.UserID,
		m.MachineID,
		m.PurchasePrice,
		m.Status,
		m.AssignedDate,
		m.LastProfitUpdate,
		m.TotalProfitEarned,
	)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to save machine position %s", position.UserMachineID))
	}
	return nil
}

func (r *PgxMachineRepository) LockUserMachine(ctx context.Context, userMachineID string) (*domain.UserMachine, error) {
	return r.findUserMachine(ctx, `SELECT `+userMachineColumns+` FROM user_machines WHERE user_machine_id = $1 FOR UPDATE;`, userMachineID)
}

func (r *PgxMachineRepository) UpdateUserMachine(ctx context.Context, position domain.UserMachine) error {
	m := mapping.ToModelUserMachine(position)
	query := `
		UPDATE user_machines
		SET status = $2, last_profit_update = $3, total_profit_earned = $4
		WHERE user_machine_id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, m.UserMachineID, m.Status, m.LastProfitUpdate, m.TotalProfitEarned)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to update machine position %s", position.UserMachineID))
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("machine position %s: %w", position.UserMachineID, apperrors.ErrNotFound)
	}
	return nil
}
