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

type PgxBalanceRepository struct {
	BaseRepository
}

func newPgxBalanceRepository(db DBTX) *PgxBalanceRepository {
	return &PgxBalanceRepository{BaseRepository: BaseRepository{db: db}}
}

// Ensure PgxBalanceRepository implements portsrepo.BalanceRepositoryFacade
var _ portsrepo.BalanceRepositoryFacade = (*PgxBalanceRepository)(nil)

const balanceColumns = `user_id, admin_add, mining_balance, total_balance, last_updated`

func scanBalance(row pgx.Row) (models.Balance, error) {
	var m models.Balance
	err := row.Scan(&m.UserID, &m.AdminAdd, &m.MiningBalance, &m.TotalBalance, &m.LastUpdated)
	return m, err
}

func (r *PgxBalanceRepository) FindBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE user_id = $1;`
	m, err := scanBalance(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to find balance for user %s", userID))
	}
	b := mapping.ToDomainBalance(m)
	return &b, nil
}

func (r *PgxBalanceRepository) ListBalances(ctx context.Context, limit int, offset int) ([]domain.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balances
		ORDER BY last_updated DESC, user_id
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, translateError(err, "failed to query balances")
	}
	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Balance, error) { return scanBalance(row) })
	if err != nil {
		return nil, translateError(err, "failed to scan balances")
	}
	out := make([]domain.Balance, len(ms))
	for i, m := range ms {
		out[i] = mapping.ToDomainBalance(m)
	}
	return out, nil
}

// GetOrCreateBalance inserts a zeroed row if needed and then locks it. Two
// sessions racing on a first touch both land on the single row, one of them
// blocking on the lock.
func (r *PgxBalanceRepository) GetOrCreateBalance(ctx context.Context, userID string, now time.Time) (*domain.Balance, error) {
	insert := `
		INSERT INTO balances (user_id, admin_add, mining_balance, total_balance, last_updated)
		VALUES ($1, 0, 0, 0, $2)
		ON CONFLICT (user_id) DO NOTHING;
	`
	if _, err := r.db.Exec(ctx, insert, userID, now); err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to create balance for user %s", userID))
	}

	query := `SELECT ` + balanceColumns + ` FROM balances WHERE user_id = $1 FOR UPDATE;`
	m, err := scanBalance(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to lock balance for user %s", userID))
	}
	b := mapping.ToDomainBalance(m)
	return &b, nil
}

func (r *PgxBalanceRepository) UpdateBalance(ctx context.Context, balance domain.Balance) error {
	m := mapping.ToModelBalance(balance)
	query := `
		UPDATE balances
		SET admin_add = $2, mining_balance = $3, total_balance = $4, last_updated = $5
		WHERE user_id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, m.UserID, m.AdminAdd, m.MiningBalance, m.TotalBalance, m.LastUpdated)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to update balance for user %s", balance.UserID))
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("balance for user %s: %w", balance.UserID, apperrors.ErrNotFound)
	}
	return nil
}
