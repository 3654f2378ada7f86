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

type PgxShareRepository struct {
	BaseRepository
}

func newPgxShareRepository(db DBTX) *PgxShareRepository {
	return &PgxShareRepository{BaseRepository: BaseRepository{db: db}}
}

// Ensure PgxShareRepository implements portsrepo.ShareRepositoryFacade
var _ portsrepo.ShareRepositoryFacade = (*PgxShareRepository)(nil)

const sharePurchaseColumns = `share_purchase_id, user_id, machine_id, number_of_shares, price_per_share,
	profit_per_share, total_investment, status, purchase_date, last_profit_update, total_profit_earned`

func scanSharePurchase(row pgx.Row) (models.SharePurchase, error) {
	var m models.SharePurchase
	err := row.Scan(
		&m.SharePurchaseID,
		&m.UserID,
		&m.MachineID,
		&m.NumberOfShares,
		&m.PricePerShare,
		&m.ProfitPerShare,
		&m.TotalInvestment,
		&m.Status,
		&m.PurchaseDate,
		&m.LastProfitUpdate,
		&m.TotalProfitEarned,
	)
	return m, err
}

func (r *PgxShareRepository) findOne(ctx context.Context, query, sharePurchaseID string) (*domain.SharePurchase, error) {
	m, err := scanSharePurchase(r.db.QueryRow(ctx, query, sharePurchaseID))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to find share holding %s", sharePurchaseID))
	}
	holding := mapping.ToDomainSharePurchase(m)
	return &holding, nil
}

func collectSharePurchases(rows pgx.Rows) ([]domain.SharePurchase, error) {
	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SharePurchase, error) { return scanSharePurchase(row) })
	if err != nil {
		return nil, translateError(err, "failed to scan share holdings")
	}
	out := make([]domain.SharePurchase, len(ms))
	for i, m := range ms {
		out[i] = mapping.ToDomainSharePurchase(m)
	}
	return out, nil
}

func (r *PgxShareRepository) FindSharePurchaseByID(ctx context.Context, sharePurchaseID string) (*domain.SharePurchase, error) {
	return r.findOne(ctx, `SELECT `+sharePurchaseColumns+` FROM share_purchases WHERE share_purchase_id = $1;`, sharePurchaseID)
}

func (r *PgxShareRepository) ListSharePurchases(ctx context.Context, userID string, activeOnly bool) ([]domain.SharePurchase, error) {
	query := `
		SELECT ` + sharePurchaseColumns + `
		FROM share_purchases
		WHERE user_id = $1 AND (NOT $2 OR status = 'active')
		ORDER BY purchase_date, share_purchase_id;
	`
	rows, err := r.db.Query(ctx, query, userID, activeOnly)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to query share holdings for user %s", userID))
	}
	return collectSharePurchases(rows)
}

func (r *PgxShareRepository) CountActiveShares(ctx context.Context, machineID string) (int, error) {
	query := `
		SELECT COALESCE(SUM(number_of_shares), 0)
		FROM share_purchases
		WHERE machine_id = $1 AND status = 'active';
	`
	var n int
	if err := r.db.QueryRow(ctx, query, machineID).Scan(&n); err != nil {
		return 0, translateError(err, fmt.Sprintf("failed to count shares of machine %s", machineID))
	}
	return n, nil
}

func (r *PgxShareRepository) ListShareAccrualOwners(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM share_purchases
		WHERE status = 'active' AND COALESCE(last_profit_update, purchase_date) <= $1
		ORDER BY user_id;
	`
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, translateError(err, "failed to query share accrual owners")
	}
	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, translateError(err, "failed to scan share accrual owners")
	}
	return owners, nil
}

func (r *PgxShareRepository) ListDueSharePurchases(ctx context.Context, userIDs []string, cutoff time.Time) ([]domain.SharePurchase, error) {
	query := `
		SELECT ` + sharePurchaseColumns + `
		FROM share_purchases
		WHERE user_id = ANY($1::text[])
		  AND status = 'active'
		  AND COALESCE(last_profit_update, purchase_date) <= $2
		ORDER BY share_purchase_id;
	`
	rows, err := r.db.Query(ctx, query, userIDs, cutoff)
	if err != nil {
		return nil, translateError(err, "failed to query due share holdings")
	}
	return collectSharePurchases(rows)
}

func (r *PgxShareRepository) SaveSharePurchase(ctx context.Context, holding domain.SharePurchase) error {
	m := mapping.ToModelSharePurchase(holding)
	query := `
		INSERT INTO share_purchases (` + sharePurchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.db.Exec(ctx, query,
		m.SharePurchaseID,
		m.UserID,
		m.MachineID,
		m.NumberOfShares,
		m.PricePerShare,
		m.ProfitPerShare,
		m.TotalInvestment,
		m.Status,
		m.PurchaseDate,
		m.LastProfitUpdate,
		m.TotalProfitEarned,
	)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to save share holding %s", holding.SharePurchaseID))
	}
	return nil
}

func (r *PgxShareRepository) LockSharePurchase(ctx context.Context, sharePurchaseID string) (*domain.SharePurchase, error) {
	return r.findOne(ctx, `SELECT `+sharePurchaseColumns+` FROM share_purchases WHERE share_purchase_id = $1 FOR UPDATE;`, sharePurchaseID)
}

func (r *PgxShareRepository) UpdateSharePurchase(ctx context.Context, holding domain.SharePurchase) error {
	m := mapping.ToModelSharePurchase(holding)
	query := `
		UPDATE share_purchases
		SET number_of_shares = $2, total_investment = $3, status = $4,
		    last_profit_update = $5, total_profit_earned = $6
		WHERE share_purchase_id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		m.SharePurchaseID, m.NumberOfShares, m.TotalInvestment, m.Status, m.LastProfitUpdate, m.TotalProfitEarned)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to update share holding %s", holding.SharePurchaseID))
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("share holding %s: %w", holding.SharePurchaseID, apperrors.ErrNotFound)
	}
	return nil
}
