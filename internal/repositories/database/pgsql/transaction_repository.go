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
	"github.com/shopspring/decimal"
)

type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(db DBTX) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{db: db}}
}

// Ensure PgxTransactionRepository implements portsrepo.TransactionRepositoryFacade
var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

const transactionColumns = `transaction_id, user_id, amount, transaction_type, status, balance_before,
	balance_after, details, metadata, transaction_date, processed_by, processed_at, admin_comment`

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.UserID,
		&m.Amount,
		&m.TransactionType,
		&m.Status,
		&m.BalanceBefore,
		&m.BalanceAfter,
		&m.Details,
		&m.Metadata,
		&m.TransactionDate,
		&m.ProcessedBy,
		&m.ProcessedAt,
		&m.AdminComment,
	)
	return m, err
}

func (r *PgxTransactionRepository) findOne(ctx context.Context, query string, transactionID string) (*domain.Transaction, error) {
	m, err := scanTransaction(r.db.QueryRow(ctx, query, transactionID))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to find transaction %s", transactionID))
	}
	txn, err := mapping.ToDomainTransaction(m)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *PgxTransactionRepository) collect(rows pgx.Rows) ([]domain.Transaction, error) {
	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) { return scanTransaction(row) })
	if err != nil {
		return nil, translateError(err, "failed to scan transactions")
	}
	return mapping.ToDomainTransactionSlice(ms)
}

func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	return r.findOne(ctx, query, transactionID)
}

func (r *PgxTransactionRepository) CountTransactions(ctx context.Context, userID string, txType domain.TransactionType, status domain.TransactionStatus) (int, error) {
	query := `
		SELECT COUNT(*) FROM transactions
		WHERE user_id = $1 AND transaction_type = $2 AND status = $3;
	`
	var n int
	if err := r.db.QueryRow(ctx, query, userID, string(txType), string(status)).Scan(&n); err != nil {
		return 0, translateError(err, fmt.Sprintf("failed to count %s transactions for user %s", txType, userID))
	}
	return n, nil
}

func (r *PgxTransactionRepository) ListUserTransactions(ctx context.Context, userID string, filter portsrepo.TransactionFilter) ([]domain.Transaction, error) {
	var types []string
	for _, t := range filter.Types {
		types = append(types, string(t))
	}
	var before *time.Time
	if !filter.BeforeDate.IsZero() {
		before = &filter.BeforeDate
	}
	var limit *int
	if filter.Limit > 0 {
		limit = &filter.Limit
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		  AND ($2::text[] IS NULL OR transaction_type = ANY($2::text[]))
		  AND ($3::timestamptz IS NULL OR (transaction_date, transaction_id) < ($3::timestamptz, $4::text))
		ORDER BY transaction_date DESC, transaction_id DESC
		LIMIT $5;
	`
	rows, err := r.db.Query(ctx, query, userID, types, before, filter.BeforeID, limit)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to query transactions for user %s", userID))
	}
	return r.collect(rows)
}

func (r *PgxTransactionRepository) ListTransactionsByStatus(ctx context.Context, txType domain.TransactionType, status domain.TransactionStatus, limit int, offset int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_type = $1 AND status = $2
		ORDER BY transaction_date ASC, transaction_id ASC
		LIMIT $3 OFFSET $4;
	`
	rows, err := r.db.Query(ctx, query, string(txType), string(status), limit, offset)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to query %s %s transactions", status, txType))
	}
	return r.collect(rows)
}

// withdrawalWhere selects withdrawals for the first four arguments built by withdrawalArgs.
const withdrawalWhere = `
	WHERE transaction_type = $1
	  AND ($2::text = '' OR status = $2)
	  AND ($3::timestamptz IS NULL OR transaction_date >= $3::timestamptz)
	  AND ($4::timestamptz IS NULL OR transaction_date <= $4::timestamptz)
`

func withdrawalArgs(filter portsrepo.WithdrawalFilter) []any {
	var from, to *time.Time
	if !filter.From.IsZero() {
		from = &filter.From
	}
	if !filter.To.IsZero() {
		to = &filter.To
	}
	return []any{string(domain.TxWithdrawal), string(filter.Status), from, to}
}

func (r *PgxTransactionRepository) ListWithdrawals(ctx context.Context, filter portsrepo.WithdrawalFilter) ([]domain.Transaction, error) {
	order := `ORDER BY transaction_date DESC, transaction_id DESC`
	if filter.Ascending {
		order = `ORDER BY transaction_date ASC, transaction_id ASC`
	}
	var limit *int
	if filter.Limit > 0 {
		limit = &filter.Limit
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions` + withdrawalWhere + order + ` LIMIT $5 OFFSET $6;`
	rows, err := r.db.Query(ctx, query, append(withdrawalArgs(filter), limit, filter.Offset)...)
	if err != nil {
		return nil, translateError(err, "failed to query withdrawals")
	}
	return r.collect(rows)
}

func (r *PgxTransactionRepository) SummarizeWithdrawals(ctx context.Context, filter portsrepo.WithdrawalFilter) (domain.WithdrawalStat, error) {
	stat := domain.WithdrawalStat{Status: filter.Status}
	query := `SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM transactions` + withdrawalWhere + `;`
	if err := r.db.QueryRow(ctx, query, withdrawalArgs(filter)...).Scan(&stat.Count, &stat.Total); err != nil {
		return stat, translateError(err, "failed to summarize withdrawals")
	}
	return stat, nil
}

func (r *PgxTransactionRepository) WithdrawalStats(ctx context.Context) ([]domain.WithdrawalStat, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE transaction_type = $1
		GROUP BY status
		ORDER BY status;
	`
	rows, err := r.db.Query(ctx, query, string(domain.TxWithdrawal))
	if err != nil {
		return nil, translateError(err, "failed to query withdrawal stats")
	}
	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.WithdrawalStat, error) {
		var (
			status string
			stat   domain.WithdrawalStat
			total  decimal.Decimal
		)
		if err := row.Scan(&status, &stat.Count, &total); err != nil {
			return stat, err
		}
		stat.Status = domain.TransactionStatus(status)
		stat.Total = total
		return stat, nil
	})
	if err != nil {
		return nil, translateError(err, "failed to scan withdrawal stats")
	}
	return stats, nil
}

func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	m, err := mapping.ToModelTransaction(txn)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = r.db.Exec(ctx, query,
		m.TransactionID,
		m.UserID,
		m.Amount,
		m.TransactionType,
		m.Status,
		m.BalanceBefore,
		m.BalanceAfter,
		m.Details,
		m.Metadata,
		m.TransactionDate,
		m.ProcessedBy,
		m.ProcessedAt,
		m.AdminComment,
	)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to save transaction %s", txn.TransactionID))
	}
	return nil
}

func (r *PgxTransactionRepository) LockTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1 FOR UPDATE;`
	return r.findOne(ctx, query, transactionID)
}

func (r *PgxTransactionRepository) SettleTransaction(ctx context.Context, txn domain.Transaction) error {
	m, err := mapping.ToModelTransaction(txn)
	if err != nil {
		return err
	}
	query := `
		UPDATE transactions
		SET status = $2, balance_before = $3, balance_after = $4,
		    processed_by = $5, processed_at = $6, admin_comment = $7
		WHERE transaction_id = $1 AND status = 'pending';
	`
	cmdTag, err := r.db.Exec(ctx, query,
		m.TransactionID, m.Status, m.BalanceBefore, m.BalanceAfter, m.ProcessedBy, m.ProcessedAt, m.AdminComment)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to settle transaction %s", txn.TransactionID))
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRow(ctx, `SELECT status FROM transactions WHERE transaction_id = $1;`, txn.TransactionID).Scan(&current)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to find transaction %s", txn.TransactionID))
	}
	return fmt.Errorf("%w: transaction %s is %s", apperrors.ErrAlreadyProcessed, txn.TransactionID, current)
}
