package pgsql

import (
	"errors"
	"fmt"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the ledger reacts to.
const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// translateError wraps err with msg, attaching the apperrors sentinel that
// matches the driver error so callers can use errors.Is.
func translateError(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w: %w", msg, apperrors.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w: %w", msg, apperrors.ErrDuplicate, err)
		case serializationFailure, deadlockDetected:
			return fmt.Errorf("%s: %w: %w", msg, apperrors.ErrTransient, err)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
