package mapping

import (
	"database/sql"
	"fmt"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/SscSPs/mining_ledger/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction,
// encoding its metadata to JSON.
func ToModelTransaction(d domain.Transaction) (models.Transaction, error) {
	raw, err := domain.EncodeMetadata(d.Metadata)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to encode metadata of transaction %s: %w", d.TransactionID, err)
	}
	return models.Transaction{
		TransactionID:   d.TransactionID,
		UserID:          d.UserID,
		Amount:          d.Amount,
		TransactionType: string(d.Type),
		Status:          string(d.Status),
		BalanceBefore:   d.BalanceBefore,
		BalanceAfter:    d.BalanceAfter,
		Details:         sql.NullString{String: d.Details, Valid: d.Details != ""},
		Metadata:        raw,
		TransactionDate: d.TransactionDate,
		ProcessedBy:     nullString(d.ProcessedBy),
		ProcessedAt:     nullTime(d.ProcessedAt),
		AdminComment:    nullString(d.AdminComment),
	}, nil
}

// ToDomainTransaction converts a model Transaction to a domain Transaction,
// decoding the metadata payload into the shape its type declares.
func ToDomainTransaction(m models.Transaction) (domain.Transaction, error) {
	kind := domain.TransactionType(m.TransactionType)
	meta, err := domain.DecodeMetadata(kind, m.Metadata)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to decode metadata of transaction %s: %w", m.TransactionID, err)
	}
	return domain.Transaction{
		TransactionID:   m.TransactionID,
		UserID:          m.UserID,
		Amount:          m.Amount,
		Type:            kind,
		Status:          domain.TransactionStatus(m.Status),
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		Details:         m.Details.String,
		Metadata:        meta,
		TransactionDate: m.TransactionDate,
		ProcessedBy:     stringPtr(m.ProcessedBy),
		ProcessedAt:     timePtr(m.ProcessedAt),
		AdminComment:    stringPtr(m.AdminComment),
	}, nil
}

// ToDomainTransactionSlice converts model Transactions, failing on the first
// row whose metadata cannot be decoded.
func ToDomainTransactionSlice(ms []models.Transaction) ([]domain.Transaction, error) {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		d, err := ToDomainTransaction(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}
