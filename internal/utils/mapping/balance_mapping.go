package mapping

import (
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/SscSPs/mining_ledger/internal/models"
)

// ToModelBalance converts a domain Balance to a model Balance
func ToModelBalance(d domain.Balance) models.Balance {
	return models.Balance{
		UserID:        d.UserID,
		AdminAdd:      d.AdminAdd,
		MiningBalance: d.MiningBalance,
		TotalBalance:  d.TotalBalance,
		LastUpdated:   d.LastUpdated,
	}
}

// ToDomainBalance converts a model Balance to a domain Balance
func ToDomainBalance(m models.Balance) domain.Balance {
	return domain.Balance{
		UserID:        m.UserID,
		AdminAdd:      m.AdminAdd,
		MiningBalance: m.MiningBalance,
		TotalBalance:  m.TotalBalance,
		LastUpdated:   m.LastUpdated,
	}
}
