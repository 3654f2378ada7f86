package pgsql

import (
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager: newPgxTxManager(dbPool),
		Reader:    newPgxStore(dbPool),
	}
}
