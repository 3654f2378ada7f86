package pgsql

import (
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
)

// pgxStore binds every repository to one DBTX: the pool for plain reads or
// an open pgx.Tx inside a session.
type pgxStore struct {
	balances     *PgxBalanceRepository
	transactions *PgxTransactionRepository
	machines     *PgxMachineRepository
	shares       *PgxShareRepository
	users        *PgxUserRepository
}

var _ portsrepo.Store = (*pgxStore)(nil)

func newPgxStore(db DBTX) *pgxStore {
	return &pgxStore{
		balances:     newPgxBalanceRepository(db),
		transactions: newPgxTransactionRepository(db),
		machines:     newPgxMachineRepository(db),
		shares:       newPgxShareRepository(db),
		users:        newPgxUserRepository(db),
	}
}

func (s *pgxStore) Balances() portsrepo.BalanceRepositoryFacade         { return s.balances }
func (s *pgxStore) Transactions() portsrepo.TransactionRepositoryFacade { return s.transactions }
func (s *pgxStore) Machines() portsrepo.MachineRepositoryFacade         { return s.machines }
func (s *pgxStore) Shares() portsrepo.ShareRepositoryFacade             { return s.shares }
func (s *pgxStore) Users() portsrepo.UserRepositoryFacade               { return s.users }
