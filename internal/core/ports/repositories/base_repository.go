package repositories

import (
	"context"
)

// Store exposes the repositories. A Store handed to a UnitOfWork is bound to
// that unit's session; every call reads and writes inside it.
type Store interface {
	Balances() BalanceRepositoryFacade
	Transactions() TransactionRepositoryFacade
	Machines() MachineRepositoryFacade
	Shares() ShareRepositoryFacade
	Users() UserRepositoryFacade
}

// UnitOfWork is the body of one atomic session.
type UnitOfWork func(ctx context.Context, store Store) error

// TransactionManager runs a unit of work inside a single serializable session,
// committing when it returns nil and rolling back otherwise. It makes exactly
// one attempt; retrying is the caller's concern.
type TransactionManager interface {
	RunInTx(ctx context.Context, work UnitOfWork) error
}
