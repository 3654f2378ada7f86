// Package memory is an in-process implementation of the repository ports.
// Sessions run one at a time against a private copy of the data that replaces
// the committed copy on success, which makes every session serializable.
// Used by tests and by the server when no database URL is configured.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
)

type state struct {
	users        map[string]domain.User
	machines     map[string]domain.Machine
	balances     map[string]domain.Balance
	transactions map[string]domain.Transaction
	userMachines map[string]domain.UserMachine
	shares       map[string]domain.SharePurchase
}

func newState() *state {
	return &state{
		users:        make(map[string]domain.User),
		machines:     make(map[string]domain.Machine),
		balances:     make(map[string]domain.Balance),
		transactions: make(map[string]domain.Transaction),
		userMachines: make(map[string]domain.UserMachine),
		shares:       make(map[string]domain.SharePurchase),
	}
}

func (s *state) clone() *state {
	return &state{
		users:        maps.Clone(s.users),
		machines:     maps.Clone(s.machines),
		balances:     maps.Clone(s.balances),
		transactions: maps.Clone(s.transactions),
		userMachines: maps.Clone(s.userMachines),
		shares:       maps.Clone(s.shares),
	}
}

// Store holds the committed data and implements portsrepo.TransactionManager.
type Store struct {
	sessionMu sync.Mutex

	mu          sync.RWMutex
	committed   *state
	commits     int
	failCommits int
}

// New creates an empty Store.
func New() *Store {
	return &Store{committed: newState()}
}

var _ portsrepo.TransactionManager = (*Store)(nil)

// Provider returns the store wired as a repository provider.
func (m *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{TxManager: m, Reader: m.Reader()}
}

// Reader returns a read-only view of committed data. Writes through it fail.
func (m *Store) Reader() portsrepo.Store {
	return readView{store: m}
}

// RunInTx runs work against a private copy of the data and publishes the copy
// when work succeeds. One session runs at a time.
func (m *Store) RunInTx(ctx context.Context, work portsrepo.UnitOfWork) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	working := m.snapshot().clone()
	if err := work(ctx, &session{st: working}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCommits > 0 {
		m.failCommits--
		return fmt.Errorf("simulated commit conflict: %w", apperrors.ErrTransient)
	}
	m.committed = working
	m.commits++
	return nil
}

// FailNextCommits makes the next n sessions fail at commit with a transient
// conflict after their work has run. Their changes are discarded.
func (m *Store) FailNextCommits(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCommits = n
}

// Commits returns how many sessions have committed.
func (m *Store) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

func (m *Store) snapshot() *state {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.committed
}

// readView serves reads from the latest committed state. Committed states
// are never modified, so a view can read one without holding a lock.
type readView struct {
	store *Store
}

func (v readView) view() *session {
	return &session{st: v.store.snapshot(), readOnly: true}
}

func (v readView) Balances() portsrepo.BalanceRepositoryFacade         { return v.view() }
func (v readView) Transactions() portsrepo.TransactionRepositoryFacade { return v.view() }
func (v readView) Machines() portsrepo.MachineRepositoryFacade         { return v.view() }
func (v readView) Shares() portsrepo.ShareRepositoryFacade             { return v.view() }
func (v readView) Users() portsrepo.UserRepositoryFacade               { return v.view() }
