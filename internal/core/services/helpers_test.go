package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/core/services"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/SscSPs/mining_ledger/internal/platform/config"
	"github.com/SscSPs/mining_ledger/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	adminID      = "admin-1"
	testPeriod   = 30 * 24 * time.Hour
	testBatching = 2
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeClock is a settable time source shared by services under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingNotifier captures notifications in memory.
type recordingNotifier struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, note)
}

func (n *recordingNotifier) Kinds() []domain.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]domain.NotificationKind, len(n.items))
	for i, item := range n.items {
		kinds[i] = item.Kind
	}
	return kinds
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	clock    *fakeClock
	notifier *recordingNotifier
	svc      *portssvc.ServiceContainer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	clock := &fakeClock{now: epoch}
	notifier := &recordingNotifier{}
	cfg := &config.Config{
		TxMaxAttempts:    3,
		TxBaseDelay:      time.Millisecond,
		AccrualPeriod:    testPeriod,
		AccrualBatchSize: testBatching,
	}
	svc := services.NewServiceContainer(cfg, store.Provider(),
		services.WithClock(clock.Now),
		services.WithNotifier(notifier))
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    store,
		clock:    clock,
		notifier: notifier,
		svc:      svc,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) user(id string, referrer ...string) *domain.User {
	f.t.Helper()
	req := dto.CreateUserRequest{UserID: id, Name: "User " + id, Email: id + "@example.com"}
	if len(referrer) > 0 {
		req.ReferrerID = &referrer[0]
	}
	u, err := f.svc.User.CreateUser(f.ctx, req, adminID)
	require.NoError(f.t, err)
	return u
}

func (f *fixture) credit(userID, amount string) {
	f.t.Helper()
	_, _, err := f.svc.Ledger.CreditAdmin(f.ctx, userID, dto.CreditBalanceRequest{Amount: dec(amount)}, adminID)
	require.NoError(f.t, err)
}

func (f *fixture) machine(price, monthly string) *domain.Machine {
	f.t.Helper()
	m, err := f.svc.Market.CreateMachine(f.ctx, dto.CreateMachineRequest{
		Name:          "Miner " + price,
		Price:         dec(price),
		MonthlyProfit: dec(monthly),
	}, adminID)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) shareClass(total int, sharePrice, profitPerShare string) *domain.Machine {
	f.t.Helper()
	m, err := f.svc.Market.CreateMachine(f.ctx, dto.CreateMachineRequest{
		Name:           "Pool",
		IsShareBased:   true,
		TotalShares:    total,
		SharePrice:     dec(sharePrice),
		ProfitPerShare: dec(profitPerShare),
	}, adminID)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) balance(userID string) domain.Balance {
	f.t.Helper()
	b, err := f.svc.Ledger.GetBalance(f.ctx, userID)
	require.NoError(f.t, err)
	return *b
}

// setBalance writes accumulators directly, bypassing the ledger, to set up a scenario.
func (f *fixture) setBalance(userID, adminAdd, mining string) {
	f.t.Helper()
	err := f.store.RunInTx(f.ctx, func(ctx context.Context, s portsrepo.Store) error {
		b, err := s.Balances().GetOrCreateBalance(ctx, userID, f.clock.Now())
		if err != nil {
			return err
		}
		b.AdminAdd = dec(adminAdd)
		b.MiningBalance = dec(mining)
		b.TotalBalance = b.AdminAdd.Add(b.MiningBalance)
		return s.Balances().UpdateBalance(ctx, *b)
	})
	require.NoError(f.t, err)
}

func (f *fixture) transactions(userID string, types ...domain.TransactionType) []domain.Transaction {
	f.t.Helper()
	txns, err := f.store.Reader().Transactions().ListUserTransactions(f.ctx, userID, portsrepo.TransactionFilter{Types: types})
	require.NoError(f.t, err)
	return txns
}

func (f *fixture) assertConsistent(userID string) {
	f.t.Helper()
	b := f.balance(userID)
	require.True(f.t, b.Consistent(), "total %s != %s + %s", b.TotalBalance, b.AdminAdd, b.MiningBalance)
	require.False(f.t, b.TotalBalance.IsNegative())
}
