package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

func TestAccrual_MachineCreditedOncePerPeriod(t *testing.T) {
	f := newFixture(t)
	f.user("u1")
	f.credit("u1", "1000")
	m := f.machine("1000", "45.5")
	res, err := f.svc.Market.PurchaseMachines(f.ctx, "u1", m.MachineID, 1)
	require.NoError(t, err)

	f.clock.Advance(29 * day)
	n, err := f.svc.Accrual.RunAccrualBatch(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.clock.Advance(day)
	n, err = f.svc.Accrual.RunAccrualBatch(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b := f.balance("u1")
	assert.True(t, dec("45.5").Equal(b.MiningBalance))
	assert.True(t, b.AdminAdd.IsZero())
	f.assertConsistent("u1")

	profits := f.transactions("u1", domain.TxMachineProfit)
	require.Len(t, profits, 1)
	assert.True(t, profits[0].BalanceBefore.IsZero())
	assert.True(t, dec("45.5").Equal(profits[0].BalanceAfter))
	meta, ok := profits[0].Metadata.(domain.MachineProfitMetadata)
	require.True(t, ok)
	assert.Equal(t, res.Machines[0].UserMachineID, meta.UserMachineID)

	// Same instant again: nothing is due.
	n, err = f.svc.Accrual.RunAccrualBatch(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	positions, err := f.svc.Market.ListUserMachines(f.ctx, "u1", true)
	require.NoError(t, err)
	require.NotNil(t, positions[0].LastProfitUpdate)
	assert.Equal(t, f.clock.Now(), *positions[0].LastProfitUpdate)
	assert.True(t, dec("45.5").Equal(positions[0].TotalProfitEarned))
	assert.Contains(t, f.notifier.Kinds(), domain.NotifyProfitCredited)
}

func TestAccrual_SharesCreditPerShareProfit(t *testing.T) {
	f := newFixture(t)
	f.user("u1")
	f.credit("u1", "100")
	pool := f.shareClass(100, "10", "1.23456")
	_, err := f.svc.Market.PurchaseShares(f.ctx, "u1", pool.MachineID, 3)
	require.NoError(t, err)

	f.clock.Advance(testPeriod)
	n, err := f.svc.Accrual.RunAccrualBatch(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b := f.balance("u1")
	assert.True(t, dec("3.7037").Equal(b.MiningBalance), "got %s", b.MiningBalance)
	require.Len(t, f.transactions("u1", domain.TxShareProfit), 1)

	summary, err := f.svc.Market.GetShareSummary(f.ctx, "u1")
	require.NoError(t, err)
	assert.True(t, dec("3.7037").Equal(summary.TotalProfitEarned))
	assert.Equal(t, f.clock.Now().Add(testPeriod), summary.Positions[0].NextProfitUpdate)
}

func TestAccrual_SkipsPositionsWithoutOwner(t *testing.T) {
	f := newFixture(t)
	f.user("u1")
	f.credit("u1", "100")
	m := f.machine("100", "5")
	_, err := f.svc.Market.PurchaseMachines(f.ctx, "u1", m.MachineID, 1)
	require.NoError(t, err)

	require.NoError(t, f.store.RunInTx(f.ctx, func(ctx context.Context, s portsrepo.Store) error {
		return s.Machines().SaveUserMachine(ctx, domain.UserMachine{
			UserMachineID: "orphan",
			UserID:        "deleted-user",
			MachineID:     m.MachineID,
			PurchasePrice: m.Price,
			Status:        domain.PositionActive,
			AssignedDate:  epoch,
		})
	}))

	f.clock.Advance(testPeriod)
	n, err := f.svc.Accrual.RunAccrualBatch(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, dec("5").Equal(f.balance("u1").MiningBalance))
	_, err = f.store.Reader().Balances().FindBalance(f.ctx, "deleted-user")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAccrual_FailedBatchIsLeftForNextRun(t *testing.T) {
	f := newFixture(t)
	m := f.machine("10", "1")
	for _, id := range []string{"a", "b", "c"} {
		f.user(id)
		f.credit(id, "10")
		_, err := f.svc.Market.PurchaseMachines(f.ctx, id, m.MachineID, 1)
		require.NoError(t, err)
	}
	f.clock.Advance(testPeriod)

	// The first batch (a, b) exhausts its attempts; the second (c) commits.
	f.store.FailNextCommits(3)
	n, err := f.svc.Accrual.RunAccrualBatch(f.ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransient)
	assert.Equal(t, 1, n)
	assert.True(t, f.balance("a").MiningBalance.IsZero())
	assert.True(t, f.balance("b").MiningBalance.IsZero())
	assert.True(t, dec("1").Equal(f.balance("c").MiningBalance))

	n, err = f.svc.Accrual.RunAccrualBatch(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for _, id := range []string{"a", "b", "c"} {
		assert.Len(t, f.transactions(id, domain.TxMachineProfit), 1, id)
	}
}

func TestAccrual_InactivePositionsEarnNothing(t *testing.T) {
	f := newFixture(t)
	f.user("u1")
	f.credit("u1", "100")
	m := f.machine("100", "5")
	res, err := f.svc.Market.PurchaseMachines(f.ctx, "u1", m.MachineID, 1)
	require.NoError(t, err)
	_, err = f.svc.Market.SellAsset(f.ctx, "u1", domain.AssetMachine, res.Machines[0].UserMachineID, 1)
	require.NoError(t, err)

	f.clock.Advance(testPeriod)
	n, err := f.svc.Accrual.RunAccrualBatch(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAccrual_ZeroProfitPositionAdvancedButNotCounted(t *testing.T) {
	f := newFixture(t)
	f.user("u1")
	f.credit("u1", "200")
	idle := f.machine("100", "0")
	paying := f.machine("100", "3")
	for _, m := range []*domain.Machine{idle, paying} {
		_, err := f.svc.Market.PurchaseMachines(f.ctx, "u1", m.MachineID, 1)
		require.NoError(t, err)
	}

	f.clock.Advance(testPeriod)
	n, err := f.svc.Accrual.RunAccrualBatch(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.transactions("u1", domain.TxMachineProfit), 1)
	assert.True(t, dec("3").Equal(f.balance("u1").MiningBalance))

	positions, err := f.svc.Market.ListUserMachines(f.ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	for _, p := range positions {
		require.NotNil(t, p.LastProfitUpdate, "position %s not advanced", p.MachineID)
		assert.Equal(t, f.clock.Now(), *p.LastProfitUpdate)
	}

	// Neither position is due again until the next period.
	n, err = f.svc.Accrual.RunAccrualBatch(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
