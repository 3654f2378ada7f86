package services_test

import (
	"testing"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalance_CreatesZeroedRecordOnFirstAccess(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Ledger.GetBalance(f.ctx, "fresh")

	require.NoError(t, err)
	assert.True(t, b.TotalBalance.IsZero())
	assert.True(t, b.Consistent())

	again, err := f.svc.Ledger.GetBalance(f.ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, b.LastUpdated, again.LastUpdated)
}

func TestCreditAdmin(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{"positive", "25.5", nil},
		{"zero", "0", apperrors.ErrValidation},
		{"negative", "-3", apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			balance, txn, err := f.svc.Ledger.CreditAdmin(f.ctx, "u1",
				dto.CreditBalanceRequest{Amount: dec(tt.amount), Note: "promo"}, adminID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.amount).Equal(balance.AdminAdd))
			assert.Equal(t, domain.TxAdminAdd, txn.Type)
			assert.True(t, txn.BalanceBefore.IsZero())
			assert.True(t, dec(tt.amount).Equal(txn.BalanceAfter))
			meta, ok := txn.Metadata.(domain.AdminCreditMetadata)
			require.True(t, ok)
			assert.Equal(t, adminID, meta.CreditedBy)
		})
	}
}

func TestCreditAdmin_RetriedOnceCommitsOnce(t *testing.T) {
	f := newFixture(t)
	f.store.FailNextCommits(1)

	balance, _, err := f.svc.Ledger.CreditAdmin(f.ctx, "u1", dto.CreditBalanceRequest{Amount: dec("40")}, adminID)

	require.NoError(t, err)
	assert.True(t, dec("40").Equal(balance.TotalBalance))
	assert.Len(t, f.transactions("u1"), 1)
	assert.True(t, dec("40").Equal(f.balance("u1").TotalBalance))
}

func TestCreditAdmin_TransientExhaustionIsReported(t *testing.T) {
	f := newFixture(t)
	f.store.FailNextCommits(3)

	_, _, err := f.svc.Ledger.CreditAdmin(f.ctx, "u1", dto.CreditBalanceRequest{Amount: dec("40")}, adminID)

	require.ErrorIs(t, err, apperrors.ErrTransient)
	assert.Empty(t, f.transactions("u1"))
}

func TestListTransactions_PagesAndFilters(t *testing.T) {
	f := newFixture(t)
	for _, amount := range []string{"1", "2", "3"} {
		f.credit("u1", amount)
		f.clock.Advance(1)
	}

	first, err := f.svc.Ledger.ListTransactions(f.ctx, "u1", dto.ListTransactionsParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Transactions, 2)
	require.NotNil(t, first.NextToken)
	assert.True(t, dec("3").Equal(first.Transactions[0].Amount))

	second, err := f.svc.Ledger.ListTransactions(f.ctx, "u1", dto.ListTransactionsParams{Limit: 2, NextToken: *first.NextToken})
	require.NoError(t, err)
	require.Len(t, second.Transactions, 1)
	assert.Nil(t, second.NextToken)
	assert.True(t, dec("1").Equal(second.Transactions[0].Amount))

	filtered, err := f.svc.Ledger.ListTransactions(f.ctx, "u1", dto.ListTransactionsParams{Type: string(domain.TxWithdrawal)})
	require.NoError(t, err)
	assert.Empty(t, filtered.Transactions)

	_, err = f.svc.Ledger.ListTransactions(f.ctx, "u1", dto.ListTransactionsParams{Type: "bogus"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Ledger.ListTransactions(f.ctx, "u1", dto.ListTransactionsParams{NextToken: "%%%"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGetBalanceOverview(t *testing.T) {
	f := newFixture(t)
	f.user("u1")
	f.credit("u1", "1000")
	m := f.machine("200", "15")
	pool := f.shareClass(50, "10", "0.25")

	_, err := f.svc.Market.PurchaseMachines(f.ctx, "u1", m.MachineID, 2)
	require.NoError(t, err)
	_, err = f.svc.Market.PurchaseShares(f.ctx, "u1", pool.MachineID, 4)
	require.NoError(t, err)

	overview, err := f.svc.Ledger.GetBalanceOverview(f.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, overview.ActiveMachineCount)
	assert.Len(t, overview.ActiveShares, 1)
	assert.True(t, dec("31").Equal(overview.MonthlyProfit), "2*15 + 4*0.25, got %s", overview.MonthlyProfit)
	assert.True(t, dec("560").Equal(overview.Balance.TotalBalance))
}
