package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MarketServiceTestSuite struct {
	suite.Suite
	f *fixture
}

func TestMarketServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MarketServiceTestSuite))
}

func (suite *MarketServiceTestSuite) SetupTest() {
	suite.f = newFixture(suite.T())
}

func (suite *MarketServiceTestSuite) TestPurchaseMachine_DebitsAndCreatesPosition() {
	f := suite.f
	f.user("buyer")
	f.credit("buyer", "1200")
	m := f.machine("1000", "50")

	res, err := f.svc.Market.PurchaseMachines(f.ctx, "buyer", m.MachineID, 1)

	suite.Require().NoError(err)
	suite.True(dec("200").Equal(res.Balance.TotalBalance))
	suite.True(dec("200").Equal(res.Balance.AdminAdd))
	suite.Require().Len(res.Machines, 1)
	suite.Equal(domain.PositionActive, res.Machines[0].Status)

	txn := res.Transaction
	suite.Equal(domain.TxMachinePurchase, txn.Type)
	suite.Equal(domain.StatusCompleted, txn.Status)
	suite.True(dec("1200").Equal(txn.BalanceBefore))
	suite.True(dec("200").Equal(txn.BalanceAfter))
	suite.True(dec("1000").Equal(txn.Amount))

	meta, ok := txn.Metadata.(domain.MachinePurchaseMetadata)
	suite.Require().True(ok)
	suite.Equal(1, meta.Quantity)
	suite.Equal([]string{res.Machines[0].UserMachineID}, meta.PositionIDs)

	positions, err := f.svc.Market.ListUserMachines(f.ctx, "buyer", true)
	suite.Require().NoError(err)
	suite.Len(positions, 1)
	suite.Len(f.transactions("buyer", domain.TxMachinePurchase), 1)
	suite.Contains(f.notifier.Kinds(), domain.NotifyPurchaseConfirmed)
	f.assertConsistent("buyer")
}

func (suite *MarketServiceTestSuite) TestPurchaseMachine_InsufficientFundsLeavesNoTrace() {
	f := suite.f
	f.user("buyer")
	f.credit("buyer", "500")
	m := f.machine("1000", "50")

	_, err := f.svc.Market.PurchaseMachines(f.ctx, "buyer", m.MachineID, 1)

	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.True(dec("500").Equal(f.balance("buyer").TotalBalance))
	positions, _ := f.svc.Market.ListUserMachines(f.ctx, "buyer", false)
	suite.Empty(positions)
	suite.Empty(f.transactions("buyer", domain.TxMachinePurchase))
	suite.NotContains(f.notifier.Kinds(), domain.NotifyPurchaseConfirmed)
}

func (suite *MarketServiceTestSuite) TestPurchaseMachine_MultipleUnits() {
	f := suite.f
	f.user("buyer")
	f.credit("buyer", "1000")
	m := f.machine("300", "10")

	res, err := f.svc.Market.PurchaseMachines(f.ctx, "buyer", m.MachineID, 3)

	suite.Require().NoError(err)
	suite.Len(res.Machines, 3)
	suite.True(dec("100").Equal(res.Balance.TotalBalance))
}

func (suite *MarketServiceTestSuite) TestPurchaseMachine_OversizedOrders() {
	f := suite.f
	f.user("buyer")
	m := f.machine("100", "1")

	var err error
	suite.NotPanics(func() {
		_, err = f.svc.Market.PurchaseMachines(f.ctx, "buyer", m.MachineID, 1<<62)
	})
	suite.ErrorIs(err, apperrors.ErrValidation)

	suite.NotPanics(func() {
		_, err = f.svc.Market.PurchaseShares(f.ctx, "buyer", m.MachineID, 1<<62)
	})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = f.svc.Market.PurchaseMachines(f.ctx, "buyer", m.MachineID, domain.MaxOrderQuantity)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.True(f.balance("buyer").TotalBalance.IsZero())
	suite.Empty(f.transactions("buyer", domain.TxMachinePurchase))
}

func (suite *MarketServiceTestSuite) TestPurchase_Errors() {
	f := suite.f
	f.user("buyer")
	f.credit("buyer", "1000")
	m := f.machine("100", "1")
	pool := f.shareClass(10, "10", "0.5")

	_, err := f.svc.Market.PurchaseMachines(f.ctx, "buyer", m.MachineID, 0)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = f.svc.Market.PurchaseMachines(f.ctx, "buyer", "missing", 1)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = f.svc.Market.PurchaseMachines(f.ctx, "ghost", m.MachineID, 1)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = f.svc.Market.PurchaseMachines(f.ctx, "buyer", pool.MachineID, 1)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = f.svc.Market.PurchaseShares(f.ctx, "buyer", m.MachineID, 1)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *MarketServiceTestSuite) TestCheckPurchaseEligibility_Machine() {
	f := suite.f
	f.user("buyer")
	f.credit("buyer", "250")
	m := f.machine("100", "5")

	ok, err := f.svc.Market.CheckPurchaseEligibility(f.ctx, "buyer", m.MachineID, 2)
	suite.Require().NoError(err)
	suite.True(ok.CanPurchase)
	suite.Empty(ok.Reason)
	suite.True(dec("200").Equal(ok.RequiredAmount))
	suite.True(dec("250").Equal(ok.UserBalance))
	suite.True(ok.Shortfall.IsZero())
	suite.Nil(ok.AvailableShares)

	short, err := f.svc.Market.CheckPurchaseEligibility(f.ctx, "buyer", m.MachineID, 3)
	suite.Require().NoError(err)
	suite.False(short.CanPurchase)
	suite.Equal("insufficient_funds", short.Reason)
	suite.True(dec("50").Equal(short.Shortfall))

	// The check writes nothing.
	suite.True(dec("250").Equal(f.balance("buyer").TotalBalance))
	suite.Empty(f.transactions("buyer", domain.TxMachinePurchase))
}

func (suite *MarketServiceTestSuite) TestCheckPurchaseEligibility_SharesAndErrors() {
	f := suite.f
	f.user("buyer")
	f.user("broke")
	f.credit("buyer", "1000")
	pool := f.shareClass(10, "10", "1")
	_, err := f.svc.Market.PurchaseShares(f.ctx, "buyer", pool.MachineID, 8)
	suite.Require().NoError(err)

	full, err := f.svc.Market.CheckPurchaseEligibility(f.ctx, "buyer", pool.MachineID, 3)
	suite.Require().NoError(err)
	suite.False(full.CanPurchase)
	suite.Equal("capacity_exceeded", full.Reason)
	suite.Require().NotNil(full.AvailableShares)
	suite.Equal(2, *full.AvailableShares)
	suite.True(dec("10").Equal(full.PricePerUnit))

	noBalance, err := f.svc.Market.CheckPurchaseEligibility(f.ctx, "broke", pool.MachineID, 1)
	suite.Require().NoError(err)
	suite.False(noBalance.CanPurchase)
	suite.True(noBalance.UserBalance.IsZero())
	suite.True(dec("10").Equal(noBalance.Shortfall))

	_, err = f.svc.Market.CheckPurchaseEligibility(f.ctx, "buyer", "missing", 1)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = f.svc.Market.CheckPurchaseEligibility(f.ctx, "ghost", pool.MachineID, 1)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = f.svc.Market.CheckPurchaseEligibility(f.ctx, "buyer", pool.MachineID, domain.MaxOrderQuantity+1)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *MarketServiceTestSuite) TestListAllUserMachines_Filters() {
	f := suite.f
	f.user("a")
	f.user("b")
	f.credit("a", "1000")
	f.credit("b", "1000")
	small := f.machine("100", "1")
	big := f.machine("300", "5")

	_, err := f.svc.Market.PurchaseMachines(f.ctx, "a", small.MachineID, 2)
	suite.Require().NoError(err)
	f.clock.Advance(time.Hour)
	sold, err := f.svc.Market.PurchaseMachines(f.ctx, "b", big.MachineID, 1)
	suite.Require().NoError(err)
	_, err = f.svc.Market.SellAsset(f.ctx, "b", domain.AssetMachine, sold.Machines[0].UserMachineID, 1)
	suite.Require().NoError(err)

	all, err := f.svc.Market.ListAllUserMachines(f.ctx, dto.ListAllUserMachinesParams{})
	suite.Require().NoError(err)
	suite.Equal(3, all.Total)
	suite.Require().Len(all.Machines, 3)
	suite.Equal(sold.Machines[0].UserMachineID, all.Machines[0].UserMachineID)

	byUser, err := f.svc.Market.ListAllUserMachines(f.ctx, dto.ListAllUserMachinesParams{UserID: "a", Limit: 1})
	suite.Require().NoError(err)
	suite.Equal(2, byUser.Total)
	suite.Len(byUser.Machines, 1)
	suite.Equal(1, byUser.Limit)

	inactive, err := f.svc.Market.ListAllUserMachines(f.ctx, dto.ListAllUserMachinesParams{Status: "inactive"})
	suite.Require().NoError(err)
	suite.Equal(1, inactive.Total)
	suite.Equal(big.MachineID, inactive.Machines[0].MachineID)

	byMachine, err := f.svc.Market.ListAllUserMachines(f.ctx, dto.ListAllUserMachinesParams{MachineID: small.MachineID, Status: "active"})
	suite.Require().NoError(err)
	suite.Equal(2, byMachine.Total)

	_, err = f.svc.Market.ListAllUserMachines(f.ctx, dto.ListAllUserMachinesParams{Status: "sold"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *MarketServiceTestSuite) TestTieredBonus_FirstTenThenTwoPercent() {
	f := suite.f
	f.user("ref")
	f.user("buyer", "ref")
	f.credit("buyer", "5000")
	m := f.machine("1000", "10")

	first, err := f.svc.Market.PurchaseMachines(f.ctx, "buyer", m.MachineID, 1)
	suite.Require().NoError(err)
	suite.True(dec("10").Equal(first.BonusPercentage))
	suite.True(first.ReferrerCredited)

	// Unrelated entries between purchases must not affect the tier.
	f.credit("buyer", "50")

	second, err := f.svc.Market.PurchaseMachines(f.ctx, "buyer", m.MachineID, 1)
	suite.Require().NoError(err)
	suite.True(dec("2").Equal(second.BonusPercentage))

	refBalance := f.balance("ref")
	suite.True(dec("120").Equal(refBalance.AdminAdd), "100 + 20, got %s", refBalance.AdminAdd)
	bonuses := f.transactions("ref", domain.TxReferralBonus)
	suite.Len(bonuses, 2)
	suite.Empty(f.transactions("buyer", domain.TxReferralBonus))

	buyer, err := f.svc.User.GetUserByID(f.ctx, "buyer")
	suite.Require().NoError(err)
	suite.Equal(domain.ReferralActive, buyer.ReferralStatus)
	suite.True(dec("120").Equal(buyer.Discount))
	f.assertConsistent("ref")
	f.assertConsistent("buyer")
}

func (suite *MarketServiceTestSuite) TestTieredBonus_CountedPerPurchaseType() {
	f := suite.f
	f.user("buyer")
	f.credit("buyer", "5000")
	m := f.machine("100", "1")
	pool := f.shareClass(100, "10", "0.1")

	_, err := f.svc.Market.PurchaseMachines(f.ctx, "buyer", m.MachineID, 1)
	suite.Require().NoError(err)

	shares, err := f.svc.Market.PurchaseShares(f.ctx, "buyer", pool.MachineID, 5)
	suite.Require().NoError(err)
	suite.True(dec("10").Equal(shares.BonusPercentage))
	suite.False(shares.ReferrerCredited)
}

func (suite *MarketServiceTestSuite) TestSellMachine_ConservationOfFee() {
	f := suite.f
	f.user("buyer")
	f.credit("buyer", "1500")
	m := f.machine("1000", "10")

	res, err := f.svc.Market.PurchaseMachines(f.ctx, "buyer", m.MachineID, 1)
	suite.Require().NoError(err)
	before := f.balance("buyer").AdminAdd.Add(dec("1000"))

	sale, err := f.svc.Market.SellAsset(f.ctx, "buyer", domain.AssetMachine, res.Machines[0].UserMachineID, 1)
	suite.Require().NoError(err)
	suite.True(dec("900").Equal(sale.SellingPrice))
	suite.True(dec("100").Equal(sale.Deduction))

	after := f.balance("buyer").AdminAdd
	suite.True(before.Sub(after).Equal(dec("100")), "net change should be the 10%% fee")

	positions, err := f.svc.Market.ListUserMachines(f.ctx, "buyer", false)
	suite.Require().NoError(err)
	suite.Equal(domain.PositionInactive, positions[0].Status)

	_, err = f.svc.Market.SellAsset(f.ctx, "buyer", domain.AssetMachine, res.Machines[0].UserMachineID, 1)
	suite.ErrorIs(err, apperrors.ErrInvalidSale)
}

func (suite *MarketServiceTestSuite) TestSellShares_PartialThenFull() {
	f := suite.f
	f.user("buyer")
	f.credit("buyer", "1000")
	pool := f.shareClass(100, "20", "1")

	res, err := f.svc.Market.PurchaseShares(f.ctx, "buyer", pool.MachineID, 10)
	suite.Require().NoError(err)
	holdingID := res.Shares.SharePurchaseID

	partial, err := f.svc.Market.SellAsset(f.ctx, "buyer", domain.AssetShare, holdingID, 4)
	suite.Require().NoError(err)
	suite.Equal(6, partial.RemainingUnits)
	suite.True(dec("72").Equal(partial.SellingPrice))

	summary, err := f.svc.Market.GetShareSummary(f.ctx, "buyer")
	suite.Require().NoError(err)
	suite.Equal(6, summary.TotalShares)
	suite.True(dec("120").Equal(summary.TotalInvestment))
	suite.Equal(epoch.Add(testPeriod), summary.Positions[0].NextProfitUpdate)

	_, err = f.svc.Market.SellAsset(f.ctx, "buyer", domain.AssetShare, holdingID, 7)
	suite.ErrorIs(err, apperrors.ErrInvalidSale)

	full, err := f.svc.Market.SellAsset(f.ctx, "buyer", domain.AssetShare, holdingID, 6)
	suite.Require().NoError(err)
	suite.Equal(0, full.RemainingUnits)

	summary, err = f.svc.Market.GetShareSummary(f.ctx, "buyer")
	suite.Require().NoError(err)
	suite.Empty(summary.Positions)

	_, err = f.svc.Market.SellAsset(f.ctx, "buyer", domain.AssetShare, holdingID, 1)
	suite.ErrorIs(err, apperrors.ErrInvalidSale)
	f.assertConsistent("buyer")
}

func (suite *MarketServiceTestSuite) TestSell_RejectsForeignPositionAndBadQuantity() {
	f := suite.f
	f.user("owner")
	f.user("other")
	f.credit("owner", "1000")
	m := f.machine("100", "1")

	res, err := f.svc.Market.PurchaseMachines(f.ctx, "owner", m.MachineID, 1)
	suite.Require().NoError(err)
	positionID := res.Machines[0].UserMachineID

	_, err = f.svc.Market.SellAsset(f.ctx, "other", domain.AssetMachine, positionID, 1)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = f.svc.Market.SellAsset(f.ctx, "owner", domain.AssetMachine, positionID, 0)
	suite.ErrorIs(err, apperrors.ErrInvalidSale)

	_, err = f.svc.Market.SellAsset(f.ctx, "owner", domain.AssetMachine, positionID, 2)
	suite.ErrorIs(err, apperrors.ErrInvalidSale)
}

func (suite *MarketServiceTestSuite) TestCreateMachine_Validation() {
	f := suite.f
	tests := []struct {
		name string
		req  dto.CreateMachineRequest
	}{
		{"no name", dto.CreateMachineRequest{Price: dec("1")}},
		{"zero price", dto.CreateMachineRequest{Name: "x"}},
		{"shares without capacity", dto.CreateMachineRequest{Name: "x", IsShareBased: true, SharePrice: dec("1")}},
		{"shares without price", dto.CreateMachineRequest{Name: "x", IsShareBased: true, TotalShares: 5}},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := f.svc.Market.CreateMachine(f.ctx, tt.req, adminID)
			suite.ErrorIs(err, apperrors.ErrValidation)
		})
	}
}

func TestPurchaseShares_CapacityUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	pool := f.shareClass(10, "10", "1")
	f.user("early")
	f.credit("early", "100")
	_, err := f.svc.Market.PurchaseShares(f.ctx, "early", pool.MachineID, 9)
	require.NoError(t, err)

	buyers := []string{"b1", "b2"}
	for _, id := range buyers {
		f.user(id)
		f.credit(id, "100")
	}

	errs := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i, id := range buyers {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.svc.Market.PurchaseShares(context.Background(), id, pool.MachineID, 1)
		}(i, id)
	}
	wg.Wait()

	successes, rejections := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded):
			rejections++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)
}
