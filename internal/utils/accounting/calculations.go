package accounting

import (
	"fmt"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SaleFeeRate is the share of the unit price kept by the platform on every sale.
var SaleFeeRate = decimal.RequireFromString("0.10")

var (
	firstPurchaseBonus  = decimal.RequireFromString("0.10")
	repeatPurchaseBonus = decimal.RequireFromString("0.02")
)

// CalculateSignedAmount applies the direction implied by the transaction type to a positive amount.
// Credits are positive, debits negative.
func CalculateSignedAmount(txType domain.TransactionType, amount decimal.Decimal) (decimal.Decimal, error) {
	if !txType.Valid() {
		return decimal.Zero, fmt.Errorf("unknown transaction type '%s'", txType)
	}
	if txType.IsCredit() {
		return amount, nil
	}
	return amount.Neg(), nil
}

// ValidateSnapshot checks that a settled transaction moved the balance by exactly its signed amount.
func ValidateSnapshot(txn domain.Transaction) error {
	if txn.Status == domain.StatusPending || txn.Status == domain.StatusRejected {
		return nil
	}
	signed, err := CalculateSignedAmount(txn.Type, txn.Amount)
	if err != nil {
		return err
	}
	moved := txn.BalanceAfter.Sub(txn.BalanceBefore)
	if !moved.Equal(signed) {
		return fmt.Errorf("transaction %s moved balance by %s but its signed amount is %s", txn.TransactionID, moved, signed)
	}
	return nil
}

// BonusRate returns the tiered bonus for a purchase given how many completed
// purchases of the same type the buyer already has.
func BonusRate(priorPurchases int) decimal.Decimal {
	if priorPurchases == 0 {
		return firstPurchaseBonus
	}
	return repeatPurchaseBonus
}

// SaleProceeds returns what the seller receives for units sold at unitPrice and the fee withheld.
func SaleProceeds(unitPrice decimal.Decimal, units int) (sellingPrice, deduction decimal.Decimal) {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(units)))
	deduction = domain.RoundMoney(gross.Mul(SaleFeeRate))
	return domain.RoundMoney(gross.Sub(deduction)), deduction
}
