package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// TransactionMetadata is the audit payload of a transaction. Each transaction
// type has exactly one metadata shape, identified by MetadataKind.
type TransactionMetadata interface {
	MetadataKind() TransactionType
}

type AdminCreditMetadata struct {
	CreditedBy string `json:"creditedBy"`
	Note       string `json:"note,omitempty"`
}

type MachinePurchaseMetadata struct {
	MachineID       string          `json:"machineID"`
	MachineName     string          `json:"machineName"`
	Quantity        int             `json:"quantity"`
	PricePerUnit    decimal.Decimal `json:"pricePerUnit"`
	PositionIDs     []string        `json:"positionIDs"`
	BonusPercentage decimal.Decimal `json:"bonusPercentage"`
}

type MachineSaleMetadata struct {
	UserMachineID string          `json:"userMachineID"`
	MachineID     string          `json:"machineID"`
	MachineName   string          `json:"machineName"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Deduction     decimal.Decimal `json:"deduction"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
}

type SharePurchaseMetadata struct {
	SharePurchaseID string          `json:"sharePurchaseID"`
	MachineID       string          `json:"machineID"`
	MachineName     string          `json:"machineName"`
	NumberOfShares  int             `json:"numberOfShares"`
	PricePerShare   decimal.Decimal `json:"pricePerShare"`
	ProfitPerShare  decimal.Decimal `json:"profitPerShare"`
	BonusPercentage decimal.Decimal `json:"bonusPercentage"`
}

type ShareSaleMetadata struct {
	SharePurchaseID string          `json:"sharePurchaseID"`
	MachineID       string          `json:"machineID"`
	OriginalShares  int             `json:"originalShares"`
	SoldShares      int             `json:"soldShares"`
	OriginalValue   decimal.Decimal `json:"originalValue"`
	Deduction       decimal.Decimal `json:"deduction"`
	SellingPrice    decimal.Decimal `json:"sellingPrice"`
}

type MachineProfitMetadata struct {
	UserMachineID string `json:"userMachineID"`
	MachineID     string `json:"machineID"`
	MachineName   string `json:"machineName"`
}

type ShareProfitMetadata struct {
	SharePurchaseID string          `json:"sharePurchaseID"`
	MachineID       string          `json:"machineID"`
	NumberOfShares  int             `json:"numberOfShares"`
	ProfitPerShare  decimal.Decimal `json:"profitPerShare"`
}

type WithdrawalMetadata struct {
	WalletAddress string `json:"walletAddress"`
	Network       string `json:"network"`
}

type ReferralBonusMetadata struct {
	ReferredUserID      string          `json:"referredUserID"`
	SourceTransactionID string          `json:"sourceTransactionID"`
	PurchaseType        TransactionType `json:"purchaseType"`
	Percentage          decimal.Decimal `json:"percentage"`
}

func (AdminCreditMetadata) MetadataKind() TransactionType     { return TxAdminAdd }
func (MachinePurchaseMetadata) MetadataKind() TransactionType { return TxMachinePurchase }
func (MachineSaleMetadata) MetadataKind() TransactionType     { return TxMachineSale }
func (SharePurchaseMetadata) MetadataKind() TransactionType   { return TxSharePurchase }
func (ShareSaleMetadata) MetadataKind() TransactionType       { return TxShareSale }
func (MachineProfitMetadata) MetadataKind() TransactionType   { return TxMachineProfit }
func (ShareProfitMetadata) MetadataKind() TransactionType     { return TxShareProfit }
func (WithdrawalMetadata) MetadataKind() TransactionType      { return TxWithdrawal }
func (ReferralBonusMetadata) MetadataKind() TransactionType   { return TxReferralBonus }

// EncodeMetadata serialises m for storage.
func EncodeMetadata(m TransactionMetadata) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("metadata is nil")
	}
	return json.Marshal(m)
}

// DecodeMetadata restores the metadata variant belonging to kind.
func DecodeMetadata(kind TransactionType, data []byte) (TransactionMetadata, error) {
	switch kind {
	case TxAdminAdd:
		return decodeAs[AdminCreditMetadata](kind, data)
	case TxMachinePurchase:
		return decodeAs[MachinePurchaseMetadata](kind, data)
	case TxMachineSale:
		return decodeAs[MachineSaleMetadata](kind, data)
	case TxSharePurchase:
		return decodeAs[SharePurchaseMetadata](kind, data)
	case TxShareSale:
		return decodeAs[ShareSaleMetadata](kind, data)
	case TxMachineProfit:
		return decodeAs[MachineProfitMetadata](kind, data)
	case TxShareProfit:
		return decodeAs[ShareProfitMetadata](kind, data)
	case TxWithdrawal:
		return decodeAs[WithdrawalMetadata](kind, data)
	case TxReferralBonus:
		return decodeAs[ReferralBonusMetadata](kind, data)
	default:
		return nil, fmt.Errorf("no metadata shape for transaction type %q", kind)
	}
}

func decodeAs[T TransactionMetadata](kind TransactionType, data []byte) (TransactionMetadata, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s metadata: %w", kind, err)
	}
	return m, nil
}
