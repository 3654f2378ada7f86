package mapping

import (
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/SscSPs/mining_ledger/internal/models"
)

// ToModelMachine converts a domain Machine to a model Machine
func ToModelMachine(d domain.Machine) models.Machine {
	return models.Machine{
		MachineID:      d.MachineID,
		Name:           d.Name,
		Price:          d.Price,
		MonthlyProfit:  d.MonthlyProfit,
		IsShareBased:   d.IsShareBased,
		TotalShares:    d.TotalShares,
		SharePrice:     d.SharePrice,
		ProfitPerShare: d.ProfitPerShare,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainMachine converts a model Machine to a domain Machine
func ToDomainMachine(m models.Machine) domain.Machine {
	return domain.Machine{
		MachineID:      m.MachineID,
		Name:           m.Name,
		Price:          m.Price,
		MonthlyProfit:  m.MonthlyProfit,
		IsShareBased:   m.IsShareBased,
		TotalShares:    m.TotalShares,
		SharePrice:     m.SharePrice,
		ProfitPerShare: m.ProfitPerShare,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelUserMachine converts a domain UserMachine to a model UserMachine
func ToModelUserMachine(d domain.UserMachine) models.UserMachine {
	return models.UserMachine{
		UserMachineID:     d.UserMachineID,
		UserID:            d.UserID,
		MachineID:         d.MachineID,
		PurchasePrice:     d.PurchasePrice,
		Status:            string(d.Status),
		AssignedDate:      d.AssignedDate,
		LastProfitUpdate:  nullTime(d.LastProfitUpdate),
		TotalProfitEarned: d.TotalProfitEarned,
	}
}

// ToDomainUserMachine converts a model UserMachine to a domain UserMachine
func ToDomainUserMachine(m models.UserMachine) domain.UserMachine {
	return domain.UserMachine{
		UserMachineID:     m.UserMachineID,
		UserID:            m.UserID,
		MachineID:         m.MachineID,
		PurchasePrice:     m.PurchasePrice,
		Status:            domain.PositionStatus(m.Status),
		AssignedDate:      m.AssignedDate,
		LastProfitUpdate:  timePtr(m.LastProfitUpdate),
		TotalProfitEarned: m.TotalProfitEarned,
	}
}

// ToModelSharePurchase converts a domain SharePurchase to a model SharePurchase
func ToModelSharePurchase(d domain.SharePurchase) models.SharePurchase {
	return models.SharePurchase{
		SharePurchaseID:   d.SharePurchaseID,
		UserID:            d.UserID,
		MachineID:         d.MachineID,
		NumberOfShares:    d.NumberOfShares,
		PricePerShare:     d.PricePerShare,
		ProfitPerShare:    d.ProfitPerShare,
		TotalInvestment:   d.TotalInvestment,
		Status:            string(d.Status),
		PurchaseDate:      d.PurchaseDate,
		LastProfitUpdate:  nullTime(d.LastProfitUpdate),
		TotalProfitEarned: d.TotalProfitEarned,
	}
}

// ToDomainSharePurchase converts a model SharePurchase to a domain SharePurchase
func ToDomainSharePurchase(m models.SharePurchase) domain.SharePurchase {
	return domain.SharePurchase{
		SharePurchaseID:   m.SharePurchaseID,
		UserID:            m.UserID,
		MachineID:         m.MachineID,
		NumberOfShares:    m.NumberOfShares,
		PricePerShare:     m.PricePerShare,
		ProfitPerShare:    m.ProfitPerShare,
		TotalInvestment:   m.TotalInvestment,
		Status:            domain.PositionStatus(m.Status),
		PurchaseDate:      m.PurchaseDate,
		LastProfitUpdate:  timePtr(m.LastProfitUpdate),
		TotalProfitEarned: m.TotalProfitEarned,
	}
}
