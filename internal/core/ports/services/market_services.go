package services

import (
	"context"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/SscSPs/mining_ledger/internal/dto"
)

// CatalogSvc defines operations on the machine catalog
type CatalogSvc interface {
	CreateMachine(ctx context.Context, req dto.CreateMachineRequest, adminID string) (*domain.Machine, error)
	GetMachine(ctx context.Context, machineID string) (*domain.Machine, error)
	ListMachines(ctx context.Context) ([]domain.Machine, error)
}

// TradingSvc defines purchases and sales of positions
type TradingSvc interface {
	// PurchaseMachines buys quantity whole units of a machine.
	PurchaseMachines(ctx context.Context, userID, machineID string, quantity int) (*domain.PurchaseResult, error)

	// PurchaseShares buys quantity shares of a share-based machine.
	PurchaseShares(ctx context.Context, userID, machineID string, quantity int) (*domain.PurchaseResult, error)

	// CheckPurchaseEligibility reports whether userID can currently afford
	// quantity units or shares of machineID, without changing anything.
	CheckPurchaseEligibility(ctx context.Context, userID, machineID string, quantity int) (*domain.PurchaseEligibility, error)

	// SellAsset sells quantity units of a position owned by userID.
	SellAsset(ctx context.Context, userID string, kind domain.AssetKind, positionID string, quantity int) (*domain.SaleResult, error)
}

// PortfolioSvc defines read operations over owned positions
type PortfolioSvc interface {
	ListUserMachines(ctx context.Context, userID string, activeOnly bool) ([]domain.UserMachine, error)
	GetShareSummary(ctx context.Context, userID string) (*domain.ShareSummary, error)

	// ListAllUserMachines pages through machine positions of every user.
	ListAllUserMachines(ctx context.Context, params dto.ListAllUserMachinesParams) (*dto.ListAllUserMachinesResponse, error)
}

// MarketSvcFacade combines all market-related service interfaces
type MarketSvcFacade interface {
	CatalogSvc
	TradingSvc
	PortfolioSvc
}
