package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/SscSPs/mining_ledger/internal/utils/accounting"
	"github.com/SscSPs/mining_ledger/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type marketService struct {
	BaseService
	executor      *Executor
	ledger        *Ledger
	reader        portsrepo.Store
	accrualPeriod time.Duration
}

// NewMarketService creates the catalog, trading and portfolio service.
func NewMarketService(executor *Executor, ledger *Ledger, reader portsrepo.Store, accrualPeriod time.Duration, options ...ServiceOption) portssvc.MarketSvcFacade {
	return &marketService{
		BaseService:   newBaseService(options...),
		executor:      executor,
		ledger:        ledger,
		reader:        reader,
		accrualPeriod: accrualPeriod,
	}
}

var _ portssvc.MarketSvcFacade = (*marketService)(nil)

// --- catalog ---

func (s *marketService) CreateMachine(ctx context.Context, req dto.CreateMachineRequest, adminID string) (*domain.Machine, error) {
	if err := validateMachineRequest(req); err != nil {
		return nil, err
	}
	now := s.now()
	machine := domain.Machine{
		MachineID:      uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Price:          domain.RoundMoney(req.Price),
		MonthlyProfit:  domain.RoundMoney(req.MonthlyProfit),
		IsShareBased:   req.IsShareBased,
		TotalShares:    req.TotalShares,
		SharePrice:     domain.RoundMoney(req.SharePrice),
		ProfitPerShare: req.ProfitPerShare,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     adminID,
			LastUpdatedAt: now,
			LastUpdatedBy: adminID,
		},
	}

	err := s.executor.Run(ctx, func(ctx context.Context, store portsrepo.Store) error {
		return store.Machines().SaveMachine(ctx, machine)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create machine", slog.String("name", machine.Name))
		return nil, err
	}
	s.LogInfo(ctx, "Machine added to catalog",
		slog.String("machine_id", machine.MachineID),
		slog.Bool("share_based", machine.IsShareBased))
	return &machine, nil
}

func validateMachineRequest(req dto.CreateMachineRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: machine name is required", apperrors.ErrValidation)
	}
	if req.IsShareBased {
		if req.TotalShares < 1 {
			return fmt.Errorf("%w: share-based machine needs totalShares >= 1", apperrors.ErrValidation)
		}
		if !req.SharePrice.IsPositive() {
			return fmt.Errorf("%w: share price must be positive", apperrors.ErrValidation)
		}
		if req.ProfitPerShare.IsNegative() {
			return fmt.Errorf("%w: profit per share cannot be negative", apperrors.ErrValidation)
		}
		return nil
	}
	if !req.Price.IsPositive() {
		return fmt.Errorf("%w: machine price must be positive", apperrors.ErrValidation)
	}
	if req.MonthlyProfit.IsNegative() {
		return fmt.Errorf("%w: monthly profit cannot be negative", apperrors.ErrValidation)
	}
	return nil
}

func (s *marketService) GetMachine(ctx context.Context, machineID string) (*domain.Machine, error) {
	machine, err := s.reader.Machines().FindMachineByID(ctx, machineID)
	if err != nil {
		return nil, err
	}
	return machine, nil
}

func (s *marketService) ListMachines(ctx context.Context) ([]domain.Machine, error) {
	machines, err := s.reader.Machines().ListMachines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	if machines == nil {
		return []domain.Machine{}, nil
	}
	return machines, nil
}

// --- trading ---

// purchaseOutcome carries what a committed purchase needs for post-commit work.
type purchaseOutcome struct {
	result   domain.PurchaseResult
	buyer    domain.User
	bonusTxn *domain.Transaction
}

func (s *marketService) PurchaseMachines(ctx context.Context, userID, machineID string, quantity int) (*domain.PurchaseResult, error) {
	if err := validatePurchase(userID, machineID, quantity); err != nil {
		return nil, err
	}
	logger := s.GetLogger(ctx).With(slog.String("machine_id", machineID), slog.Int("quantity", quantity))

	out, err := RunAtomic(ctx, s.executor, func(ctx context.Context, store portsrepo.Store) (*purchaseOutcome, error) {
		buyer, err := store.Users().FindUserByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("buyer %s: %w", userID, err)
		}
		machine, err := store.Machines().FindMachineByID(ctx, machineID)
		if err != nil {
			return nil, fmt.Errorf("machine %s: %w", machineID, err)
		}
		if machine.IsShareBased {
			return nil, fmt.Errorf("%w: machine %s is sold in shares", apperrors.ErrValidation, machineID)
		}

		cost := domain.RoundMoney(machine.Price.Mul(decimal.NewFromInt(int64(quantity))))
		if _, err := s.ledger.RequireFunds(ctx, store, userID, cost); err != nil {
			return nil, err
		}
		rate, err := s.bonusRate(ctx, store, userID, domain.TxMachinePurchase)
		if err != nil {
			return nil, err
		}

		now := s.now()
		positions := make([]domain.UserMachine, quantity)
		ids := make([]string, quantity)
		for i := range positions {
			positions[i] = domain.UserMachine{
				UserMachineID:     uuid.NewString(),
				UserID:            userID,
				MachineID:         machine.MachineID,
				PurchasePrice:     machine.Price,
				Status:            domain.PositionActive,
				AssignedDate:      now,
				TotalProfitEarned: decimal.Zero,
			}
			ids[i] = positions[i].UserMachineID
		}

		balance, txn, err := s.ledger.ApplyDelta(ctx, store, Entry{
			UserID:     userID,
			AdminDelta: cost.Neg(),
			Type:       domain.TxMachinePurchase,
			Details:    fmt.Sprintf("Purchased %d x %s", quantity, machine.Name),
			Metadata: domain.MachinePurchaseMetadata{
				MachineID:       machine.MachineID,
				MachineName:     machine.Name,
				Quantity:        quantity,
				PricePerUnit:    machine.Price,
				PositionIDs:     ids,
				BonusPercentage: rate.Mul(hundred),
			},
		})
		if err != nil {
			return nil, err
		}
		for _, p := range positions {
			if err := store.Machines().SaveUserMachine(ctx, p); err != nil {
				return nil, fmt.Errorf("failed to save machine position: %w", err)
			}
		}

		bonusTxn, err := s.applyReferral(ctx, store, buyer, cost, rate, txn)
		if err != nil {
			return nil, err
		}
		return &purchaseOutcome{
			result: domain.PurchaseResult{
				Transaction:      *txn,
				Balance:          *balance,
				Machines:         positions,
				BonusPercentage:  rate.Mul(hundred),
				ReferrerCredited: bonusTxn != nil,
			},
			buyer:    *buyer,
			bonusTxn: bonusTxn,
		}, nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Machine purchase failed", slog.String("machine_id", machineID), slog.String("user_id", userID))
		return nil, err
	}

	s.afterPurchase(ctx, out)
	logger.Info("Machines purchased", slog.String("transaction_id", out.result.Transaction.TransactionID),
		slog.String("amount", out.result.Transaction.Amount.String()))
	return &out.result, nil
}

func (s *marketService) PurchaseShares(ctx context.Context, userID, machineID string, quantity int) (*domain.PurchaseResult, error) {
	if err := validatePurchase(userID, machineID, quantity); err != nil {
		return nil, err
	}
	logger := s.GetLogger(ctx).With(slog.String("machine_id", machineID), slog.Int("shares", quantity))

	out, err := RunAtomic(ctx, s.executor, func(ctx context.Context, store portsrepo.Store) (*purchaseOutcome, error) {
		buyer, err := store.Users().FindUserByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("buyer %s: %w", userID, err)
		}
		// The lock serializes buyers of the same share class until commit.
		machine, err := store.Machines().LockMachine(ctx, machineID)
		if err != nil {
			return nil, fmt.Errorf("machine %s: %w", machineID, err)
		}
		if !machine.IsShareBased {
			return nil, fmt.Errorf("%w: machine %s is not sold in shares", apperrors.ErrValidation, machineID)
		}

		sold, err := store.Shares().CountActiveShares(ctx, machineID)
		if err != nil {
			return nil, fmt.Errorf("failed to count sold shares: %w", err)
		}
		if available := machine.TotalShares - sold; quantity > available {
			return nil, fmt.Errorf("%w: %d of %d shares available, %d requested",
				apperrors.ErrCapacityExceeded, max(available, 0), machine.TotalShares, quantity)
		}

		cost := domain.RoundMoney(machine.SharePrice.Mul(decimal.NewFromInt(int64(quantity))))
		if _, err := s.ledger.RequireFunds(ctx, store, userID, cost); err != nil {
			return nil, err
		}
		rate, err := s.bonusRate(ctx, store, userID, domain.TxSharePurchase)
		if err != nil {
			return nil, err
		}

		now := s.now()
		holding := domain.SharePurchase{
			SharePurchaseID:   uuid.NewString(),
			UserID:            userID,
			MachineID:         machine.MachineID,
			NumberOfShares:    quantity,
			PricePerShare:     machine.SharePrice,
			ProfitPerShare:    machine.ProfitPerShare,
			TotalInvestment:   cost,
			Status:            domain.PositionActive,
			PurchaseDate:      now,
			TotalProfitEarned: decimal.Zero,
		}

		balance, txn, err := s.ledger.ApplyDelta(ctx, store, Entry{
			UserID:     userID,
			AdminDelta: cost.Neg(),
			Type:       domain.TxSharePurchase,
			Details:    fmt.Sprintf("Purchased %d shares of %s", quantity, machine.Name),
			Metadata: domain.SharePurchaseMetadata{
				SharePurchaseID: holding.SharePurchaseID,
				MachineID:       machine.MachineID,
				MachineName:     machine.Name,
				NumberOfShares:  quantity,
				PricePerShare:   machine.SharePrice,
				ProfitPerShare:  machine.ProfitPerShare,
				BonusPercentage: rate.Mul(hundred),
			},
		})
		if err != nil {
			return nil, err
		}
		if err := store.Shares().SaveSharePurchase(ctx, holding); err != nil {
			return nil, fmt.Errorf("failed to save share holding: %w", err)
		}

		bonusTxn, err := s.applyReferral(ctx, store, buyer, cost, rate, txn)
		if err != nil {
			return nil, err
		}
		return &purchaseOutcome{
			result: domain.PurchaseResult{
				Transaction:      *txn,
				Balance:          *balance,
				Shares:           &holding,
				BonusPercentage:  rate.Mul(hundred),
				ReferrerCredited: bonusTxn != nil,
			},
			buyer:    *buyer,
			bonusTxn: bonusTxn,
		}, nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Share purchase failed", slog.String("machine_id", machineID), slog.String("user_id", userID))
		return nil, err
	}

	s.afterPurchase(ctx, out)
	logger.Info("Shares purchased", slog.String("transaction_id", out.result.Transaction.TransactionID),
		slog.String("amount", out.result.Transaction.Amount.String()))
	return &out.result, nil
}

func validatePurchase(userID, machineID string, quantity int) error {
	if userID == "" || machineID == "" {
		return fmt.Errorf("%w: user and machine ids are required", apperrors.ErrValidation)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", apperrors.ErrValidation)
	}
	if quantity > domain.MaxOrderQuantity {
		return fmt.Errorf("%w: quantity %d exceeds the per-order limit of %d",
			apperrors.ErrValidation, quantity, domain.MaxOrderQuantity)
	}
	return nil
}

// bonusRate derives the tier from the buyer's completed purchases of txType
// stored so far in this session.
func (s *marketService) bonusRate(ctx context.Context, store portsrepo.Store, userID string, txType domain.TransactionType) (decimal.Decimal, error) {
	prior, err := store.Transactions().CountTransactions(ctx, userID, txType, domain.StatusCompleted)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to count prior purchases: %w", err)
	}
	return accounting.BonusRate(prior), nil
}

// applyReferral grows the buyer's discount, activates the referral and
// credits the referrer. It returns the referrer's bonus entry, if any.
func (s *marketService) applyReferral(ctx context.Context, store portsrepo.Store, buyer *domain.User, cost, rate decimal.Decimal, purchase *domain.Transaction) (*domain.Transaction, error) {
	buyer.Discount = buyer.Discount.Add(cost.Mul(rate).Round(2))
	buyer.ReferralStatus = domain.ReferralActive
	buyer.LastUpdatedAt = s.now()
	if err := store.Users().UpdateReferral(ctx, *buyer); err != nil {
		return nil, fmt.Errorf("failed to update buyer discount: %w", err)
	}

	if buyer.ReferrerID == nil || *buyer.ReferrerID == "" || *buyer.ReferrerID == buyer.UserID {
		return nil, nil
	}
	referrerID := *buyer.ReferrerID
	if _, err := store.Users().FindUserByID(ctx, referrerID); err != nil {
		if apperrors.IsNotFound(err) {
			s.GetLogger(ctx).Warn("Referrer not found, skipping bonus",
				slog.String("user_id", buyer.UserID), slog.String("referrer_id", referrerID))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load referrer %s: %w", referrerID, err)
	}

	bonus := domain.RoundMoney(cost.Mul(rate))
	if !bonus.IsPositive() {
		return nil, nil
	}
	_, txn, err := s.ledger.ApplyDelta(ctx, store, Entry{
		UserID:     referrerID,
		AdminDelta: bonus,
		Type:       domain.TxReferralBonus,
		Details:    fmt.Sprintf("Referral bonus for purchase by %s", buyer.Name),
		Metadata: domain.ReferralBonusMetadata{
			ReferredUserID:      buyer.UserID,
			SourceTransactionID: purchase.TransactionID,
			PurchaseType:        purchase.Type,
			Percentage:          rate.Mul(hundred),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit referrer %s: %w", referrerID, err)
	}
	return txn, nil
}

func (s *marketService) afterPurchase(ctx context.Context, out *purchaseOutcome) {
	if out.bonusTxn != nil {
		s.committed(out.result.Transaction, *out.bonusTxn)
	} else {
		s.committed(out.result.Transaction)
	}
	txn := out.result.Transaction
	s.notify(ctx, domain.Notification{
		Kind:          domain.NotifyPurchaseConfirmed,
		UserID:        out.buyer.UserID,
		Email:         out.buyer.Email,
		TransactionID: txn.TransactionID,
		Subject:       "Purchase confirmed",
		Data: map[string]any{
			"type":          string(txn.Type),
			"amount":        txn.Amount.StringFixed(2),
			"balanceAfter":  txn.BalanceAfter.StringFixed(2),
			"bonusPercent":  out.result.BonusPercentage.String(),
			"referrerBonus": out.bonusTxn != nil,
		},
	})
}

// saleOutcome carries what a committed sale needs for post-commit work.
type saleOutcome struct {
	result domain.SaleResult
}

func (s *marketService) CheckPurchaseEligibility(ctx context.Context, userID, machineID string, quantity int) (*domain.PurchaseEligibility, error) {
	if err := validatePurchase(userID, machineID, quantity); err != nil {
		return nil, err
	}
	if _, err := s.reader.Users().FindUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("buyer %s: %w", userID, err)
	}
	machine, err := s.reader.Machines().FindMachineByID(ctx, machineID)
	if err != nil {
		return nil, fmt.Errorf("machine %s: %w", machineID, err)
	}

	funds := decimal.Zero
	balance, err := s.reader.Balances().FindBalance(ctx, userID)
	switch {
	case err == nil:
		funds = balance.TotalBalance
	case !apperrors.IsNotFound(err):
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	unit := machine.Price
	if machine.IsShareBased {
		unit = machine.SharePrice
	}
	required := domain.RoundMoney(unit.Mul(decimal.NewFromInt(int64(quantity))))
	result := &domain.PurchaseEligibility{
		MachineID:      machine.MachineID,
		MachineName:    machine.Name,
		IsShareBased:   machine.IsShareBased,
		Quantity:       quantity,
		PricePerUnit:   unit,
		RequiredAmount: required,
		UserBalance:    funds,
		Shortfall:      decimal.Zero,
	}

	if machine.IsShareBased {
		sold, err := s.reader.Shares().CountActiveShares(ctx, machineID)
		if err != nil {
			return nil, fmt.Errorf("failed to count sold shares: %w", err)
		}
		available := max(machine.TotalShares-sold, 0)
		result.AvailableShares = &available
		if quantity > available {
			result.Reason = apperrors.Reason(apperrors.ErrCapacityExceeded)
		}
	}
	if required.GreaterThan(funds) {
		result.Shortfall = required.Sub(funds)
		if result.Reason == "" {
			result.Reason = apperrors.Reason(apperrors.ErrInsufficientFunds)
		}
	}
	result.CanPurchase = result.Reason == ""
	return result, nil
}

func (s *marketService) SellAsset(ctx context.Context, userID string, kind domain.AssetKind, positionID string, quantity int) (*domain.SaleResult, error) {
	if userID == "" || positionID == "" {
		return nil, fmt.Errorf("%w: user and position ids are required", apperrors.ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", apperrors.ErrInvalidSale)
	}

	var sell func(ctx context.Context, store portsrepo.Store) (*saleOutcome, error)
	switch kind {
	case domain.AssetMachine:
		sell = func(ctx context.Context, store portsrepo.Store) (*saleOutcome, error) {
			return s.sellMachine(ctx, store, userID, positionID, quantity)
		}
	case domain.AssetShare:
		sell = func(ctx context.Context, store portsrepo.Store) (*saleOutcome, error) {
			return s.sellShares(ctx, store, userID, positionID, quantity)
		}
	default:
		return nil, fmt.Errorf("%w: unknown asset kind %q", apperrors.ErrValidation, kind)
	}

	out, err := RunAtomic(ctx, s.executor, sell)
	if err != nil {
		s.logFailure(ctx, err, "Sale failed",
			slog.String("kind", string(kind)), slog.String("position_id", positionID), slog.String("user_id", userID))
		return nil, err
	}

	txn := out.result.Transaction
	s.committed(txn)
	s.notify(ctx, domain.Notification{
		Kind:          domain.NotifySaleConfirmed,
		UserID:        userID,
		TransactionID: txn.TransactionID,
		Subject:       "Sale confirmed",
		Data: map[string]any{
			"type":         string(txn.Type),
			"soldUnits":    out.result.SoldUnits,
			"sellingPrice": out.result.SellingPrice.StringFixed(2),
			"deduction":    out.result.Deduction.StringFixed(2),
		},
	})
	s.LogInfo(ctx, "Position sold",
		slog.String("kind", string(kind)),
		slog.String("position_id", positionID),
		slog.Int("units", out.result.SoldUnits),
		slog.String("transaction_id", txn.TransactionID))
	return &out.result, nil
}

func (s *marketService) sellMachine(ctx context.Context, store portsrepo.Store, userID, positionID string, quantity int) (*saleOutcome, error) {
	pos, err := store.Machines().LockUserMachine(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("machine position %s: %w", positionID, err)
	}
	if pos.UserID != userID {
		return nil, fmt.Errorf("machine position %s: %w", positionID, apperrors.ErrNotFound)
	}
	if pos.Status != domain.PositionActive {
		return nil, fmt.Errorf("%w: machine position %s is already sold", apperrors.ErrInvalidSale, positionID)
	}
	if quantity != 1 {
		return nil, fmt.Errorf("%w: a machine position holds 1 unit, %d requested", apperrors.ErrInvalidSale, quantity)
	}

	name := ""
	if machine, err := store.Machines().FindMachineByID(ctx, pos.MachineID); err == nil {
		name = machine.Name
	} else if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to load machine %s: %w", pos.MachineID, err)
	}

	sellingPrice, deduction := accounting.SaleProceeds(pos.PurchasePrice, 1)
	pos.Status = domain.PositionInactive
	if err := store.Machines().UpdateUserMachine(ctx, *pos); err != nil {
		return nil, fmt.Errorf("failed to deactivate machine position: %w", err)
	}

	balance, txn, err := s.ledger.ApplyDelta(ctx, store, Entry{
		UserID:     userID,
		AdminDelta: sellingPrice,
		Type:       domain.TxMachineSale,
		Details:    fmt.Sprintf("Sold %s", name),
		Metadata: domain.MachineSaleMetadata{
			UserMachineID: pos.UserMachineID,
			MachineID:     pos.MachineID,
			MachineName:   name,
			OriginalPrice: pos.PurchasePrice,
			Deduction:     deduction,
			SellingPrice:  sellingPrice,
		},
	})
	if err != nil {
		return nil, err
	}
	return &saleOutcome{result: domain.SaleResult{
		Transaction:    *txn,
		Balance:        *balance,
		SoldUnits:      1,
		RemainingUnits: 0,
		SellingPrice:   sellingPrice,
		Deduction:      deduction,
	}}, nil
}

func (s *marketService) sellShares(ctx context.Context, store portsrepo.Store, userID, positionID string, quantity int) (*saleOutcome, error) {
	holding, err := store.Shares().LockSharePurchase(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("share holding %s: %w", positionID, err)
	}
	if holding.UserID != userID {
		return nil, fmt.Errorf("share holding %s: %w", positionID, apperrors.ErrNotFound)
	}
	if holding.Status != domain.PositionActive {
		return nil, fmt.Errorf("%w: share holding %s is already sold", apperrors.ErrInvalidSale, positionID)
	}
	owned := holding.NumberOfShares
	if quantity > owned {
		return nil, fmt.Errorf("%w: %d shares owned, %d requested", apperrors.ErrInvalidSale, owned, quantity)
	}

	originalValue := domain.RoundMoney(holding.PricePerShare.Mul(decimal.NewFromInt(int64(owned))))
	sellingPrice, deduction := accounting.SaleProceeds(holding.PricePerShare, quantity)
	remaining := owned - quantity
	if remaining == 0 {
		holding.Status = domain.PositionInactive
	} else {
		holding.NumberOfShares = remaining
		holding.TotalInvestment = domain.RoundMoney(holding.PricePerShare.Mul(decimal.NewFromInt(int64(remaining))))
	}
	if err := store.Shares().UpdateSharePurchase(ctx, *holding); err != nil {
		return nil, fmt.Errorf("failed to update share holding: %w", err)
	}

	balance, txn, err := s.ledger.ApplyDelta(ctx, store, Entry{
		UserID:     userID,
		AdminDelta: sellingPrice,
		Type:       domain.TxShareSale,
		Details:    fmt.Sprintf("Sold %d of %d shares", quantity, owned),
		Metadata: domain.ShareSaleMetadata{
			SharePurchaseID: holding.SharePurchaseID,
			MachineID:       holding.MachineID,
			OriginalShares:  owned,
			SoldShares:      quantity,
			OriginalValue:   originalValue,
			Deduction:       deduction,
			SellingPrice:    sellingPrice,
		},
	})
	if err != nil {
		return nil, err
	}
	return &saleOutcome{result: domain.SaleResult{
		Transaction:    *txn,
		Balance:        *balance,
		SoldUnits:      quantity,
		RemainingUnits: remaining,
		SellingPrice:   sellingPrice,
		Deduction:      deduction,
	}}, nil
}

// --- portfolio ---

func (s *marketService) ListUserMachines(ctx context.Context, userID string, activeOnly bool) ([]domain.UserMachine, error) {
	positions, err := s.reader.Machines().ListUserMachines(ctx, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list machine positions: %w", err)
	}
	if positions == nil {
		return []domain.UserMachine{}, nil
	}
	return positions, nil
}

func (s *marketService) ListAllUserMachines(ctx context.Context, params dto.ListAllUserMachinesParams) (*dto.ListAllUserMachinesResponse, error) {
	status := domain.PositionStatus(params.Status)
	if status != "" && status != domain.PositionActive && status != domain.PositionInactive {
		return nil, fmt.Errorf("%w: unknown position status %q", apperrors.ErrValidation, params.Status)
	}
	filter := portsrepo.UserMachineFilter{
		UserID:    params.UserID,
		MachineID: params.MachineID,
		Status:    status,
		Limit:     pagination.NormalizeLimit(params.Limit, 50, 200),
		Offset:    max(params.Offset, 0),
	}

	positions, total, err := s.reader.Machines().ListAllUserMachines(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list machine positions: %w", err)
	}
	if positions == nil {
		positions = []domain.UserMachine{}
	}
	return &dto.ListAllUserMachinesResponse{
		Machines: positions,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

func (s *marketService) GetShareSummary(ctx context.Context, userID string) (*domain.ShareSummary, error) {
	holdings, err := s.reader.Shares().ListSharePurchases(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list share holdings: %w", err)
	}

	summary := &domain.ShareSummary{
		Positions:         make([]domain.SharePositionView, 0, len(holdings)),
		TotalInvestment:   decimal.Zero,
		TotalProfitEarned: decimal.Zero,
	}
	for _, h := range holdings {
		summary.Positions = append(summary.Positions, domain.SharePositionView{
			SharePurchase:    h,
			NextProfitUpdate: h.AccrualAnchor().Add(s.accrualPeriod),
		})
		summary.TotalShares += h.NumberOfShares
		summary.TotalInvestment = summary.TotalInvestment.Add(h.TotalInvestment)
		summary.TotalProfitEarned = summary.TotalProfitEarned.Add(h.TotalProfitEarned)
	}
	return summary, nil
}
