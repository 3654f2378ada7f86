package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/platform/metrics"
	"github.com/shopspring/decimal"
)

// AccrualConfig controls the profit accrual run.
type AccrualConfig struct {
	// Period is how long a position waits between two credits.
	Period time.Duration
	// BatchSize is the number of owners settled per atomic session.
	BatchSize int
}

type accrualService struct {
	BaseService
	executor *Executor
	ledger   *Ledger
	reader   portsrepo.Store
	cfg      AccrualConfig
}

// NewAccrualService creates the profit accrual service.
func NewAccrualService(executor *Executor, ledger *Ledger, reader portsrepo.Store, cfg AccrualConfig, options ...ServiceOption) portssvc.AccrualSvc {
	if cfg.Period <= 0 {
		cfg.Period = 30 * 24 * time.Hour
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}
	return &accrualService{
		BaseService: newBaseService(options...),
		executor:    executor,
		ledger:      ledger,
		reader:      reader,
		cfg:         cfg,
	}
}

var _ portssvc.AccrualSvc = (*accrualService)(nil)

// accrualTally is the outcome of one committed batch. machines and shares
// count positions that received a profit entry; zero-profit positions are
// advanced without being counted.
type accrualTally struct {
	machines int
	shares   int
	txns     []domain.Transaction
	credited map[string]decimal.Decimal
	emails   map[string]string
}

func (t accrualTally) total() int { return t.machines + t.shares }

// RunAccrualBatch credits every due position. Owners are split into batches
// of cfg.BatchSize users; each batch commits or aborts as a whole, and a
// failed batch is left for the next run.
func (s *accrualService) RunAccrualBatch(ctx context.Context) (int, error) {
	logger := s.GetLogger(ctx)
	now := s.now()
	cutoff := now.Add(-s.cfg.Period)

	owners, err := s.dueOwners(ctx, cutoff)
	if err != nil {
		metrics.AccrualRuns.WithLabelValues("error").Inc()
		s.LogError(ctx, err, "Failed to list accrual owners")
		return 0, err
	}
	if len(owners) == 0 {
		metrics.AccrualRuns.WithLabelValues("success").Inc()
		logger.Debug("No positions due for accrual")
		return 0, nil
	}

	credited := 0
	var errs []error
	for start := 0; start < len(owners); start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		batch := owners[start:min(start+s.cfg.BatchSize, len(owners))]

		tally, err := RunAtomic(ctx, s.executor, func(ctx context.Context, store portsrepo.Store) (accrualTally, error) {
			return s.accrue(ctx, store, batch, now, cutoff)
		})
		if err != nil {
			errs = append(errs, err)
			s.LogError(ctx, err, "Accrual batch aborted",
				slog.String("first_user_id", batch[0]), slog.Int("users", len(batch)))
			continue
		}

		s.committed(tally.txns...)
		metrics.AccrualPositionsCredited.WithLabelValues(string(domain.AssetMachine)).Add(float64(tally.machines))
		metrics.AccrualPositionsCredited.WithLabelValues(string(domain.AssetShare)).Add(float64(tally.shares))
		s.announce(ctx, tally, now)
		credited += tally.total()
	}

	if len(errs) > 0 {
		metrics.AccrualRuns.WithLabelValues("partial").Inc()
		logger.Warn("Accrual run finished with failed batches",
			slog.Int("credited", credited), slog.Int("failed_batches", len(errs)))
		return credited, fmt.Errorf("%d accrual batch(es) failed: %w", len(errs), errors.Join(errs...))
	}

	metrics.AccrualRuns.WithLabelValues("success").Inc()
	logger.Info("Accrual run finished", slog.Int("credited", credited), slog.Int("owners", len(owners)))
	return credited, nil
}

// dueOwners merges the owners of due machine and share positions into one
// sorted, de-duplicated list.
func (s *accrualService) dueOwners(ctx context.Context, cutoff time.Time) ([]string, error) {
	machineOwners, err := s.reader.Machines().ListMachineAccrualOwners(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list machine owners: %w", err)
	}
	shareOwners, err := s.reader.Shares().ListShareAccrualOwners(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list share owners: %w", err)
	}

	seen := make(map[string]struct{}, len(machineOwners)+len(shareOwners))
	owners := make([]string, 0, len(machineOwners)+len(shareOwners))
	for _, id := range append(machineOwners, shareOwners...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		owners = append(owners, id)
	}
	sort.Strings(owners)
	return owners, nil
}

// accrue settles the due positions of userIDs inside one session.
func (s *accrualService) accrue(ctx context.Context, store portsrepo.Store, userIDs []string, now, cutoff time.Time) (accrualTally, error) {
	logger := s.GetLogger(ctx)
	tally := accrualTally{
		credited: make(map[string]decimal.Decimal),
		emails:   make(map[string]string),
	}

	machines, err := store.Machines().ListDueUserMachines(ctx, userIDs, cutoff)
	if err != nil {
		return tally, fmt.Errorf("failed to list due machine positions: %w", err)
	}
	shares, err := store.Shares().ListDueSharePurchases(ctx, userIDs, cutoff)
	if err != nil {
		return tally, fmt.Errorf("failed to list due share holdings: %w", err)
	}

	owners := make(map[string]bool)
	ownerExists := func(userID string) (bool, error) {
		if ok, cached := owners[userID]; cached {
			return ok, nil
		}
		user, err := store.Users().FindUserByID(ctx, userID)
		switch {
		case err == nil:
			owners[userID] = true
			tally.emails[userID] = user.Email
			return true, nil
		case apperrors.IsNotFound(err):
			owners[userID] = false
			return false, nil
		default:
			return false, fmt.Errorf("failed to resolve owner %s: %w", userID, err)
		}
	}

	catalog := newCatalogCache(store.Machines())
	for _, pos := range machines {
		if !pos.DueForAccrual(now, s.cfg.Period) {
			continue
		}
		ok, err := ownerExists(pos.UserID)
		if err != nil {
			return tally, err
		}
		if !ok {
			logger.Warn("Skipping machine position without owner",
				slog.String("user_machine_id", pos.UserMachineID), slog.String("user_id", pos.UserID))
			continue
		}
		machine, err := catalog.get(ctx, pos.MachineID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				logger.Warn("Skipping machine position with unknown machine",
					slog.String("user_machine_id", pos.UserMachineID), slog.String("machine_id", pos.MachineID))
				continue
			}
			return tally, fmt.Errorf("failed to load machine %s: %w", pos.MachineID, err)
		}

		profit := domain.RoundMoney(machine.MonthlyProfit)
		if profit.IsPositive() {
			_, txn, err := s.ledger.ApplyDelta(ctx, store, Entry{
				UserID:      pos.UserID,
				MiningDelta: profit,
				Type:        domain.TxMachineProfit,
				Details:     fmt.Sprintf("Mining profit from %s", machine.Name),
				Metadata: domain.MachineProfitMetadata{
					UserMachineID: pos.UserMachineID,
					MachineID:     machine.MachineID,
					MachineName:   machine.Name,
				},
			})
			if err != nil {
				return tally, err
			}
			tally.txns = append(tally.txns, *txn)
			tally.credited[pos.UserID] = tally.credited[pos.UserID].Add(profit)
			tally.machines++
		}

		anchor := now
		pos.LastProfitUpdate = &anchor
		pos.TotalProfitEarned = pos.TotalProfitEarned.Add(profit)
		if err := store.Machines().UpdateUserMachine(ctx, pos); err != nil {
			return tally, fmt.Errorf("failed to advance machine position %s: %w", pos.UserMachineID, err)
		}
	}

	for _, holding := range shares {
		if !holding.DueForAccrual(now, s.cfg.Period) {
			continue
		}
		ok, err := ownerExists(holding.UserID)
		if err != nil {
			return tally, err
		}
		if !ok {
			logger.Warn("Skipping share holding without owner",
				slog.String("share_purchase_id", holding.SharePurchaseID), slog.String("user_id", holding.UserID))
			continue
		}

		profit := holding.PeriodProfit()
		if profit.IsPositive() {
			_, txn, err := s.ledger.ApplyDelta(ctx, store, Entry{
				UserID:      holding.UserID,
				MiningDelta: profit,
				Type:        domain.TxShareProfit,
				Details:     fmt.Sprintf("Profit on %d shares", holding.NumberOfShares),
				Metadata: domain.ShareProfitMetadata{
					SharePurchaseID: holding.SharePurchaseID,
					MachineID:       holding.MachineID,
					NumberOfShares:  holding.NumberOfShares,
					ProfitPerShare:  holding.ProfitPerShare,
				},
			})
			if err != nil {
				return tally, err
			}
			tally.txns = append(tally.txns, *txn)
			tally.credited[holding.UserID] = tally.credited[holding.UserID].Add(profit)
			tally.shares++
		}

		anchor := now
		holding.LastProfitUpdate = &anchor
		holding.TotalProfitEarned = holding.TotalProfitEarned.Add(profit)
		if err := store.Shares().UpdateSharePurchase(ctx, holding); err != nil {
			return tally, fmt.Errorf("failed to advance share holding %s: %w", holding.SharePurchaseID, err)
		}
	}

	return tally, nil
}

// announce sends one notification per credited user.
func (s *accrualService) announce(ctx context.Context, tally accrualTally, now time.Time) {
	for userID, amount := range tally.credited {
		s.notify(ctx, domain.Notification{
			Kind:       domain.NotifyProfitCredited,
			UserID:     userID,
			Email:      tally.emails[userID],
			Subject:    "Mining profit credited",
			Data:       map[string]any{"amount": amount.StringFixed(2)},
			OccurredAt: now,
		})
	}
}
