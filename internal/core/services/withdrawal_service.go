package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/SscSPs/mining_ledger/internal/utils/pagination"
	"github.com/google/uuid"
)

// withdrawalHistoryTypes are the entries shown in a user's payout history.
var withdrawalHistoryTypes = []domain.TransactionType{domain.TxWithdrawal, domain.TxAdminAdd}

type withdrawalService struct {
	BaseService
	executor *Executor
	ledger   *Ledger
	reader   portsrepo.Store
}

// NewWithdrawalService creates the withdrawal processor. Funds stay in the
// balance until a reviewer approves the request.
func NewWithdrawalService(executor *Executor, ledger *Ledger, reader portsrepo.Store, options ...ServiceOption) portssvc.WithdrawalSvcFacade {
	return &withdrawalService{
		BaseService: newBaseService(options...),
		executor:    executor,
		ledger:      ledger,
		reader:      reader,
	}
}

var _ portssvc.WithdrawalSvcFacade = (*withdrawalService)(nil)

type withdrawalOutcome struct {
	txn     domain.Transaction
	balance *domain.Balance
	email   string
}

func (s *withdrawalService) RequestWithdrawal(ctx context.Context, userID string, req dto.CreateWithdrawalRequest) (*domain.Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperrors.ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	wallet := strings.TrimSpace(req.WalletAddress)
	network := strings.TrimSpace(req.Network)
	if wallet == "" || network == "" {
		return nil, fmt.Errorf("%w: wallet address and network are required", apperrors.ErrValidation)
	}
	amount := domain.RoundMoney(req.Amount)

	out, err := RunAtomic(ctx, s.executor, func(ctx context.Context, store portsrepo.Store) (*withdrawalOutcome, error) {
		user, err := store.Users().FindUserByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", userID, err)
		}
		balance, err := s.ledger.RequireFunds(ctx, store, userID, amount)
		if err != nil {
			return nil, err
		}

		txn := domain.Transaction{
			TransactionID:   uuid.NewString(),
			UserID:          userID,
			Amount:          amount,
			Type:            domain.TxWithdrawal,
			Status:          domain.StatusPending,
			BalanceBefore:   balance.TotalBalance,
			BalanceAfter:    balance.TotalBalance,
			Details:         fmt.Sprintf("Withdrawal to %s (%s)", wallet, network),
			Metadata:        domain.WithdrawalMetadata{WalletAddress: wallet, Network: network},
			TransactionDate: s.now(),
		}
		if err := s.ledger.Record(ctx, store, txn); err != nil {
			return nil, err
		}
		return &withdrawalOutcome{txn: txn, balance: balance, email: user.Email}, nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Withdrawal request failed", slog.String("user_id", userID), slog.String("amount", amount.String()))
		return nil, err
	}

	s.notify(ctx, domain.Notification{
		Kind:          domain.NotifyWithdrawalRequested,
		UserID:        userID,
		Email:         out.email,
		TransactionID: out.txn.TransactionID,
		Subject:       "Withdrawal request received",
		Data: map[string]any{
			"amount":  out.txn.Amount.StringFixed(2),
			"network": network,
		},
	})
	s.LogInfo(ctx, "Withdrawal requested",
		slog.String("transaction_id", out.txn.TransactionID),
		slog.String("amount", amount.String()))
	return &out.txn, nil
}

func (s *withdrawalService) DecideWithdrawal(ctx context.Context, transactionID string, req dto.WithdrawalDecisionRequest, reviewerID string) (*domain.Transaction, *domain.Balance, error) {
	if transactionID == "" || reviewerID == "" {
		return nil, nil, fmt.Errorf("%w: transaction and reviewer ids are required", apperrors.ErrValidation)
	}
	if !req.Decision.Valid() {
		return nil, nil, fmt.Errorf("%w: decision must be approved or rejected", apperrors.ErrValidation)
	}

	out, err := RunAtomic(ctx, s.executor, func(ctx context.Context, store portsrepo.Store) (*withdrawalOutcome, error) {
		txn, err := store.Transactions().LockTransaction(ctx, transactionID)
		if err != nil {
			return nil, fmt.Errorf("withdrawal %s: %w", transactionID, err)
		}
		if txn.Type != domain.TxWithdrawal {
			return nil, fmt.Errorf("withdrawal %s: %w", transactionID, apperrors.ErrNotFound)
		}
		if txn.Status != domain.StatusPending {
			return nil, fmt.Errorf("%w: withdrawal %s is %s", apperrors.ErrAlreadyProcessed, transactionID, txn.Status)
		}

		var balance *domain.Balance
		switch req.Decision {
		case domain.DecisionApproved:
			// Funds are checked again: the balance may have moved since the request.
			before, after, err := s.ledger.DrawDown(ctx, store, txn.UserID, txn.Amount)
			if err != nil {
				return nil, err
			}
			txn.Status = domain.StatusApproved
			txn.BalanceBefore = before.TotalBalance
			txn.BalanceAfter = after.TotalBalance
			balance = &after
		case domain.DecisionRejected:
			txn.Status = domain.StatusRejected
			current, err := store.Balances().FindBalance(ctx, txn.UserID)
			if err != nil && !apperrors.IsNotFound(err) {
				return nil, fmt.Errorf("failed to read balance: %w", err)
			}
			balance = current
		}

		processedAt := s.now()
		txn.ProcessedBy = &reviewerID
		txn.ProcessedAt = &processedAt
		if comment := strings.TrimSpace(req.Comment); comment != "" {
			txn.AdminComment = &comment
		}
		if err := store.Transactions().SettleTransaction(ctx, *txn); err != nil {
			return nil, err
		}

		email := ""
		if user, err := store.Users().FindUserByID(ctx, txn.UserID); err == nil {
			email = user.Email
		}
		return &withdrawalOutcome{txn: *txn, balance: balance, email: email}, nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Withdrawal decision failed",
			slog.String("transaction_id", transactionID), slog.String("decision", string(req.Decision)))
		return nil, nil, err
	}

	if out.txn.Status == domain.StatusApproved {
		s.committed(out.txn)
	}
	data := map[string]any{
		"amount":   out.txn.Amount.StringFixed(2),
		"decision": string(req.Decision),
	}
	if out.txn.AdminComment != nil {
		data["comment"] = *out.txn.AdminComment
	}
	s.notify(ctx, domain.Notification{
		Kind:          domain.NotifyWithdrawalDecided,
		UserID:        out.txn.UserID,
		Email:         out.email,
		TransactionID: out.txn.TransactionID,
		Subject:       "Withdrawal " + string(req.Decision),
		Data:          data,
	})
	s.LogInfo(ctx, "Withdrawal decided",
		slog.String("transaction_id", transactionID),
		slog.String("decision", string(req.Decision)),
		slog.String("reviewer_id", reviewerID))
	return &out.txn, out.balance, nil
}

func (s *withdrawalService) ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	limit = pagination.NormalizeLimit(limit, 50, 200)
	if offset < 0 {
		offset = 0
	}
	txns, err := s.reader.Transactions().ListTransactionsByStatus(ctx, domain.TxWithdrawal, domain.StatusPending, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	if txns == nil {
		return []domain.Transaction{}, nil
	}
	return txns, nil
}

func (s *withdrawalService) ListWithdrawalHistory(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	return listHistory(ctx, s.reader, userID, withdrawalHistoryTypes, params)
}

func (s *withdrawalService) GetWithdrawalStats(ctx context.Context) ([]domain.WithdrawalStat, error) {
	stats, err := s.reader.Transactions().WithdrawalStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate withdrawals: %w", err)
	}
	if stats == nil {
		return []domain.WithdrawalStat{}, nil
	}
	return stats, nil
}

func (s *withdrawalService) ListWithdrawals(ctx context.Context, params dto.ListWithdrawalsParams) (*dto.ListWithdrawalsResponse, error) {
	status := domain.TransactionStatus(params.Status)
	switch status {
	case "", domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
	default:
		return nil, fmt.Errorf("%w: unknown withdrawal status %q", apperrors.ErrValidation, params.Status)
	}
	if !params.From.IsZero() && !params.To.IsZero() && params.From.After(params.To) {
		return nil, fmt.Errorf("%w: from must not be after to", apperrors.ErrValidation)
	}
	filter := portsrepo.WithdrawalFilter{
		Status:    status,
		From:      params.From,
		To:        params.To,
		Ascending: params.Sort == "asc",
		Limit:     pagination.NormalizeLimit(params.Limit, 50, 200),
		Offset:    max(params.Offset, 0),
	}

	txns, err := s.reader.Transactions().ListWithdrawals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	summary, err := s.reader.Transactions().SummarizeWithdrawals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize withdrawals: %w", err)
	}
	return &dto.ListWithdrawalsResponse{
		Withdrawals: dto.ToTransactionResponses(txns),
		Total:       summary.Count,
		TotalAmount: summary.Total,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}, nil
}
