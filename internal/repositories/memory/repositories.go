package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

var errReadOnly = errors.New("memory store: write outside a session")

// session implements every repository over one state.
type session struct {
	st       *state
	readOnly bool
}

var _ portsrepo.Store = (*session)(nil)

func (s *session) Balances() portsrepo.BalanceRepositoryFacade         { return s }
func (s *session) Transactions() portsrepo.TransactionRepositoryFacade { return s }
func (s *session) Machines() portsrepo.MachineRepositoryFacade         { return s }
func (s *session) Shares() portsrepo.ShareRepositoryFacade             { return s }
func (s *session) Users() portsrepo.UserRepositoryFacade               { return s }

func (s *session) writable() error {
	if s.readOnly {
		return errReadOnly
	}
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// --- balances ---

func (s *session) FindBalance(_ context.Context, userID string) (*domain.Balance, error) {
	b, ok := s.st.balances[userID]
	if !ok {
		return nil, fmt.Errorf("balance for user %s: %w", userID, apperrors.ErrNotFound)
	}
	return &b, nil
}

func (s *session) ListBalances(_ context.Context, limit, offset int) ([]domain.Balance, error) {
	out := make([]domain.Balance, 0, len(s.st.balances))
	for _, b := range s.st.balances {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastUpdated.Equal(out[j].LastUpdated) {
			return out[i].LastUpdated.After(out[j].LastUpdated)
		}
		return out[i].UserID < out[j].UserID
	})
	return page(out, limit, offset), nil
}

func (s *session) GetOrCreateBalance(_ context.Context, userID string, now time.Time) (*domain.Balance, error) {
	if b, ok := s.st.balances[userID]; ok {
		return &b, nil
	}
	if err := s.writable(); err != nil {
		return nil, err
	}
	b := domain.NewBalance(userID, now)
	s.st.balances[userID] = b
	return &b, nil
}

func (s *session) UpdateBalance(_ context.Context, balance domain.Balance) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, ok := s.st.balances[balance.UserID]; !ok {
		return fmt.Errorf("balance for user %s: %w", balance.UserID, apperrors.ErrNotFound)
	}
	if !balance.Consistent() || balance.TotalBalance.IsNegative() {
		return fmt.Errorf("balance for user %s violates its constraints", balance.UserID)
	}
	s.st.balances[balance.UserID] = balance
	return nil
}

// --- transactions ---

func (s *session) FindTransactionByID(_ context.Context, transactionID string) (*domain.Transaction, error) {
	t, ok := s.st.transactions[transactionID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrNotFound)
	}
	return &t, nil
}

func (s *session) CountTransactions(_ context.Context, userID string, txType domain.TransactionType, status domain.TransactionStatus) (int, error) {
	n := 0
	for _, t := range s.st.transactions {
		if t.UserID == userID && t.Type == txType && t.Status == status {
			n++
		}
	}
	return n, nil
}

// newestFirst orders by transaction date then id, both descending.
func newestFirst(a, b domain.Transaction) bool {
	if !a.TransactionDate.Equal(b.TransactionDate) {
		return a.TransactionDate.After(b.TransactionDate)
	}
	return a.TransactionID > b.TransactionID
}

func (s *session) ListUserTransactions(_ context.Context, userID string, filter portsrepo.TransactionFilter) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0)
	for _, t := range s.st.transactions {
		if t.UserID != userID {
			continue
		}
		if len(filter.Types) > 0 && !slices.Contains(filter.Types, t.Type) {
			continue
		}
		if !filter.BeforeDate.IsZero() {
			cursor := domain.Transaction{TransactionDate: filter.BeforeDate, TransactionID: filter.BeforeID}
			if !newestFirst(cursor, t) {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i], out[j]) })
	return page(out, filter.Limit, 0), nil
}

func (s *session) ListTransactionsByStatus(_ context.Context, txType domain.TransactionType, status domain.TransactionStatus, limit, offset int) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0)
	for _, t := range s.st.transactions {
		if t.Type == txType && t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[j], out[i]) })
	return page(out, limit, offset), nil
}

func (s *session) matchingWithdrawals(filter portsrepo.WithdrawalFilter) []domain.Transaction {
	out := make([]domain.Transaction, 0)
	for _, t := range s.st.transactions {
		if t.Type != domain.TxWithdrawal {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && t.TransactionDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && t.TransactionDate.After(filter.To) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *session) ListWithdrawals(_ context.Context, filter portsrepo.WithdrawalFilter) ([]domain.Transaction, error) {
	out := s.matchingWithdrawals(filter)
	if filter.Ascending {
		sort.Slice(out, func(i, j int) bool { return newestFirst(out[j], out[i]) })
	} else {
		sort.Slice(out, func(i, j int) bool { return newestFirst(out[i], out[j]) })
	}
	return page(out, filter.Limit, filter.Offset), nil
}

func (s *session) SummarizeWithdrawals(_ context.Context, filter portsrepo.WithdrawalFilter) (domain.WithdrawalStat, error) {
	stat := domain.WithdrawalStat{Status: filter.Status, Total: decimal.Zero}
	for _, t := range s.matchingWithdrawals(filter) {
		stat.Count++
		stat.Total = stat.Total.Add(t.Amount)
	}
	return stat, nil
}

func (s *session) WithdrawalStats(_ context.Context) ([]domain.WithdrawalStat, error) {
	byStatus := make(map[domain.TransactionStatus]*domain.WithdrawalStat)
	for _, t := range s.st.transactions {
		if t.Type != domain.TxWithdrawal {
			continue
		}
		stat, ok := byStatus[t.Status]
		if !ok {
			stat = &domain.WithdrawalStat{Status: t.Status, Total: decimal.Zero}
			byStatus[t.Status] = stat
		}
		stat.Count++
		stat.Total = stat.Total.Add(t.Amount)
	}
	out := make([]domain.WithdrawalStat, 0, len(byStatus))
	for _, stat := range byStatus {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (s *session) SaveTransaction(_ context.Context, txn domain.Transaction) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, ok := s.st.transactions[txn.TransactionID]; ok {
		return fmt.Errorf("transaction %s: %w", txn.TransactionID, apperrors.ErrDuplicate)
	}
	s.st.transactions[txn.TransactionID] = txn
	return nil
}

func (s *session) LockTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	return s.FindTransactionByID(ctx, transactionID)
}

func (s *session) SettleTransaction(_ context.Context, txn domain.Transaction) error {
	if err := s.writable(); err != nil {
		return err
	}
	stored, ok := s.st.transactions[txn.TransactionID]
	if !ok {
		return fmt.Errorf("transaction %s: %w", txn.TransactionID, apperrors.ErrNotFound)
	}
	if stored.Status != domain.StatusPending {
		return fmt.Errorf("%w: transaction %s is %s", apperrors.ErrAlreadyProcessed, txn.TransactionID, stored.Status)
	}
	stored.Status = txn.Status
	stored.BalanceBefore = txn.BalanceBefore
	stored.BalanceAfter = txn.BalanceAfter
	stored.ProcessedBy = txn.ProcessedBy
	stored.ProcessedAt = txn.ProcessedAt
	stored.AdminComment = txn.AdminComment
	s.st.transactions[txn.TransactionID] = stored
	return nil
}

// --- machines ---

func (s *session) FindMachineByID(_ context.Context, machineID string) (*domain.Machine, error) {
	m, ok := s.st.machines[machineID]
	if !ok {
		return nil, fmt.Errorf("machine %s: %w", machineID, apperrors.ErrNotFound)
	}
	return &m, nil
}

func (s *session) ListMachines(_ context.Context) ([]domain.Machine, error) {
	out := make([]domain.Machine, 0, len(s.st.machines))
	for _, m := range s.st.machines {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].MachineID < out[j].MachineID
	})
	return out, nil
}

func (s *session) FindUserMachineByID(_ context.Context, userMachineID string) (*domain.UserMachine, error) {
	m, ok := s.st.userMachines[userMachineID]
	if !ok {
		return nil, fmt.Errorf("machine position %s: %w", userMachineID, apperrors.ErrNotFound)
	}
	return &m, nil
}

func (s *session) ListUserMachines(_ context.Context, userID string, activeOnly bool) ([]domain.UserMachine, error) {
	out := make([]domain.UserMachine, 0)
	for _, m := range s.st.userMachines {
		if m.UserID != userID || (activeOnly && m.Status != domain.PositionActive) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AssignedDate.Equal(out[j].AssignedDate) {
			return out[i].AssignedDate.Before(out[j].AssignedDate)
		}
		return out[i].UserMachineID < out[j].UserMachineID
	})
	return out, nil
}

func (s *session) ListAllUserMachines(_ context.Context, filter portsrepo.UserMachineFilter) ([]domain.UserMachine, int, error) {
	out := make([]domain.UserMachine, 0)
	for _, m := range s.st.userMachines {
		if filter.UserID != "" && m.UserID != filter.UserID {
			continue
		}
		if filter.MachineID != "" && m.MachineID != filter.MachineID {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AssignedDate.Equal(out[j].AssignedDate) {
			return out[i].AssignedDate.After(out[j].AssignedDate)
		}
		return out[i].UserMachineID > out[j].UserMachineID
	})
	return page(out, filter.Limit, filter.Offset), len(out), nil
}

func (s *session) ListMachineAccrualOwners(_ context.Context, cutoff time.Time) ([]string, error) {
	owners := make(map[string]struct{})
	for _, m := range s.st.userMachines {
		if m.Status == domain.PositionActive && !m.AccrualAnchor().After(cutoff) {
			owners[m.UserID] = struct{}{}
		}
	}
	return sortedKeys(owners), nil
}

func (s *session) ListDueUserMachines(_ context.Context, userIDs []string, cutoff time.Time) ([]domain.UserMachine, error) {
	out := make([]domain.UserMachine, 0)
	for _, m := range s.st.userMachines {
		if m.Status == domain.PositionActive && !m.AccrualAnchor().After(cutoff) && slices.Contains(userIDs, m.UserID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserMachineID < out[j].UserMachineID })
	return out, nil
}

func (s *session) SaveMachine(_ context.Context, machine domain.Machine) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, ok := s.st.machines[machine.MachineID]; ok {
		return fmt.Errorf("machine %s: %w", machine.MachineID, apperrors.ErrDuplicate)
	}
	s.st.machines[machine.MachineID] = machine
	return nil
}

func (s *session) LockMachine(ctx context.Context, machineID string) (*domain.Machine, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	return s.FindMachineByID(ctx, machineID)
}

func (s *session) SaveUserMachine(_ context.Context, position domain.UserMachine) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, ok := s.st.userMachines[position.UserMachineID]; ok {
		return fmt.Errorf("machine position %s: %w", position.UserMachineID, apperrors.ErrDuplicate)
	}
	s.st.userMachines[position.UserMachineID] = position
	return nil
}

func (s *session) LockUserMachine(ctx context.Context, userMachineID string) (*domain.UserMachine, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	return s.FindUserMachineByID(ctx, userMachineID)
}

func (s *session) UpdateUserMachine(_ context.Context, position domain.UserMachine) error {
	if err := s.writable(); err != nil {
		return err
	}
	stored, ok := s.st.userMachines[position.UserMachineID]
	if !ok {
		return fmt.Errorf("machine position %s: %w", position.UserMachineID, apperrors.ErrNotFound)
	}
	stored.Status = position.Status
	stored.LastProfitUpdate = position.LastProfitUpdate
	stored.TotalProfitEarned = position.TotalProfitEarned
	s.st.userMachines[position.UserMachineID] = stored
	return nil
}

// --- shares ---

func (s *session) FindSharePurchaseByID(_ context.Context, sharePurchaseID string) (*domain.SharePurchase, error) {
	h, ok := s.st.shares[sharePurchaseID]
	if !ok {
		return nil, fmt.Errorf("share holding %s: %w", sharePurchaseID, apperrors.ErrNotFound)
	}
	return &h, nil
}

func (s *session) ListSharePurchases(_ context.Context, userID string, activeOnly bool) ([]domain.SharePurchase, error) {
	out := make([]domain.SharePurchase, 0)
	for _, h := range s.st.shares {
		if h.UserID != userID || (activeOnly && h.Status != domain.PositionActive) {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchaseDate.Equal(out[j].PurchaseDate) {
			return out[i].PurchaseDate.Before(out[j].PurchaseDate)
		}
		return out[i].SharePurchaseID < out[j].SharePurchaseID
	})
	return out, nil
}

func (s *session) CountActiveShares(_ context.Context, machineID string) (int, error) {
	n := 0
	for _, h := range s.st.shares {
		if h.MachineID == machineID && h.Status == domain.PositionActive {
			n += h.NumberOfShares
		}
	}
	return n, nil
}

func (s *session) ListShareAccrualOwners(_ context.Context, cutoff time.Time) ([]string, error) {
	owners := make(map[string]struct{})
	for _, h := range s.st.shares {
		if h.Status == domain.PositionActive && !h.AccrualAnchor().After(cutoff) {
			owners[h.UserID] = struct{}{}
		}
	}
	return sortedKeys(owners), nil
}

func (s *session) ListDueSharePurchases(_ context.Context, userIDs []string, cutoff time.Time) ([]domain.SharePurchase, error) {
	out := make([]domain.SharePurchase, 0)
	for _, h := range s.st.shares {
		if h.Status == domain.PositionActive && !h.AccrualAnchor().After(cutoff) && slices.Contains(userIDs, h.UserID) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SharePurchaseID < out[j].SharePurchaseID })
	return out, nil
}

func (s *session) SaveSharePurchase(_ context.Context, holding domain.SharePurchase) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, ok := s.st.shares[holding.SharePurchaseID]; ok {
		return fmt.Errorf("share holding %s: %w", holding.SharePurchaseID, apperrors.ErrDuplicate)
	}
	s.st.shares[holding.SharePurchaseID] = holding
	return nil
}

func (s *session) LockSharePurchase(ctx context.Context, sharePurchaseID string) (*domain.SharePurchase, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	return s.FindSharePurchaseByID(ctx, sharePurchaseID)
}

func (s *session) UpdateSharePurchase(_ context.Context, holding domain.SharePurchase) error {
	if err := s.writable(); err != nil {
		return err
	}
	stored, ok := s.st.shares[holding.SharePurchaseID]
	if !ok {
		return fmt.Errorf("share holding %s: %w", holding.SharePurchaseID, apperrors.ErrNotFound)
	}
	stored.NumberOfShares = holding.NumberOfShares
	stored.TotalInvestment = holding.TotalInvestment
	stored.Status = holding.Status
	stored.LastProfitUpdate = holding.LastProfitUpdate
	stored.TotalProfitEarned = holding.TotalProfitEarned
	s.st.shares[holding.SharePurchaseID] = stored
	return nil
}

// --- users ---

func (s *session) FindUserByID(_ context.Context, userID string) (*domain.User, error) {
	u, ok := s.st.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	return &u, nil
}

func (s *session) ListReferredUsers(_ context.Context, referrerID string) ([]domain.User, error) {
	out := make([]domain.User, 0)
	for _, u := range s.st.users {
		if u.ReferrerID != nil && *u.ReferrerID == referrerID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *session) SaveUser(_ context.Context, user domain.User) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, ok := s.st.users[user.UserID]; ok {
		return fmt.Errorf("user %s: %w", user.UserID, apperrors.ErrDuplicate)
	}
	s.st.users[user.UserID] = user
	return nil
}

func (s *session) UpdateReferral(_ context.Context, user domain.User) error {
	if err := s.writable(); err != nil {
		return err
	}
	stored, ok := s.st.users[user.UserID]
	if !ok {
		return fmt.Errorf("user %s: %w", user.UserID, apperrors.ErrNotFound)
	}
	stored.ReferralStatus = user.ReferralStatus
	stored.Discount = user.Discount
	stored.LastUpdatedAt = user.LastUpdatedAt
	s.st.users[user.UserID] = stored
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
