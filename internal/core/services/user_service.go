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
	"github.com/shopspring/decimal"
)

type userService struct {
	BaseService
	executor *Executor
	reader   portsrepo.Store
}

// NewUserService creates the user directory service. Identity and login live
// elsewhere; this only keeps the profile data the ledger needs.
func NewUserService(executor *Executor, reader portsrepo.Store, options ...ServiceOption) portssvc.UserSvcFacade {
	return &userService{
		BaseService: newBaseService(options...),
		executor:    executor,
		reader:      reader,
	}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

func (s *userService) CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: user id and name are required", apperrors.ErrValidation)
	}
	var referrerID *string
	if req.ReferrerID != nil && strings.TrimSpace(*req.ReferrerID) != "" {
		id := strings.TrimSpace(*req.ReferrerID)
		if id == userID {
			return nil, fmt.Errorf("%w: a user cannot refer themselves", apperrors.ErrValidation)
		}
		referrerID = &id
	}

	now := s.now()
	user := domain.User{
		UserID:         userID,
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		ReferrerID:     referrerID,
		ReferralStatus: domain.ReferralPending,
		Discount:       decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	err := s.executor.Run(ctx, func(ctx context.Context, store portsrepo.Store) error {
		if referrerID != nil {
			if _, err := store.Users().FindUserByID(ctx, *referrerID); err != nil {
				if apperrors.IsNotFound(err) {
					return fmt.Errorf("%w: referrer %s does not exist", apperrors.ErrValidation, *referrerID)
				}
				return err
			}
		}
		return store.Users().SaveUser(ctx, user)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create user", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to create user in service: %w", err)
	}

	s.LogInfo(ctx, "User created", slog.String("user_id", userID), slog.Bool("referred", referrerID != nil))
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.reader.Users().FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID in service: %w", err)
	}
	return user, nil
}

func (s *userService) ListReferrals(ctx context.Context, userID string) ([]domain.User, error) {
	if _, err := s.reader.Users().FindUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to get user by ID in service: %w", err)
	}
	users, err := s.reader.Users().ListReferredUsers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	if users == nil {
		return []domain.User{}, nil
	}
	return users, nil
}
