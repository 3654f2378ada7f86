package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/core/services"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) ListReferredUsers(ctx context.Context, referrerID string) ([]domain.User, error) {
	args := m.Called(ctx, referrerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateReferral(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// usersOnlyStore exposes just the user repository.
type usersOnlyStore struct {
	users portsrepo.UserRepositoryFacade
}

func (s usersOnlyStore) Balances() portsrepo.BalanceRepositoryFacade         { return nil }
func (s usersOnlyStore) Transactions() portsrepo.TransactionRepositoryFacade { return nil }
func (s usersOnlyStore) Machines() portsrepo.MachineRepositoryFacade         { return nil }
func (s usersOnlyStore) Shares() portsrepo.ShareRepositoryFacade             { return nil }
func (s usersOnlyStore) Users() portsrepo.UserRepositoryFacade               { return s.users }

// directTx runs work once against a fixed store.
type directTx struct {
	store portsrepo.Store
}

func (d directTx) RunInTx(ctx context.Context, work portsrepo.UnitOfWork) error {
	return work(ctx, d.store)
}

type UserServiceTestSuite struct {
	suite.Suite
	mockUserRepo *MockUserRepository
	service      portssvc.UserSvcFacade
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	store := usersOnlyStore{users: suite.mockUserRepo}
	executor := services.NewExecutor(directTx{store: store}, noBackoff(1))
	suite.service = services.NewUserService(executor, store)
}

func (suite *UserServiceTestSuite) TestCreateUser_Success() {
	ctx := context.Background()
	referrer := "ref-1"
	req := dto.CreateUserRequest{UserID: "u-1", Name: "Ada", Email: "ada@example.com", ReferrerID: &referrer}

	suite.mockUserRepo.On("FindUserByID", ctx, referrer).Return(&domain.User{UserID: referrer}, nil).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(user domain.User) bool {
		return user.UserID == "u-1" && user.ReferralStatus == domain.ReferralPending &&
			user.ReferrerID != nil && *user.ReferrerID == referrer && user.Discount.IsZero()
	})).Return(nil).Once()

	created, err := suite.service.CreateUser(ctx, req, adminID)

	suite.Require().NoError(err)
	suite.Equal("Ada", created.Name)
	suite.Equal(adminID, created.CreatedBy)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestCreateUser_UnknownReferrer() {
	ctx := context.Background()
	referrer := "nobody"
	req := dto.CreateUserRequest{UserID: "u-1", Name: "Ada", Email: "ada@example.com", ReferrerID: &referrer}

	suite.mockUserRepo.On("FindUserByID", ctx, referrer).Return(nil, apperrors.ErrNotFound).Once()

	created, err := suite.service.CreateUser(ctx, req, adminID)

	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestCreateUser_SelfReferral() {
	self := "u-1"
	created, err := suite.service.CreateUser(context.Background(),
		dto.CreateUserRequest{UserID: self, Name: "Ada", Email: "ada@example.com", ReferrerID: &self}, adminID)

	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *UserServiceTestSuite) TestCreateUser_SaveError() {
	ctx := context.Background()
	expectedErr := errors.New("database error")
	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(expectedErr).Once()

	created, err := suite.service.CreateUser(ctx, dto.CreateUserRequest{UserID: "u-1", Name: "Ada", Email: "ada@example.com"}, adminID)

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, expectedErr)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestGetUserByID_NotFound() {
	ctx := context.Background()
	suite.mockUserRepo.On("FindUserByID", ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	user, err := suite.service.GetUserByID(ctx, "missing")

	suite.Require().Error(err)
	suite.Nil(user)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestListReferrals() {
	ctx := context.Background()
	referred := []domain.User{{UserID: "a"}, {UserID: "b"}}
	suite.mockUserRepo.On("FindUserByID", ctx, "ref").Return(&domain.User{UserID: "ref"}, nil).Once()
	suite.mockUserRepo.On("ListReferredUsers", ctx, "ref").Return(referred, nil).Once()

	users, err := suite.service.ListReferrals(ctx, "ref")

	suite.Require().NoError(err)
	suite.Len(users, 2)
	suite.mockUserRepo.AssertExpectations(suite.T())
}
