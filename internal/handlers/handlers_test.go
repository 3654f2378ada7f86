package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/SscSPs/mining_ledger/internal/core/services"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/SscSPs/mining_ledger/internal/handlers"
	"github.com/SscSPs/mining_ledger/internal/middleware"
	"github.com/SscSPs/mining_ledger/internal/platform/config"
	"github.com/SscSPs/mining_ledger/internal/repositories/memory"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const testSecret = "handler-test-secret"

type HandlersTestSuite struct {
	suite.Suite
	router *gin.Engine
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (suite *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWTSecret:          testSecret,
		RateLimit:          "1000-M",
		CORSAllowedOrigins: []string{"*"},
		TxMaxAttempts:      3,
		TxBaseDelay:        time.Millisecond,
		AccrualPeriod:      30 * 24 * time.Hour,
		AccrualBatchSize:   10,
	}
	svc := services.NewServiceContainer(cfg, memory.New().Provider())

	suite.router = gin.New()
	suite.Require().NoError(handlers.RegisterRoutes(suite.router, cfg, svc))
}

func (suite *HandlersTestSuite) token(subject, role string, expiresIn time.Duration) string {
	claims := middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	suite.Require().NoError(err)
	return signed
}

func (suite *HandlersTestSuite) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) admin() string {
	return suite.token("admin-1", middleware.RoleAdmin, time.Hour)
}

func (suite *HandlersTestSuite) user(id string) string {
	return suite.token(id, "", time.Hour)
}

func (suite *HandlersTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (suite *HandlersTestSuite) createUser(id string) {
	w := suite.do(http.MethodPost, "/api/v1/users", suite.admin(), dto.CreateUserRequest{
		UserID: id, Name: "User " + id, Email: id + "@example.com",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (suite *HandlersTestSuite) credit(id, amount string) {
	w := suite.do(http.MethodPost, "/api/v1/admin/balances/"+id+"/credit", suite.admin(),
		map[string]string{"amount": amount})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

func (suite *HandlersTestSuite) createMachine(price, monthly string) domain.Machine {
	w := suite.do(http.MethodPost, "/api/v1/admin/machines", suite.admin(), map[string]any{
		"name": "Miner", "price": price, "monthlyProfit": monthly,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var m domain.Machine
	suite.decode(w, &m)
	return m
}

func (suite *HandlersTestSuite) TestHealth() {
	w := suite.do(http.MethodGet, "/health", "", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func (suite *HandlersTestSuite) TestMissingTokenIsUnauthorized() {
	w := suite.do(http.MethodGet, "/api/v1/balance", "", nil)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestAdminRoutesRequireAdminRole() {
	w := suite.do(http.MethodPost, "/api/v1/admin/balances/u1/credit", suite.user("u1"),
		map[string]string{"amount": "10"})

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestCreditThenReadBalance() {
	suite.createUser("u1")
	suite.credit("u1", "125.50")

	w := suite.do(http.MethodGet, "/api/v1/balance", suite.user("u1"), nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var overview dto.BalanceOverviewResponse
	suite.decode(w, &overview)
	suite.True(decimal.RequireFromString("125.5").Equal(overview.Balance.TotalBalance))
	suite.True(decimal.RequireFromString("125.5").Equal(overview.Balance.AdminAdd))
	suite.Zero(overview.ActiveMachineCount)

	w = suite.do(http.MethodGet, "/api/v1/transactions?type=ADMIN_ADD", suite.user("u1"), nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var page dto.ListTransactionsResponse
	suite.decode(w, &page)
	suite.Len(page.Transactions, 1)
}

func (suite *HandlersTestSuite) TestCreditRejectsNonPositiveAmount() {
	w := suite.do(http.MethodPost, "/api/v1/admin/balances/u1/credit", suite.admin(),
		map[string]string{"amount": "-5"})

	suite.Equal(http.StatusBadRequest, w.Code)
	var body handlers.ErrorResponse
	suite.decode(w, &body)
	suite.Equal("invalid_request", body.Code)
}

func (suite *HandlersTestSuite) TestPurchaseWithoutFundsIsUnprocessable() {
	suite.createUser("u1")
	suite.credit("u1", "50")
	m := suite.createMachine("100", "5")

	w := suite.do(http.MethodPost, "/api/v1/machines/"+m.MachineID+"/purchase", suite.user("u1"),
		dto.PurchaseRequest{Quantity: 1})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	var body handlers.ErrorResponse
	suite.decode(w, &body)
	suite.Equal("insufficient_funds", body.Code)
	suite.False(body.Retryable)
}

func (suite *HandlersTestSuite) TestPurchaseAndSellMachine() {
	suite.createUser("u1")
	suite.credit("u1", "100")
	m := suite.createMachine("100", "5")

	w := suite.do(http.MethodPost, "/api/v1/machines/"+m.MachineID+"/purchase", suite.user("u1"),
		dto.PurchaseRequest{Quantity: 1})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var purchase dto.PurchaseResponse
	suite.decode(w, &purchase)
	suite.Require().Len(purchase.Machines, 1)
	suite.True(purchase.Balance.TotalBalance.IsZero())

	w = suite.do(http.MethodPost, "/api/v1/positions/machines/"+purchase.Machines[0].UserMachineID+"/sell",
		suite.user("u1"), nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var sale dto.SaleResponse
	suite.decode(w, &sale)
	suite.Equal(1, sale.SoldUnits)
	suite.True(decimal.RequireFromString("90").Equal(sale.Balance.TotalBalance))
}

func (suite *HandlersTestSuite) TestWithdrawalRequestAndDecision() {
	suite.createUser("u1")
	suite.credit("u1", "100")

	w := suite.do(http.MethodPost, "/api/v1/withdrawals", suite.user("u1"), map[string]string{
		"amount": "40", "walletAddress": "TXabc", "network": "TRC20",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var requested dto.TransactionResponse
	suite.decode(w, &requested)
	suite.Equal(domain.StatusPending, requested.Status)

	w = suite.do(http.MethodGet, "/api/v1/admin/withdrawals/pending", suite.admin(), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var pending dto.ListTransactionsResponse
	suite.decode(w, &pending)
	suite.Len(pending.Transactions, 1)

	decisionPath := "/api/v1/admin/withdrawals/" + requested.TransactionID + "/decision"
	w = suite.do(http.MethodPost, decisionPath, suite.admin(),
		dto.WithdrawalDecisionRequest{Decision: domain.DecisionApproved, Comment: "sent"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var decided dto.WithdrawalDecisionResponse
	suite.decode(w, &decided)
	suite.Equal(domain.StatusApproved, decided.Transaction.Status)
	suite.Require().NotNil(decided.Balance)
	suite.True(decimal.RequireFromString("60").Equal(decided.Balance.TotalBalance))

	w = suite.do(http.MethodPost, decisionPath, suite.admin(),
		dto.WithdrawalDecisionRequest{Decision: domain.DecisionRejected})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestUsersCannotReadOthers() {
	suite.createUser("u1")
	suite.createUser("u2")

	w := suite.do(http.MethodGet, "/api/v1/users/u2", suite.user("u1"), nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/users/u2", suite.admin(), nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/users/missing", suite.admin(), nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestAccrualRunWithNothingDue() {
	w := suite.do(http.MethodPost, "/api/v1/admin/accrual/run", suite.admin(), nil)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.AccrualRunResponse
	suite.decode(w, &resp)
	suite.Zero(resp.Credited)
	suite.False(resp.Partial)
}

func (suite *HandlersTestSuite) TestPurchaseQuantityAboveLimitIsBadRequest() {
	suite.createUser("u1")
	m := suite.createMachine("1", "0")

	w := suite.do(http.MethodPost, "/api/v1/machines/"+m.MachineID+"/purchase", suite.user("u1"),
		dto.PurchaseRequest{Quantity: domain.MaxOrderQuantity + 1})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestPurchaseEligibility() {
	suite.createUser("u1")
	suite.credit("u1", "150")
	m := suite.createMachine("100", "5")

	w := suite.do(http.MethodGet, "/api/v1/machines/"+m.MachineID+"/eligibility?quantity=2", suite.user("u1"), nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var result domain.PurchaseEligibility
	suite.decode(w, &result)
	suite.False(result.CanPurchase)
	suite.Equal("insufficient_funds", result.Reason)
	suite.True(decimal.RequireFromString("50").Equal(result.Shortfall))

	w = suite.do(http.MethodGet, "/api/v1/machines/"+m.MachineID+"/eligibility", suite.user("u1"), nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var single domain.PurchaseEligibility
	suite.decode(w, &single)
	suite.True(single.CanPurchase)
	suite.Empty(single.Reason)
	suite.Equal(1, single.Quantity)

	w = suite.do(http.MethodGet, "/api/v1/machines/"+m.MachineID+"/eligibility?quantity=0", suite.user("u1"), nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestAdminListsPositionsAndWithdrawals() {
	suite.createUser("u1")
	suite.credit("u1", "300")
	m := suite.createMachine("100", "5")

	w := suite.do(http.MethodPost, "/api/v1/machines/"+m.MachineID+"/purchase", suite.user("u1"),
		dto.PurchaseRequest{Quantity: 2})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	for _, amount := range []string{"30", "40"} {
		w = suite.do(http.MethodPost, "/api/v1/withdrawals", suite.user("u1"), map[string]string{
			"amount": amount, "walletAddress": "TXabc", "network": "TRC20",
		})
		suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	}

	w = suite.do(http.MethodGet, "/api/v1/admin/positions/machines?userID=u1&status=active", suite.admin(), nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var positions dto.ListAllUserMachinesResponse
	suite.decode(w, &positions)
	suite.Equal(2, positions.Total)
	suite.Len(positions.Machines, 2)

	w = suite.do(http.MethodGet, "/api/v1/admin/withdrawals?status=pending&limit=1", suite.admin(), nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var withdrawals dto.ListWithdrawalsResponse
	suite.decode(w, &withdrawals)
	suite.Equal(2, withdrawals.Total)
	suite.Len(withdrawals.Withdrawals, 1)
	suite.True(decimal.RequireFromString("70").Equal(withdrawals.TotalAmount))

	w = suite.do(http.MethodGet, "/api/v1/admin/withdrawals?status=lost", suite.admin(), nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/admin/withdrawals", suite.user("u1"), nil)
	suite.Equal(http.StatusForbidden, w.Code)
}
