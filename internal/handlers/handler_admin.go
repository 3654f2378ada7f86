package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/SscSPs/mining_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// adminHandler serves the operator-only routes.
type adminHandler struct {
	services *portssvc.ServiceContainer
}

func newAdminHandler(services *portssvc.ServiceContainer) *adminHandler {
	return &adminHandler{services: services}
}

func registerAdminRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newAdminHandler(services)

	admin := rg.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.GET("/balances", h.listBalances)
		admin.POST("/balances/:userID/credit", h.creditBalance)
		admin.POST("/machines", h.createMachine)
		admin.GET("/positions/machines", h.listAllUserMachines)
		admin.GET("/withdrawals", h.listWithdrawals)
		admin.GET("/withdrawals/pending", h.listPendingWithdrawals)
		admin.GET("/withdrawals/stats", h.withdrawalStats)
		admin.POST("/withdrawals/:transactionID/decision", h.decideWithdrawal)
		admin.POST("/accrual/run", h.runAccrual)
	}
}

func (h *adminHandler) listBalances(c *gin.Context) {
	var params dto.ListBalancesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	balances, err := h.services.Ledger.ListBalances(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "Failed to list balances")
		return
	}
	c.JSON(http.StatusOK, dto.ToListBalancesResponse(balances))
}

func (h *adminHandler) creditBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	adminID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.CreditBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID := c.Param("userID")

	logger.Info("Received admin credit", slog.String("target_user_id", userID), slog.String("amount", req.Amount.String()))
	balance, txn, err := h.services.Ledger.CreditAdmin(c.Request.Context(), userID, req, adminID)
	if err != nil {
		respondError(c, err, "Failed to credit balance")
		return
	}
	c.JSON(http.StatusOK, dto.CreditBalanceResponse{
		Balance:     dto.ToBalanceResponse(balance),
		Transaction: dto.ToTransactionResponse(txn),
	})
}

func (h *adminHandler) createMachine(c *gin.Context) {
	adminID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.CreateMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	machine, err := h.services.Market.CreateMachine(c.Request.Context(), req, adminID)
	if err != nil {
		respondError(c, err, "Failed to create machine")
		return
	}
	c.JSON(http.StatusCreated, machine)
}

func (h *adminHandler) listAllUserMachines(c *gin.Context) {
	var params dto.ListAllUserMachinesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.services.Market.ListAllUserMachines(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list machine positions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *adminHandler) listWithdrawals(c *gin.Context) {
	var params dto.ListWithdrawalsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.services.Withdrawal.ListWithdrawals(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list withdrawals")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *adminHandler) listPendingWithdrawals(c *gin.Context) {
	var params dto.ListPendingParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	pending, err := h.services.Withdrawal.ListPendingWithdrawals(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "Failed to list pending withdrawals")
		return
	}
	c.JSON(http.StatusOK, dto.ListTransactionsResponse{Transactions: dto.ToTransactionResponses(pending)})
}

func (h *adminHandler) withdrawalStats(c *gin.Context) {
	stats, err := h.services.Withdrawal.GetWithdrawalStats(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to compute withdrawal stats")
		return
	}
	c.JSON(http.StatusOK, dto.WithdrawalStatsResponse{Stats: stats})
}

func (h *adminHandler) decideWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reviewerID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.WithdrawalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	transactionID := c.Param("transactionID")

	logger.Info("Received withdrawal decision", slog.String("transaction_id", transactionID), slog.String("decision", string(req.Decision)))
	txn, balance, err := h.services.Withdrawal.DecideWithdrawal(c.Request.Context(), transactionID, req, reviewerID)
	if err != nil {
		respondError(c, err, "Failed to decide withdrawal")
		return
	}

	resp := dto.WithdrawalDecisionResponse{Transaction: dto.ToTransactionResponse(txn)}
	if balance != nil {
		b := dto.ToBalanceResponse(balance)
		resp.Balance = &b
	}
	c.JSON(http.StatusOK, resp)
}

func (h *adminHandler) runAccrual(c *gin.Context) {
	credited, err := h.services.Accrual.RunAccrualBatch(c.Request.Context())
	if err != nil && credited == 0 {
		respondError(c, err, "Accrual run failed")
		return
	}

	resp := dto.AccrualRunResponse{Credited: credited}
	if err != nil {
		resp.Partial = true
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
