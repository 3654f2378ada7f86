package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

// balanceHandler serves the caller's own balance and ledger history.
type balanceHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newBalanceHandler(ls portssvc.LedgerSvcFacade) *balanceHandler {
	return &balanceHandler{ledgerService: ls}
}

func registerBalanceRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newBalanceHandler(ledgerService)

	rg.GET("/balance", h.getBalance)
	rg.GET("/transactions", h.listTransactions)
}

func (h *balanceHandler) getBalance(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	overview, err := h.ledgerService.GetBalanceOverview(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve balance")
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceOverviewResponse(overview))
}

func (h *balanceHandler) listTransactions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	page, err := h.ledgerService.ListTransactions(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, page)
}
