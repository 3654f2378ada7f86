package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/SscSPs/mining_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// marketHandler serves the catalog, purchases, sales and owned positions.
type marketHandler struct {
	marketService portssvc.MarketSvcFacade
}

func newMarketHandler(ms portssvc.MarketSvcFacade) *marketHandler {
	return &marketHandler{marketService: ms}
}

func registerMarketRoutes(rg *gin.RouterGroup, marketService portssvc.MarketSvcFacade) {
	h := newMarketHandler(marketService)

	machines := rg.Group("/machines")
	{
		machines.GET("", h.listMachines)
		machines.GET("/:machineID", h.getMachine)
		machines.GET("/:machineID/eligibility", h.checkEligibility)
		machines.POST("/:machineID/purchase", h.purchase(marketService.PurchaseMachines))
		machines.POST("/:machineID/shares/purchase", h.purchase(marketService.PurchaseShares))
	}

	positions := rg.Group("/positions")
	{
		positions.GET("/machines", h.listUserMachines)
		positions.GET("/shares", h.getShareSummary)
		positions.POST("/machines/:positionID/sell", h.sell(domain.AssetMachine))
		positions.POST("/shares/:positionID/sell", h.sell(domain.AssetShare))
	}
}

func (h *marketHandler) listMachines(c *gin.Context) {
	machines, err := h.marketService.ListMachines(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list machines")
		return
	}
	c.JSON(http.StatusOK, dto.ListMachinesResponse{Machines: machines})
}

func (h *marketHandler) getMachine(c *gin.Context) {
	machine, err := h.marketService.GetMachine(c.Request.Context(), c.Param("machineID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve machine")
		return
	}
	c.JSON(http.StatusOK, machine)
}

func (h *marketHandler) checkEligibility(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var params dto.EligibilityParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.marketService.CheckPurchaseEligibility(c.Request.Context(), userID, c.Param("machineID"), params.Quantity)
	if err != nil {
		respondError(c, err, "Failed to check purchase eligibility")
		return
	}
	c.JSON(http.StatusOK, result)
}

type purchaseFunc func(ctx context.Context, userID, machineID string, quantity int) (*domain.PurchaseResult, error)

// purchase serves both whole-machine and share purchases; they differ only in
// the service call.
func (h *marketHandler) purchase(buy purchaseFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var req dto.PurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		machineID := c.Param("machineID")

		logger.Info("Received purchase request", slog.String("machine_id", machineID), slog.Int("quantity", req.Quantity))
		result, err := buy(c.Request.Context(), userID, machineID, req.Quantity)
		if err != nil {
			respondError(c, err, "Purchase failed")
			return
		}
		c.JSON(http.StatusCreated, dto.ToPurchaseResponse(result))
	}
}

func (h *marketHandler) sell(kind domain.AssetKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var req dto.SellRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondBindError(c, err)
				return
			}
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		positionID := c.Param("positionID")

		logger.Info("Received sale request",
			slog.String("kind", string(kind)), slog.String("position_id", positionID), slog.Int("quantity", req.Quantity))
		result, err := h.marketService.SellAsset(c.Request.Context(), userID, kind, positionID, req.Quantity)
		if err != nil {
			respondError(c, err, "Sale failed")
			return
		}
		c.JSON(http.StatusOK, dto.ToSaleResponse(result))
	}
}

func (h *marketHandler) listUserMachines(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var params dto.ListUserMachinesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	machines, err := h.marketService.ListUserMachines(c.Request.Context(), userID, params.ActiveOnly)
	if err != nil {
		respondError(c, err, "Failed to list machine positions")
		return
	}
	c.JSON(http.StatusOK, dto.ListUserMachinesResponse{Machines: machines})
}

func (h *marketHandler) getShareSummary(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	summary, err := h.marketService.GetShareSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve share holdings")
		return
	}
	c.JSON(http.StatusOK, summary)
}
