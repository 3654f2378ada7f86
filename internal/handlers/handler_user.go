package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/dto"
	"github.com/SscSPs/mining_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// userHandler handles HTTP requests related to user profiles.
type userHandler struct {
	userService portssvc.UserSvcFacade
}

func newUserHandler(us portssvc.UserSvcFacade) *userHandler {
	return &userHandler{userService: us}
}

// registerUserRoutes registers all user-related routes.
func registerUserRoutes(rg *gin.RouterGroup, userService portssvc.UserSvcFacade) {
	h := newUserHandler(userService)

	users := rg.Group("/users")
	{
		users.POST("", middleware.RequireRole(middleware.RoleAdmin), h.createUser)
		users.GET("/:userID", h.getUser)                 // Own or admin
		users.GET("/:userID/referrals", h.listReferrals) // Own or admin
	}
}

func (h *userHandler) createUser(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	creatorID, ok := callerID(c)
	if !ok {
		return
	}

	logger.Info("Received request to create user", slog.String("new_user_id", req.UserID))
	created, err := h.userService.CreateUser(c.Request.Context(), req, creatorID)
	if err != nil {
		respondError(c, err, "Failed to create user")
		return
	}

	logger.Info("User created successfully", slog.String("new_user_id", created.UserID))
	c.JSON(http.StatusCreated, dto.ToUserResponse(created))
}

func (h *userHandler) getUser(c *gin.Context) {
	userID := c.Param("userID")
	if !authorizeSelfOrAdmin(c, userID) {
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (h *userHandler) listReferrals(c *gin.Context) {
	userID := c.Param("userID")
	if !authorizeSelfOrAdmin(c, userID) {
		return
	}

	users, err := h.userService.ListReferrals(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list referrals")
		return
	}
	c.JSON(http.StatusOK, dto.ToListUserResponse(users))
}
