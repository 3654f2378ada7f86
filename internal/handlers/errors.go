package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

// respondError maps a service error onto a status code and logs it at a level
// matching who is at fault. msg is the client-facing summary.
func respondError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	status, code, retryable := http.StatusInternalServerError, "internal_error", false
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrDuplicate):
		status, code = http.StatusConflict, "duplicate"
	case errors.Is(err, apperrors.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case apperrors.IsBusinessRule(err):
		status, code = http.StatusUnprocessableEntity, apperrors.Reason(err)
	case apperrors.IsTransient(err):
		status, code, retryable = http.StatusServiceUnavailable, "conflict_retry_exhausted", true
	}

	body := ErrorResponse{Error: msg, Code: code, Retryable: retryable}
	if status < http.StatusInternalServerError {
		body.Error = msg + ": " + err.Error()
		logger.Warn(msg, slog.String("code", code), slog.String("error", err.Error()))
	} else {
		logger.Error(msg, slog.String("code", code), slog.String("error", err.Error()))
	}
	c.JSON(status, body)
}

// respondBindError rejects a malformed request body or query.
func respondBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error(), Code: "invalid_request"})
}

// callerID returns the authenticated user, replying 401 when absent.
func callerID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Code: "unauthorized"})
		return "", false
	}
	return userID, true
}

// authorizeSelfOrAdmin lets callers read their own records and admins read anyone's.
func authorizeSelfOrAdmin(c *gin.Context, targetID string) bool {
	userID, ok := callerID(c)
	if !ok {
		return false
	}
	if userID != targetID && middleware.GetRoleFromContext(c) != middleware.RoleAdmin {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("User forbidden to access another user's records",
			slog.String("target_id", targetID))
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden", Code: "forbidden"})
		return false
	}
	return true
}
