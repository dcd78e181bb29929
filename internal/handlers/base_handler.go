package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/notification-service/internal/services"
	"github.com/SAP-F-2025/notification-service/internal/utils"
	"github.com/SAP-F-2025/notification-service/internal/validator"
)

// ===== RESPONSES =====

type ErrorResponse struct {
	Error            string                     `json:"error,omitempty"`
	Message          string                     `json:"message"`
	Details          interface{}                `json:"details,omitempty"`
	ValidationErrors validator.ValidationErrors `json:"validation_errors,omitempty"`
	Timestamp        time.Time                  `json:"timestamp"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// BaseHandler carries the logger shared by every handler.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	if logger == nil {
		logger = utils.NopLogger()
	}
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	logger := utils.GetLogger(c, h.logger)
	args = append(args, "method", c.Request.Method, "path", c.FullPath())
	if userID, ok := c.Get("user_id"); ok {
		args = append(args, "user_id", userID)
	}
	logger.Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	logger := utils.GetLogger(c, h.logger)
	args = append(args, "error", err, "path", c.FullPath())
	logger.Error(msg, args...)
}

func (h *BaseHandler) respondError(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

// bindError answers a request whose body could not be decoded.
func (h *BaseHandler) bindError(c *gin.Context, err error) {
	h.respondError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err.Error())
}

func (h *BaseHandler) validationError(c *gin.Context, errs validator.ValidationErrors) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:            "validation_failed",
		Message:          "Validation failed",
		ValidationErrors: errs,
		Timestamp:        time.Now().UTC(),
	})
}

// handleServiceError maps service errors to HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		h.validationError(c, verrs)
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.respondError(c, http.StatusForbidden, "forbidden", "Access denied", map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		h.respondError(c, http.StatusNotFound, "not_found", "User not found", nil)
	case errors.Is(err, services.ErrNotificationNotFound):
		h.respondError(c, http.StatusNotFound, "not_found", "Notification not found", nil)
	case errors.Is(err, services.ErrUserExists):
		h.respondError(c, http.StatusConflict, "conflict", "User already exists", nil)
	case errors.Is(err, services.ErrUserDirectoryReadOnly):
		h.respondError(c, http.StatusNotImplemented, "read_only", "The user directory does not accept writes", nil)
	case errors.Is(err, services.ErrInvalidNotificationType),
		errors.Is(err, services.ErrInvalidChannel),
		errors.Is(err, services.ErrNoRecipients),
		errors.Is(err, services.ErrTooManyRecipients),
		errors.Is(err, services.ErrValidationFailed):
		h.respondError(c, http.StatusBadRequest, "bad_request", err.Error(), nil)
	case errors.Is(err, services.ErrUnauthorized):
		h.respondError(c, http.StatusUnauthorized, "unauthorized", "Unauthorized access", nil)
	case errors.Is(err, services.ErrForbidden):
		h.respondError(c, http.StatusForbidden, "forbidden", "Forbidden - insufficient permissions", nil)
	default:
		h.LogError(c, err, "Unhandled service error")
		h.respondError(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
	}
}

func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return uint(id), nil
}

// currentUserID returns the authenticated user id, answering 401 when it
// is missing.
func (h *BaseHandler) currentUserID(c *gin.Context) (string, bool) {
	id, err := GetUserIDFromContext(c)
	if err != nil || id == "" {
		h.respondError(c, http.StatusUnauthorized, "unauthorized", "User not authenticated", nil)
		return "", false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, name string, def int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}
