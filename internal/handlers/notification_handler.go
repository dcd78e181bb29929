package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
	"github.com/SAP-F-2025/notification-service/internal/services"
	"github.com/SAP-F-2025/notification-service/internal/utils"
	"github.com/SAP-F-2025/notification-service/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type NotificationHandler struct {
	BaseHandler
	notificationService services.NotificationService
	exportService       services.ExportService
	validator           *validator.Validator
	maxRecipients       int
}

func NewNotificationHandler(
	notificationService services.NotificationService,
	exportService services.ExportService,
	validator *validator.Validator,
	maxRecipients int,
	logger utils.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         NewBaseHandler(logger),
		notificationService: notificationService,
		exportService:       exportService,
		validator:           validator,
		maxRecipients:       maxRecipients,
	}
}

// Dispatch sends a notification to a list of users
// @Summary Dispatch notification
// @Description Delivers a message over the effective channels of every recipient and records one audit row per recipient
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body validator.DispatchRequest true "Dispatch request"
// @Success 200 {object} services.DispatchResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /notifications/dispatch [post]
func (h *NotificationHandler) Dispatch(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req validator.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	if errs := h.validator.Business().ValidateDispatch(&req, h.maxRecipients); len(errs) > 0 {
		h.validationError(c, errs)
		return
	}

	h.LogRequest(c, "Dispatching notification", "type", req.Type, "recipients", len(req.UserIDs))

	result, err := h.notificationService.Notify(c.Request.Context(), &services.DispatchRequest{
		UserIDs:     req.UserIDs,
		Subject:     req.Subject,
		Message:     req.Message,
		Type:        req.Type,
		Channels:    req.Channels,
		Extra:       req.Extra,
		RequestedBy: userID,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListNotifications lists the caller's notifications
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Page size (default: 20, max: 100)"
// @Param offset query int false "Offset"
// @Param unread_only query bool false "Only unread notifications"
// @Param type query string false "Notification type"
// @Success 200 {object} services.NotificationListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	filters := repositories.NotificationFilters{
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if unread, err := strconv.ParseBool(c.DefaultQuery("unread_only", "false")); err == nil {
		filters.UnreadOnly = unread
	}
	if raw := c.Query("type"); raw != "" {
		t, ok := models.ParseNotificationType(raw)
		if !ok {
			h.respondError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown notification type %q", raw), nil)
			return
		}
		filters.Type = &t
	}

	list, err := h.notificationService.List(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// UnreadCount returns the number of unread notifications
// @Summary Unread count
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]int64
// @Failure 401 {object} ErrorResponse
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkAsRead marks one notification as read
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} models.Notification
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	id, err := h.parseIDParam(c, "id")
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "bad_request", "Invalid notification ID", err.Error())
		return
	}

	h.LogRequest(c, "Marking notification read", "notification_id", id)

	n, err := h.notificationService.MarkAsRead(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, n)
}

// MarkAllAsRead marks every notification of the caller as read
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// ExportNotifications downloads audit rows as an xlsx workbook
// @Summary Export notification history
// @Tags notifications
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param user_id query string false "Recipient"
// @Param type query string false "Notification type"
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /notifications/export [get]
func (h *NotificationHandler) ExportNotifications(c *gin.Context) {
	req := &services.ExportRequest{UserID: c.Query("user_id")}

	if raw := c.Query("type"); raw != "" {
		t, ok := models.ParseNotificationType(raw)
		if !ok {
			h.respondError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown notification type %q", raw), nil)
			return
		}
		req.Type = &t
	}
	for name, dst := range map[string]**time.Time{"from": &req.DateFrom, "to": &req.DateTo} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.respondError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid %s timestamp", name), err.Error())
			return
		}
		*dst = &ts
	}

	h.LogRequest(c, "Exporting notifications", "recipient", req.UserID)

	data, err := h.exportService.ExportNotifications(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("notifications_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
