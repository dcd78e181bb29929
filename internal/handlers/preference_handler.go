package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/services"
	"github.com/SAP-F-2025/notification-service/internal/utils"
)

type PreferenceHandler struct {
	BaseHandler
	preferenceService services.PreferenceService
}

func NewPreferenceHandler(preferenceService services.PreferenceService, logger utils.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		BaseHandler:       NewBaseHandler(logger),
		preferenceService: preferenceService,
	}
}

// GetPreferences returns the caller's stored preferences
// @Summary List preferences
// @Description Only explicitly stored switches are returned; anything absent is enabled
// @Tags preferences
// @Produce json
// @Success 200 {array} models.NotificationPreference
// @Failure 401 {object} ErrorResponse
// @Router /preferences [get]
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	h.listFor(c, userID)
}

// GetUserPreferences returns another user's stored preferences
// @Summary List a user's preferences
// @Tags preferences
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} models.NotificationPreference
// @Failure 403 {object} ErrorResponse
// @Router /users/{id}/preferences [get]
func (h *PreferenceHandler) GetUserPreferences(c *gin.Context) {
	h.listFor(c, c.Param("id"))
}

func (h *PreferenceHandler) listFor(c *gin.Context, userID string) {
	prefs, err := h.preferenceService.List(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "preferences": prefs})
}

// UpdatePreferences upserts the caller's preferences
// @Summary Update preferences
// @Tags preferences
// @Accept json
// @Produce json
// @Param request body validator.UpdatePreferencesRequest true "Preferences"
// @Success 200 {array} models.NotificationPreference
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /preferences [put]
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	h.LogRequest(c, "Updating preferences", "count", len(req.Preferences))

	prefs, err := h.preferenceService.Update(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "preferences": prefs})
}

// GetEffectivePreferences resolves every channel for the requested types
// @Summary Effective preferences
// @Tags preferences
// @Produce json
// @Param type query string false "Comma separated notification types (default: all)"
// @Success 200 {array} services.EffectivePreferences
// @Failure 400 {object} ErrorResponse
// @Router /preferences/effective [get]
func (h *PreferenceHandler) GetEffectivePreferences(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var types []models.NotificationType
	for _, raw := range strings.Split(c.Query("type"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			types = append(types, models.NotificationType(raw))
		}
	}

	effective, err := h.preferenceService.Effective(c.Request.Context(), userID, types)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "effective": effective})
}

// ResetPreferences removes every stored preference of the caller
// @Summary Reset preferences
// @Tags preferences
// @Success 204
// @Router /preferences [delete]
func (h *PreferenceHandler) ResetPreferences(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Resetting preferences")

	if err := h.preferenceService.Reset(c.Request.Context(), userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
