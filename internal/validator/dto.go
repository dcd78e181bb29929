package validator

import (
	"github.com/SAP-F-2025/notification-service/internal/models"
)

// DispatchRequest is the body of POST /notifications/dispatch.
type DispatchRequest struct {
	UserIDs  []string                `json:"user_ids" validate:"required,min=1,dive,required,max=255"`
	Subject  string                  `json:"subject" validate:"required,notblank,max=200"`
	Message  string                  `json:"message" validate:"required,max=5000"`
	Type     models.NotificationType `json:"type" validate:"required,notification_type"`
	Channels []models.Channel        `json:"channels" validate:"omitempty,max=3,dive,channel"`
	Extra    map[string]interface{}  `json:"extra"`
}

// PreferenceItem sets one (type, channel) switch.
type PreferenceItem struct {
	Type    models.NotificationType `json:"notification_type" validate:"required,notification_type"`
	Channel models.Channel          `json:"channel" validate:"required,channel"`
	Enabled *bool                   `json:"enabled" validate:"required"`
}

type UpdatePreferencesRequest struct {
	Preferences []PreferenceItem `json:"preferences" validate:"required,min=1,max=100,dive"`
}

type CreateUserRequest struct {
	ID       string          `json:"id" validate:"omitempty,max=255"`
	FullName string          `json:"full_name" validate:"required,notblank,max=100"`
	Email    string          `json:"email" validate:"required,email,max=255"`
	Phone    *string         `json:"phone" validate:"omitempty,e164"`
	Role     models.UserRole `json:"role" validate:"required,user_role"`
}
