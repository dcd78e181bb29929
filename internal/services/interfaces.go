package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
	"github.com/SAP-F-2025/notification-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type UpdatePreferencesRequest = validator.UpdatePreferencesRequest
type CreateUserRequest = validator.CreateUserRequest

// DispatchRequest asks for one message to be delivered to a list of users.
// UserIDs are processed in order and are not de-duplicated.
type DispatchRequest struct {
	UserIDs     []string
	Subject     string
	Message     string
	Type        models.NotificationType
	Channels    []models.Channel
	Extra       map[string]interface{}
	RequestedBy string
}

// RecipientResult is the outcome of a dispatch for a single user id.
type RecipientResult struct {
	UserID    string                    `json:"user_id"`
	Effective []models.Channel          `json:"effective_channels"`
	Delivered []models.Channel          `json:"delivered"`
	Skipped   []models.Channel          `json:"skipped"`
	Failed    map[models.Channel]string `json:"failed,omitempty"`

	// AuditID is zero when the audit row could not be written.
	AuditID    uint   `json:"audit_id,omitempty"`
	AuditError string `json:"audit_error,omitempty"`
}

type DispatchResult struct {
	Type       models.NotificationType `json:"type"`
	Recipients []*RecipientResult      `json:"recipients"`
	Audited    int                     `json:"audited"`
}

type NotificationListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int64                  `json:"total"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
}

// ChannelPreference is the resolved state of one channel for one type.
type ChannelPreference struct {
	Channel models.Channel         `json:"channel"`
	State   models.PreferenceState `json:"state"`
	Allowed bool                   `json:"allowed"`
}

type EffectivePreferences struct {
	UserID   string                  `json:"user_id"`
	Type     models.NotificationType `json:"notification_type"`
	Channels []ChannelPreference     `json:"channels"`
}

type ExportRequest struct {
	UserID   string
	Type     *models.NotificationType
	DateFrom *time.Time
	DateTo   *time.Time
}

// ===== SERVICE INTERFACES =====

type NotificationService interface {
	// Notify delivers a message to every user in req and writes one audit
	// row per user. Channel failures are reported in the result, not as an
	// error.
	Notify(ctx context.Context, req *DispatchRequest) (*DispatchResult, error)

	List(ctx context.Context, userID string, filters repositories.NotificationFilters) (*NotificationListResponse, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, id uint, userID string) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
}

type PreferenceService interface {
	List(ctx context.Context, userID string) ([]*models.NotificationPreference, error)
	Update(ctx context.Context, userID string, req *UpdatePreferencesRequest) ([]*models.NotificationPreference, error)
	// Effective resolves every channel for the given types. An empty list
	// means every known type.
	Effective(ctx context.Context, userID string, types []models.NotificationType) ([]*EffectivePreferences, error)
	Reset(ctx context.Context, userID string) error
}

type UserService interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, req *CreateUserRequest) (*models.User, error)
}

type ExportService interface {
	// ExportNotifications renders matching audit rows as an xlsx workbook.
	ExportNotifications(ctx context.Context, req *ExportRequest) ([]byte, error)
}

// ServiceManager manages all services
type ServiceManager interface {
	Notification() NotificationService
	Preference() PreferenceService
	User() UserService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
