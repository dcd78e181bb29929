package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/notification-service/internal/models"
)

type NotificationFilters struct {
	UserID     string                   `json:"user_id"`
	UnreadOnly bool                     `json:"unread_only"`
	Type       *models.NotificationType `json:"type"`
	DateFrom   *time.Time               `json:"date_from"`
	DateTo     *time.Time               `json:"date_to"`
	Limit      int                      `json:"limit"`
	Offset     int                      `json:"offset"`
}

// NotificationRepository is the audit log. Rows are append-only apart from
// the read flag.
type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Notification, error)
	List(ctx context.Context, filters NotificationFilters) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, tx *gorm.DB, id uint) error
	MarkAllAsRead(ctx context.Context, tx *gorm.DB, userID string) (int64, error)

	// ListForExport returns every row matching filters, ignoring Limit and
	// Offset, capped at maxRows.
	ListForExport(ctx context.Context, filters NotificationFilters, maxRows int) ([]*models.Notification, error)
}

// PreferenceRepository stores per-user, per-type, per-channel switches.
type PreferenceRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.NotificationPreference, error)
	Get(ctx context.Context, userID string, notificationType models.NotificationType, channel models.Channel) (*models.NotificationPreference, error)

	// Upsert inserts or updates the row keyed by (user, type, channel).
	Upsert(ctx context.Context, tx *gorm.DB, pref *models.NotificationPreference) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) error
}
