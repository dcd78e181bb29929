package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/notification-service/internal/cache"
	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
)

type NotificationPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	hooks        *commitHooks
}

func NewNotificationPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.NotificationRepository {
	return &NotificationPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (n *NotificationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	db := n.getDB(tx)
	if err := db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.invalidateUnread(ctx, notification.UserID)
	return nil
}

func (n *NotificationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Notification, error) {
	db := n.getDB(tx)
	var notification models.Notification
	if err := db.WithContext(ctx).First(&notification, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &notification, nil
}

func (n *NotificationPostgreSQL) List(ctx context.Context, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	limit, offset := normalizePage(filters.Limit, filters.Offset)

	query := applyNotificationFilters(n.db.WithContext(ctx).Model(&models.Notification{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []*models.Notification
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, total, nil
}

func (n *NotificationPostgreSQL) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := n.cacheManager.Unread.CacheOrExecute(ctx, cache.UnreadKey(userID), &count, cache.UnreadCacheConfig.TTL, func() (interface{}, error) {
		var dbCount int64
		if err := n.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("user_id = ? AND is_read = ?", userID, false).
			Count(&dbCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count unread notifications: %w", err)
		}
		return dbCount, nil
	})
	return count, err
}

func (n *NotificationPostgreSQL) MarkAsRead(ctx context.Context, tx *gorm.DB, id uint) error {
	db := n.getDB(tx)

	var notification models.Notification
	if err := db.WithContext(ctx).Select("id, user_id").First(&notification, id).Error; err != nil {
		return translateError(err)
	}

	now := time.Now()
	if err := db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	n.invalidateUnread(ctx, notification.UserID)
	return nil
}

func (n *NotificationPostgreSQL) MarkAllAsRead(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	db := n.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", result.Error)
	}

	n.invalidateUnread(ctx, userID)
	return result.RowsAffected, nil
}

func (n *NotificationPostgreSQL) ListForExport(ctx context.Context, filters repositories.NotificationFilters, maxRows int) ([]*models.Notification, error) {
	query := applyNotificationFilters(n.db.WithContext(ctx).Model(&models.Notification{}), filters)

	var notifications []*models.Notification
	if err := query.
		Order("created_at ASC, id ASC").
		Limit(maxRows).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to load notifications for export: %w", err)
	}
	return notifications, nil
}

func (n *NotificationPostgreSQL) invalidateUnread(ctx context.Context, userID string) {
	n.hooks.run(ctx, func(ctx context.Context) {
		cache.InvalidateUnreadCache(ctx, n.cacheManager, userID)
	})
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (n *NotificationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return n.db
}
