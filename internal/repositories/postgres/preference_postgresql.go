package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/notification-service/internal/cache"
	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
)

type PreferencePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	hooks        *commitHooks
}

func NewPreferencePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.PreferenceRepository {
	return &PreferencePostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// ListByUser returns every stored preference of a user. The whole list is
// cached because dispatch reads it once per recipient.
func (p *PreferencePostgreSQL) ListByUser(ctx context.Context, userID string) ([]*models.NotificationPreference, error) {
	var prefs []*models.NotificationPreference
	err := p.cacheManager.Preference.CacheOrExecute(ctx, cache.PreferenceKey(userID), &prefs, cache.PreferenceCacheConfig.TTL, func() (interface{}, error) {
		var dbPrefs []*models.NotificationPreference
		if err := p.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("notification_type, channel").
			Find(&dbPrefs).Error; err != nil {
			return nil, fmt.Errorf("failed to list preferences: %w", err)
		}
		return dbPrefs, nil
	})
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

func (p *PreferencePostgreSQL) Get(ctx context.Context, userID string, notificationType models.NotificationType, channel models.Channel) (*models.NotificationPreference, error) {
	prefs, err := p.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, pref := range prefs {
		if pref.Type == notificationType && pref.Channel == channel {
			return pref, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (p *PreferencePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, pref *models.NotificationPreference) error {
	db := p.getDB(tx)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "notification_type"},
			{Name: "channel"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(pref).Error
	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}

	p.invalidate(ctx, pref.UserID)
	return nil
}

func (p *PreferencePostgreSQL) DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.NotificationPreference{}).Error; err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}

	p.invalidate(ctx, userID)
	return nil
}

func (p *PreferencePostgreSQL) invalidate(ctx context.Context, userID string) {
	p.hooks.run(ctx, func(ctx context.Context) {
		cache.InvalidatePreferenceCache(ctx, p.cacheManager, userID)
	})
}

func (p *PreferencePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}
