package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// PreferenceKey is the cache key for a user's full preference list.
func PreferenceKey(userID string) string {
	return "user:" + userID
}

func UnreadKey(userID string) string {
	return "user:" + userID
}

// InvalidatePreferenceCache drops the cached preference list of a user.
func InvalidatePreferenceCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.Preference, PreferenceKey(userID))
}

// InvalidateUnreadCache drops the cached unread counter of a user.
func InvalidateUnreadCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.Unread, UnreadKey(userID))
}

// InvalidateUserCache drops every cached lookup of a user.
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID, email string) {
	SafeDelete(ctx, cm.User, "id:"+userID, "email:"+email)
	SafeInvalidatePattern(ctx, cm.Exists, "user:"+userID+"*")
}
