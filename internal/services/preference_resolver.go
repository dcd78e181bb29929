package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
)

// LookupPreference returns the stored state of one (user, type, channel)
// switch. Lookup failures are logged and reported as unset, which keeps
// the channel enabled.
func LookupPreference(ctx context.Context, repo repositories.PreferenceRepository, logger *slog.Logger, userID string, notificationType models.NotificationType, channel models.Channel) models.PreferenceState {
	pref, err := repo.Get(ctx, userID, notificationType, channel)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) && logger != nil {
			logger.Warn("Preference lookup failed, treating as unset",
				"user_id", userID,
				"notification_type", notificationType,
				"channel", channel,
				"error", err)
		}
		return models.PreferenceUnset
	}
	return stateOf(pref)
}

// preferenceState finds the state of (userID, type, channel) among rows
// that were already fetched.
func preferenceState(prefs []*models.NotificationPreference, userID string, notificationType models.NotificationType, channel models.Channel) models.PreferenceState {
	for _, p := range prefs {
		if p == nil || p.UserID != userID {
			continue
		}
		if p.Type == notificationType && p.Channel == channel {
			return stateOf(p)
		}
	}
	return models.PreferenceUnset
}

func stateOf(p *models.NotificationPreference) models.PreferenceState {
	if p.Enabled {
		return models.PreferenceEnabled
	}
	return models.PreferenceDisabled
}

// ResolveChannels filters the requested channels through the user's
// preferences and returns them in delivery order without duplicates. An
// empty request means the default channels. Unknown channels are dropped.
func ResolveChannels(prefs []*models.NotificationPreference, userID string, notificationType models.NotificationType, requested []models.Channel) []models.Channel {
	if len(requested) == 0 {
		requested = models.DefaultChannels()
	}

	wanted := make(map[models.Channel]bool, len(requested))
	for _, c := range requested {
		wanted[c] = true
	}

	effective := make([]models.Channel, 0, len(wanted))
	for _, c := range models.Channels() {
		if !wanted[c] {
			continue
		}
		if preferenceState(prefs, userID, notificationType, c).Allows() {
			effective = append(effective, c)
		}
	}
	return effective
}
