package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/notification-service/internal/events"
	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
	"github.com/SAP-F-2025/notification-service/internal/validator"
)

type preferenceService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewPreferenceService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) PreferenceService {
	return &preferenceService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

func (s *preferenceService) List(ctx context.Context, userID string) ([]*models.NotificationPreference, error) {
	prefs, err := s.repo.Preference().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	if prefs == nil {
		prefs = []*models.NotificationPreference{}
	}
	return prefs, nil
}

// Update upserts every item in one transaction. Rows not named in the
// request are left alone.
func (s *preferenceService) Update(ctx context.Context, userID string, req *UpdatePreferencesRequest) ([]*models.NotificationPreference, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if errs := s.validator.Business().ValidatePreferenceUpdate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, errs)
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for _, item := range req.Preferences {
			pref := &models.NotificationPreference{
				UserID:  userID,
				Type:    item.Type,
				Channel: item.Channel,
				Enabled: *item.Enabled,
			}
			if err := txRepo.Preference().Upsert(ctx, nil, pref); err != nil {
				return fmt.Errorf("failed to save preference %s/%s: %w", item.Type, item.Channel, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Preferences updated", "user_id", userID, "changed", len(req.Preferences))
	s.publish(ctx, events.PreferencesUpdatedData{UserID: userID, Changed: len(req.Preferences)})

	return s.List(ctx, userID)
}

func (s *preferenceService) Effective(ctx context.Context, userID string, types []models.NotificationType) ([]*EffectivePreferences, error) {
	if len(types) == 0 {
		types = models.NotificationTypes()
	}
	for _, t := range types {
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNotificationType, t)
		}
	}

	out := make([]*EffectivePreferences, 0, len(types))
	for _, t := range types {
		eff := &EffectivePreferences{UserID: userID, Type: t}
		for _, c := range models.Channels() {
			state := LookupPreference(ctx, s.repo.Preference(), s.logger, userID, t, c)
			eff.Channels = append(eff.Channels, ChannelPreference{
				Channel: c,
				State:   state,
				Allowed: state.Allows(),
			})
		}
		out = append(out, eff)
	}
	return out, nil
}

// Reset deletes every stored switch, returning the user to the defaults.
func (s *preferenceService) Reset(ctx context.Context, userID string) error {
	if err := s.repo.Preference().DeleteByUser(ctx, nil, userID); err != nil {
		return fmt.Errorf("failed to reset preferences: %w", err)
	}

	s.logger.Info("Preferences reset", "user_id", userID)
	s.publish(ctx, events.PreferencesUpdatedData{UserID: userID, Reset: true})
	return nil
}

func (s *preferenceService) publish(ctx context.Context, data events.PreferencesUpdatedData) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(events.EventPreferencesUpdated, data)); err != nil {
		s.logger.Warn("Failed to publish preferences event", "user_id", data.UserID, "error", err)
	}
}
