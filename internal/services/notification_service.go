package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/notification-service/internal/channels"
	"github.com/SAP-F-2025/notification-service/internal/events"
	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
)

type notificationService struct {
	repo          repositories.Repository
	senders       map[models.Channel]channels.Sender
	publisher     events.EventPublisher
	logger        *slog.Logger
	maxRecipients int
}

// NewNotificationService builds the dispatcher. Channels without a sender
// are skipped at delivery time. publisher may be nil.
func NewNotificationService(
	repo repositories.Repository,
	senders []channels.Sender,
	publisher events.EventPublisher,
	logger *slog.Logger,
	maxRecipients int,
) NotificationService {
	byChannel := make(map[models.Channel]channels.Sender, len(senders))
	for _, s := range senders {
		if s != nil {
			byChannel[s.Channel()] = s
		}
	}
	return &notificationService{
		repo:          repo,
		senders:       byChannel,
		publisher:     publisher,
		logger:        logger,
		maxRecipients: maxRecipients,
	}
}

func (s *notificationService) Notify(ctx context.Context, req *DispatchRequest) (*DispatchResult, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}

	s.logger.Info("Dispatching notification",
		"type", req.Type,
		"recipients", len(req.UserIDs),
		"requested_by", req.RequestedBy)

	extra := encodeExtra(req.Extra, s.logger)
	result := &DispatchResult{
		Type:       req.Type,
		Recipients: make([]*RecipientResult, 0, len(req.UserIDs)),
	}

	for _, userID := range req.UserIDs {
		if err := ctx.Err(); err != nil {
			s.publishDispatched(ctx, req, result)
			return result, fmt.Errorf("dispatch interrupted after %d of %d recipients: %w",
				len(result.Recipients), len(req.UserIDs), err)
		}

		r := s.notifyUser(ctx, req, userID, extra)
		if r.AuditID != 0 {
			result.Audited++
		}
		result.Recipients = append(result.Recipients, r)
	}

	s.publishDispatched(ctx, req, result)

	s.logger.Info("Notification dispatched",
		"type", req.Type,
		"recipients", len(result.Recipients),
		"audited", result.Audited)

	return result, nil
}

func (s *notificationService) checkRequest(req *DispatchRequest) error {
	if req == nil || len(req.UserIDs) == 0 {
		return ErrNoRecipients
	}
	if s.maxRecipients > 0 && len(req.UserIDs) > s.maxRecipients {
		return fmt.Errorf("%w: %d exceeds %d", ErrTooManyRecipients, len(req.UserIDs), s.maxRecipients)
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidNotificationType, req.Type)
	}
	for _, c := range req.Channels {
		if !c.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidChannel, c)
		}
	}
	// Requests from the event bus skip the REST DTO validation, and a row
	// that does not fit the audit table would be delivered but never recorded.
	if strings.TrimSpace(req.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrValidationFailed)
	}
	if n := utf8.RuneCountInString(req.Subject); n > models.MaxTitleLength {
		return fmt.Errorf("%w: subject has %d characters, max %d", ErrValidationFailed, n, models.MaxTitleLength)
	}
	if n := utf8.RuneCountInString(req.Message); n > models.MaxMessageLength {
		return fmt.Errorf("%w: message has %d characters, max %d", ErrValidationFailed, n, models.MaxMessageLength)
	}
	for _, id := range req.UserIDs {
		if id == "" || utf8.RuneCountInString(id) > models.MaxUserIDLength {
			return fmt.Errorf("%w: invalid user id %q", ErrValidationFailed, id)
		}
	}
	return nil
}

// notifyUser attempts every effective channel for one user and then
// commits that user's audit row on its own.
func (s *notificationService) notifyUser(ctx context.Context, req *DispatchRequest, userID string, extra datatypes.JSON) *RecipientResult {
	logger := s.logger.With("user_id", userID, "type", req.Type)

	prefs, err := s.repo.Preference().ListByUser(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load preferences, using defaults", "error", err)
		prefs = nil
	}

	r := &RecipientResult{
		UserID:    userID,
		Effective: ResolveChannels(prefs, userID, req.Type, req.Channels),
		Delivered: []models.Channel{},
		Skipped:   []models.Channel{},
	}

	msg := channels.Message{
		Type:    req.Type,
		Subject: req.Subject,
		Body:    req.Message,
		Extra:   req.Extra,
	}
	to := channels.Recipient{UserID: userID}
	var lookupErr error
	looked := false

	for _, channel := range r.Effective {
		if needsContact(channel) && !looked {
			to, lookupErr = s.lookupRecipient(ctx, userID)
			looked = true
		}

		if needsContact(channel) && lookupErr != nil {
			r.fail(channel, lookupErr)
			logger.Error("Recipient lookup failed", "channel", channel, "error", lookupErr)
			continue
		}

		outcome, err := s.deliver(ctx, channel, to, msg)
		switch {
		case err != nil:
			r.fail(channel, err)
			logger.Error("Channel delivery failed", "channel", channel, "error", err)
		case outcome == channels.Delivered:
			r.Delivered = append(r.Delivered, channel)
		default:
			r.Skipped = append(r.Skipped, channel)
			logger.Debug("Channel skipped", "channel", channel)
		}
	}

	audit := &models.Notification{
		UserID:  userID,
		Type:    req.Type,
		Title:   req.Subject,
		Message: req.Message,
		Extra:   extra,
	}
	if err := s.repo.Notification().Create(ctx, nil, audit); err != nil {
		r.AuditError = err.Error()
		logger.Error("Failed to write notification audit row", "error", err)
	} else {
		r.AuditID = audit.ID
	}

	return r
}

// deliver runs one backend and converts a panic into an error so that a
// broken channel cannot stop the remaining channels or the audit write.
func (s *notificationService) deliver(ctx context.Context, channel models.Channel, to channels.Recipient, msg channels.Message) (outcome channels.Outcome, err error) {
	sender, ok := s.senders[channel]
	if !ok {
		return channels.Skipped, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			outcome = channels.Skipped
			err = fmt.Errorf("%s channel panicked: %v", channel, rec)
		}
	}()

	outcome, err = sender.Send(ctx, to, msg)
	if errors.Is(err, channels.ErrNotConfigured) {
		return channels.Skipped, nil
	}
	return outcome, err
}

// lookupRecipient loads contact details. A missing user is not an error:
// the contact channels are skipped for lack of an address.
func (s *notificationService) lookupRecipient(ctx context.Context, userID string) (channels.Recipient, error) {
	to := channels.Recipient{UserID: userID}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return to, nil
		}
		return to, fmt.Errorf("failed to get user: %w", err)
	}

	to.Email = user.Email
	to.Phone = user.PhoneNumber()
	return to, nil
}

func (s *notificationService) publishDispatched(ctx context.Context, req *DispatchRequest, result *DispatchResult) {
	if s.publisher == nil {
		return
	}

	data := events.DispatchedEventData{
		RequestedBy:      req.RequestedBy,
		NotificationType: string(req.Type),
		Recipients:       len(result.Recipients),
		Audited:          result.Audited,
		Delivered:        map[string]int{},
		Failed:           map[string]int{},
	}
	for _, r := range result.Recipients {
		for _, c := range r.Delivered {
			data.Delivered[string(c)]++
		}
		for c := range r.Failed {
			data.Failed[string(c)]++
		}
	}

	// The dispatch already happened; publish even if the caller gave up.
	if err := s.publisher.Publish(context.WithoutCancel(ctx), events.NewEvent(events.EventNotificationDispatched, data)); err != nil {
		s.logger.Warn("Failed to publish dispatch event", "type", req.Type, "error", err)
	}
}

func (r *RecipientResult) fail(channel models.Channel, err error) {
	if r.Failed == nil {
		r.Failed = make(map[models.Channel]string)
	}
	r.Failed[channel] = err.Error()
}

func needsContact(c models.Channel) bool {
	return c == models.ChannelEmail || c == models.ChannelSMS
}

func encodeExtra(extra map[string]interface{}, logger *slog.Logger) datatypes.JSON {
	if len(extra) == 0 {
		return nil
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		logger.Warn("Dropping unencodable extra payload", "error", err)
		return nil
	}
	return datatypes.JSON(raw)
}

// ===== READ SIDE =====

func (s *notificationService) List(ctx context.Context, userID string, filters repositories.NotificationFilters) (*NotificationListResponse, error) {
	filters.UserID = userID
	filters.Limit, filters.Offset = normalizePage(filters.Limit, filters.Offset)

	items, total, err := s.repo.Notification().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if items == nil {
		items = []*models.Notification{}
	}

	return &NotificationListResponse{
		Notifications: items,
		Total:         total,
		Limit:         filters.Limit,
		Offset:        filters.Offset,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.Notification().CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, id uint, userID string) (*models.Notification, error) {
	n, err := s.repo.Notification().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	if n.UserID != userID {
		return nil, NewPermissionError(userID, id, "notification", "mark_read", "not the recipient")
	}
	if n.IsRead {
		return n, nil
	}

	if err := s.repo.Notification().MarkAsRead(ctx, nil, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to mark notification as read: %w", err)
	}

	return s.repo.Notification().GetByID(ctx, nil, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	updated, err := s.repo.Notification().MarkAllAsRead(ctx, nil, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	s.logger.Info("Notifications marked as read", "user_id", userID, "count", updated)
	return updated, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
