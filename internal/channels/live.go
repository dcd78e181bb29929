package channels

import (
	"context"
	"time"

	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/realtime"
)

// LiveSender pushes to the user's live connection, if there is one.
// Offline users are skipped: nothing is queued or retried.
type LiveSender struct {
	registry *realtime.Manager
}

func NewLiveSender(registry *realtime.Manager) *LiveSender {
	return &LiveSender{registry: registry}
}

func (s *LiveSender) Channel() models.Channel {
	return models.ChannelWebsocket
}

// LivePayload is the data section of a pushed notification frame.
type LivePayload struct {
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Extra     map[string]interface{}  `json:"extra"`
	Timestamp time.Time               `json:"timestamp"`
}

func (s *LiveSender) Send(ctx context.Context, to Recipient, msg Message) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Skipped, err
	}

	extra := msg.Extra
	if extra == nil {
		extra = map[string]interface{}{}
	}

	frame := realtime.Message{
		Type:    realtime.MessageNotification,
		Message: msg.Subject,
		Data: LivePayload{
			Type:      msg.Type,
			Title:     msg.Subject,
			Message:   msg.Body,
			Extra:     extra,
			Timestamp: time.Now().UTC(),
		},
	}

	sent, err := s.registry.SendIfPresent(to.UserID, frame)
	if err != nil {
		return Skipped, err
	}
	if !sent {
		return Skipped, nil
	}
	return Delivered, nil
}
