package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// NotificationRequested is published by other platform services to ask for
// a notification to be dispatched.
type NotificationRequested struct {
	UserIDs  []string               `json:"user_ids"`
	Subject  string                 `json:"subject"`
	Message  string                 `json:"message"`
	Type     string                 `json:"type"`
	Channels []string               `json:"channels,omitempty"`
	Extra    map[string]interface{} `json:"extra,omitempty"`
	Source   string                 `json:"source,omitempty"`
}

// DispatchFunc handles one decoded request.
type DispatchFunc func(ctx context.Context, req NotificationRequested) error

// RequestConsumer routes notification.requested messages to a DispatchFunc.
// Every message is acked, including malformed ones and ones whose dispatch
// failed; there is no redelivery.
type RequestConsumer struct {
	router   *message.Router
	dispatch DispatchFunc
	logger   *slog.Logger
}

func NewRequestConsumer(subscriber message.Subscriber, topic string, dispatch DispatchFunc, logger *slog.Logger) (*RequestConsumer, error) {
	if topic == "" {
		topic = TopicNotificationRequests
	}

	router, err := message.NewRouter(message.RouterConfig{}, NewWatermillLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	c := &RequestConsumer{
		router:   router,
		dispatch: dispatch,
		logger:   logger,
	}
	router.AddNoPublisherHandler("notification_requests", topic, subscriber, c.handle)

	return c, nil
}

func (c *RequestConsumer) handle(msg *message.Message) error {
	var req NotificationRequested
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.logger.Warn("Dropping malformed notification request", "message_uuid", msg.UUID, "error", err)
		return nil
	}
	if len(req.UserIDs) == 0 {
		c.logger.Warn("Dropping notification request without recipients", "message_uuid", msg.UUID)
		return nil
	}

	if err := c.dispatch(msg.Context(), req); err != nil {
		c.logger.Error("Notification request failed", "message_uuid", msg.UUID, "source", req.Source, "error", err)
		return nil
	}

	c.logger.Info("Notification request handled", "message_uuid", msg.UUID, "source", req.Source, "recipients", len(req.UserIDs))
	return nil
}

// Run blocks until ctx is cancelled or the router is closed.
func (c *RequestConsumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running is closed once the router has started all handlers.
func (c *RequestConsumer) Running() chan struct{} {
	return c.router.Running()
}

func (c *RequestConsumer) Close() error {
	return c.router.Close()
}
