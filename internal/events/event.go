package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "notification-service"
	EventVersion = "1.0"
)

// Event types
const (
	EventNotificationDispatched = "notification.dispatched"
	EventPreferencesUpdated     = "notification.preferences_updated"
)

// Topics
const (
	TopicNotificationEvents   = "notification.events"
	TopicNotificationRequests = "notification.requested"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// DispatchedEventData summarises one dispatch.
type DispatchedEventData struct {
	RequestedBy      string         `json:"requested_by,omitempty"`
	NotificationType string         `json:"notification_type"`
	Recipients       int            `json:"recipients"`
	Audited          int            `json:"audited"`
	Delivered        map[string]int `json:"delivered"`
	Failed           map[string]int `json:"failed"`
}

type PreferencesUpdatedData struct {
	UserID  string `json:"user_id"`
	Changed int    `json:"changed"`
	Reset   bool   `json:"reset,omitempty"`
}
