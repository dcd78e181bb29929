// Package channels holds the delivery backends a notification can be sent
// through.
package channels

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/notification-service/internal/models"
)

// Outcome is the result of a delivery attempt that did not fail.
type Outcome int

const (
	// Delivered means the backend accepted the message. For email this
	// means queued, not received.
	Delivered Outcome = iota
	// Skipped means the recipient could not be reached on this channel,
	// for example because they are offline or have no address.
	Skipped
)

func (o Outcome) String() string {
	if o == Delivered {
		return "delivered"
	}
	return "skipped"
}

var (
	ErrNotConfigured = errors.New("channel not configured")
	ErrOutboxFull    = errors.New("email outbox is full")
	ErrOutboxClosed  = errors.New("email outbox is closed")
)

// Recipient is what a backend knows about the target user.
type Recipient struct {
	UserID string
	Email  string
	Phone  string
}

// Message is the channel-independent content of a notification.
type Message struct {
	NotificationID uint
	Type           models.NotificationType
	Subject        string
	Body           string
	Extra          map[string]interface{}
}

// Sender delivers a message over one channel.
type Sender interface {
	Channel() models.Channel
	Send(ctx context.Context, to Recipient, msg Message) (Outcome, error)
}
