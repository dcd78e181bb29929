package models

import "time"

// Channel identifies a delivery backend.
type Channel string

const (
	ChannelWebsocket Channel = "websocket"
	ChannelEmail     Channel = "email"
	ChannelSMS       Channel = "sms"
)

// channelOrder is the order in which backends are attempted.
var channelOrder = []Channel{ChannelWebsocket, ChannelEmail, ChannelSMS}

// Channels returns every known channel in delivery order.
func Channels() []Channel {
	out := make([]Channel, len(channelOrder))
	copy(out, channelOrder)
	return out
}

// DefaultChannels is used when a dispatch does not name any channel.
func DefaultChannels() []Channel {
	return []Channel{ChannelWebsocket, ChannelEmail}
}

func (c Channel) IsValid() bool {
	for _, known := range channelOrder {
		if c == known {
			return true
		}
	}
	return false
}

// Rank returns the position of c in delivery order, or -1.
func (c Channel) Rank() int {
	for i, known := range channelOrder {
		if c == known {
			return i
		}
	}
	return -1
}

func ParseChannel(s string) (Channel, bool) {
	c := Channel(s)
	return c, c.IsValid()
}

// NotificationPreference is a per-user, per-type, per-channel switch.
type NotificationPreference struct {
	ID      uint             `json:"id" gorm:"primaryKey"`
	UserID  string           `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_pref_user_type_channel,priority:1"`
	Type    NotificationType `json:"notification_type" gorm:"column:notification_type;not null;size:50;uniqueIndex:idx_pref_user_type_channel,priority:2"`
	Channel Channel          `json:"channel" gorm:"not null;size:20;uniqueIndex:idx_pref_user_type_channel,priority:3"`
	Enabled bool             `json:"enabled" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (NotificationPreference) TableName() string {
	return "notification_preferences"
}

// PreferenceState is the result of looking up a single preference.
type PreferenceState int

const (
	PreferenceUnset PreferenceState = iota
	PreferenceEnabled
	PreferenceDisabled
)

// Allows applies the opt-out policy: only an explicit disable suppresses a
// channel.
func (s PreferenceState) Allows() bool {
	return s != PreferenceDisabled
}

func (s PreferenceState) String() string {
	switch s {
	case PreferenceEnabled:
		return "enabled"
	case PreferenceDisabled:
		return "disabled"
	default:
		return "unset"
	}
}

func (s PreferenceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
