package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// NotificationType is the closed set of notification categories that
// preferences are keyed on.
type NotificationType string

const (
	NotificationAssignmentDue NotificationType = "assignment_due"
	NotificationQuizPublished NotificationType = "quiz_published"
	NotificationGradePosted   NotificationType = "grade_posted"
	NotificationBadge         NotificationType = "badge"
	NotificationForumReply    NotificationType = "forum_reply"
	NotificationReminder      NotificationType = "reminder"
	NotificationAnnouncement  NotificationType = "announcement"
	NotificationMessage       NotificationType = "message"
	NotificationStudySession  NotificationType = "study_session"
	NotificationGoalAchieved  NotificationType = "goal_achieved"
	NotificationSystem        NotificationType = "system"
)

var notificationTypes = []NotificationType{
	NotificationAssignmentDue,
	NotificationQuizPublished,
	NotificationGradePosted,
	NotificationBadge,
	NotificationForumReply,
	NotificationReminder,
	NotificationAnnouncement,
	NotificationMessage,
	NotificationStudySession,
	NotificationGoalAchieved,
	NotificationSystem,
}

// NotificationTypes returns every known notification type.
func NotificationTypes() []NotificationType {
	out := make([]NotificationType, len(notificationTypes))
	copy(out, notificationTypes)
	return out
}

func (t NotificationType) IsValid() bool {
	for _, known := range notificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseNotificationType converts a raw label into a NotificationType.
func ParseNotificationType(s string) (NotificationType, bool) {
	t := NotificationType(s)
	return t, t.IsValid()
}

// Column limits of the notifications table.
const (
	MaxUserIDLength  = 255
	MaxTitleLength   = 200
	MaxMessageLength = 5000
)

// Notification is the audit row written once per recipient per dispatch.
// It records that delivery was attempted, not that it succeeded.
type Notification struct {
	ID      uint             `json:"id" gorm:"primaryKey"`
	UserID  string           `json:"user_id" gorm:"not null;size:255;index:idx_notifications_user_created,priority:1"`
	Type    NotificationType `json:"type" gorm:"not null;size:50;index"`
	Title   string           `json:"title" gorm:"not null;size:200"`
	Message string           `json:"message" gorm:"type:text;not null"`
	Extra   datatypes.JSON   `json:"-" gorm:"type:jsonb"`

	IsRead bool       `json:"is_read" gorm:"not null;default:false"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_notifications_user_created,priority:2"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ExtraMap decodes the extra payload. Malformed or empty JSON yields an
// empty map.
func (n *Notification) ExtraMap() map[string]interface{} {
	out := map[string]interface{}{}
	if n == nil || len(n.Extra) == 0 {
		return out
	}
	if err := json.Unmarshal(n.Extra, &out); err != nil || out == nil {
		return map[string]interface{}{}
	}
	return out
}

// MarshalJSON exposes Extra as a decoded object so clients never see the
// raw column.
func (n Notification) MarshalJSON() ([]byte, error) {
	type alias Notification
	return json.Marshal(struct {
		alias
		Extra map[string]interface{} `json:"extra"`
	}{
		alias: alias(n),
		Extra: n.ExtraMap(),
	})
}
