package models

import (
	"encoding/json"
	"time"
)

// EventKind identifies a type of user activity event.
type EventKind string

// Event kinds emitted by the feature modules.
const (
	EventLogin       EventKind = "login"
	EventCardView    EventKind = "card_view"
	EventQuizAttempt EventKind = "quiz_attempt"
	EventQuizCorrect EventKind = "quiz_correct"
	EventSocialPost  EventKind = "social_post"
	EventSocialLike  EventKind = "social_like"
	EventConnection  EventKind = "connection"
	EventReferral    EventKind = "referral"
)

// UserEvent is an append-only fact record about a user action. Every feature
// module (auth, quiz, social) appends here; the scoring engine only reads.
// CreatedAt is authoritative for window bucketing, so late or out-of-order
// arrivals still land in the right window on the next recompute.
type UserEvent struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index:idx_user_events_user_created" json:"user_id"`
	User      User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EventType EventKind       `gorm:"size:50;not null;index" json:"event_type"`
	Metadata  json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time       `gorm:"not null;index:idx_user_events_user_created" json:"created_at"`
}

// TableName specifies the table name for UserEvent model.
func (UserEvent) TableName() string {
	return "user_events"
}
