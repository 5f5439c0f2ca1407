package models

import (
	"encoding/json"
	"time"
)

// Badge represents an achievement badge in the static catalog.
type Badge struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Tier        string          `gorm:"size:50" json:"tier"`
	Icon        string          `gorm:"size:50" json:"icon"`
	Criteria    json.RawMessage `gorm:"type:jsonb" json:"criteria"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Badge model.
func (Badge) TableName() string {
	return "badges"
}

// BadgeCriteria is the typed condition attached to a badge. Fields are
// alternatives: a badge is eligible when ANY set field is satisfied (OR
// semantics), not all of them.
type BadgeCriteria struct {
	MinScore       *int                 `json:"min_score,omitempty"`
	MinStreak      *int                 `json:"min_streak,omitempty"`
	MinEngagements *EngagementThreshold `json:"min_engagements,omitempty"`
}

// EngagementThreshold counts raw user events of one kind against a minimum.
type EngagementThreshold struct {
	EventType EventKind `json:"event_type"`
	Count     int       `json:"count"`
}

// UserBadge is an append-only grant record. Once earned, a badge is never
// revoked; the unique (user_id, badge_id) index makes re-grants no-ops.
type UserBadge struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_user_badges_user_badge" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:idx_user_badges_user_badge" json:"badge_id"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time `gorm:"not null" json:"earned_at"`
}

// TableName specifies the table name for UserBadge model.
func (UserBadge) TableName() string {
	return "user_badges"
}

// UserBadgeStatus caches the tier classification derived from counting
// present days over the trailing 180-day window. DaysActive and
// CurrentBadge reflect the state as of LastCalculatedAt.
type UserBadgeStatus struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CurrentBadge     string    `gorm:"size:50" json:"current_badge"`
	DaysActive       int       `gorm:"not null;default:0" json:"days_active"`
	LastCalculatedAt time.Time `json:"last_calculated_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for UserBadgeStatus model.
func (UserBadgeStatus) TableName() string {
	return "user_badge_statuses"
}
