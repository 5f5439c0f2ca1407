package models

import (
	"time"
)

// EngagementType distinguishes the two kinds of daily-digest engagement.
type EngagementType string

// Engagement types accepted by the daily engagement recorder.
const (
	EngagementCardView   EngagementType = "CARD_VIEW"
	EngagementMCQAttempt EngagementType = "MCQ_ATTEMPT"
)

// CardType classifies the content a user engaged with. Inferred best-effort
// by probing the content stores when the caller does not supply it.
type CardType string

// Known card categories.
const (
	CardCurrentAffairs   CardType = "current_affairs"
	CardGeneralKnowledge CardType = "general_knowledge"
	CardMCQ              CardType = "mcq"
	CardGeneral          CardType = "general"
)

// DailyDigestEngagement is one row per discrete engagement action (a card
// view or a quiz attempt). Append-only input to the daily rollup; Date is
// normalized to UTC midnight of the logical day.
type DailyDigestEngagement struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index:idx_digest_engagements_user_date" json:"user_id"`
	CardID         string         `gorm:"size:64;not null" json:"card_id"`
	CardType       CardType       `gorm:"size:50" json:"card_type"`
	EngagementType EngagementType `gorm:"size:50;not null" json:"engagement_type"`
	Duration       int            `gorm:"not null;default:0" json:"duration"` // seconds, view engagements only
	IsCorrect      bool           `gorm:"not null;default:false" json:"is_correct"`
	Date           time.Time      `gorm:"type:date;not null;index:idx_digest_engagements_user_date" json:"date"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TableName specifies the table name for DailyDigestEngagement model.
func (DailyDigestEngagement) TableName() string {
	return "daily_digest_engagements"
}

// DailyEngagementStatus is the materialized per-user per-day rollup. It is
// recomputed in full from the day's DailyDigestEngagement rows on every
// write for that day, which keeps it idempotent under duplicate and
// out-of-order submissions.
type DailyEngagementStatus struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	UserID                  uint      `gorm:"not null;uniqueIndex:idx_daily_status_user_date" json:"user_id"`
	Date                    time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_status_user_date" json:"date"`
	IsPresent               bool      `gorm:"not null;default:false" json:"is_present"`
	CardViewCount           int       `gorm:"not null;default:0" json:"card_view_count"`
	MCQAttemptCount         int       `gorm:"not null;default:0" json:"mcq_attempt_count"`
	MCQCorrectCount         int       `gorm:"not null;default:0" json:"mcq_correct_count"`
	MCQAccuracy             float64   `gorm:"type:decimal(5,2);not null;default:0" json:"mcq_accuracy"`
	TotalEngagementDuration int       `gorm:"not null;default:0" json:"total_engagement_duration"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// TableName specifies the table name for DailyEngagementStatus model.
func (DailyEngagementStatus) TableName() string {
	return "daily_engagement_statuses"
}
