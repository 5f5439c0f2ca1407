package models

import (
	"time"
)

// UserScore is the denormalized score cache, one row per user. It is derived
// data: TotalScore equals the weighted sum over all of the user's events as
// of ComputedAt, and may be stale between recomputations. The aggregator
// refreshes it on every score read and during the nightly sweep.
type UserScore struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User         User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TotalScore   int       `gorm:"not null;default:0" json:"total_score"`
	WeeklyScore  int       `gorm:"not null;default:0" json:"weekly_score"`
	MonthlyScore int       `gorm:"not null;default:0" json:"monthly_score"`
	ComputedAt   time.Time `json:"computed_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for UserScore model.
func (UserScore) TableName() string {
	return "user_scores"
}
