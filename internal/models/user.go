// Package models defines domain models for the engagement scoring engine.
package models

import (
	"time"
)

// User holds the minimal public profile the engine needs for leaderboard
// joins. Full account data is owned by the auth/profile modules.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	AvatarURL string    `gorm:"type:text" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}
