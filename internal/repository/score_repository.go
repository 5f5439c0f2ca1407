package repository

import (
	"gorm.io/gorm"

	"github.com/edupulse/engage/internal/models"
)

// ScoreRepository handles the denormalized user score cache.
type ScoreRepository struct {
	db *DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// GetByUser retrieves a user's cached score row. Returns
// gorm.ErrRecordNotFound when the user has never been scored.
func (r *ScoreRepository) GetByUser(userID uint) (*models.UserScore, error) {
	var score models.UserScore
	if err := r.db.Where("user_id = ?", userID).First(&score).Error; err != nil {
		return nil, err
	}
	return &score, nil
}

// Upsert creates or replaces the score row keyed by user. This keeps the
// full-recompute write path idempotent.
func (r *ScoreRepository) Upsert(score *models.UserScore) error {
	var existing models.UserScore
	err := r.db.Where("user_id = ?", score.UserID).First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		return r.db.Create(score).Error
	}
	if err != nil {
		return err
	}

	score.ID = existing.ID
	score.CreatedAt = existing.CreatedAt
	return r.db.Save(score).Error
}

// GetTopByTotalScore returns up to limit rows ordered by total score
// descending. Ties break on ascending user ID so equal scores always rank
// in the same order.
func (r *ScoreRepository) GetTopByTotalScore(limit int) ([]models.UserScore, error) {
	var scores []models.UserScore
	query := r.db.
		Preload("User").
		Order("total_score DESC, user_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&scores).Error
	return scores, err
}
