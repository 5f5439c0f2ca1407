package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/edupulse/engage/internal/models"
)

// EngagementRepository handles daily digest engagements and the per-day
// rollup rows derived from them.
type EngagementRepository struct {
	db *DB
}

// NewEngagementRepository creates a new engagement repository.
func NewEngagementRepository(db *DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// AppendEngagement records a discrete engagement action.
func (r *EngagementRepository) AppendEngagement(e *models.DailyDigestEngagement) error {
	return r.db.Create(e).Error
}

// GetEngagementsForDay retrieves every engagement of a user for one logical
// day. day must be normalized to midnight; the range covers the whole day.
func (r *EngagementRepository) GetEngagementsForDay(userID uint, day time.Time) ([]models.DailyDigestEngagement, error) {
	endOfDay := day.Add(24*time.Hour - time.Millisecond)

	var engagements []models.DailyDigestEngagement
	err := r.db.
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, day, endOfDay).
		Order("created_at ASC").
		Find(&engagements).Error
	return engagements, err
}

// UpsertStatus creates or replaces the rollup row keyed by (user, date).
// Callers recompute the row in full before writing, so replacing is safe.
func (r *EngagementRepository) UpsertStatus(status *models.DailyEngagementStatus) error {
	var existing models.DailyEngagementStatus
	err := r.db.
		Where("user_id = ? AND date = ?", status.UserID, status.Date).
		First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		return r.db.Create(status).Error
	}
	if err != nil {
		return err
	}

	status.ID = existing.ID
	status.CreatedAt = existing.CreatedAt
	return r.db.Save(status).Error
}

// GetStatusesByDateRange retrieves rollup rows for a user within an
// inclusive date range, oldest first.
func (r *EngagementRepository) GetStatusesByDateRange(userID uint, start, end time.Time) ([]models.DailyEngagementStatus, error) {
	var statuses []models.DailyEngagementStatus
	err := r.db.
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, start, end).
		Order("date ASC").
		Find(&statuses).Error
	return statuses, err
}

// CountPresentDays counts present days for a user within an inclusive date
// range. Feeds the badge tier classification.
func (r *EngagementRepository) CountPresentDays(userID uint, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.DailyEngagementStatus{}).
		Where("user_id = ? AND is_present = ? AND date BETWEEN ? AND ?", userID, true, start, end).
		Count(&count).Error
	return count, err
}
