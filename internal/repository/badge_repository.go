package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/edupulse/engage/internal/models"
)

// BadgeRepository handles badge catalog, grants and tier status rows.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Create creates a new badge in the catalog.
func (r *BadgeRepository) Create(badge *models.Badge) error {
	return r.db.Create(badge).Error
}

// Save updates an existing catalog badge in place.
func (r *BadgeRepository) Save(badge *models.Badge) error {
	return r.db.Save(badge).Error
}

// GetByID retrieves a badge by its ID.
func (r *BadgeRepository) GetByID(id uint) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.First(&badge, id).Error; err != nil {
		return nil, err
	}
	return &badge, nil
}

// GetByName retrieves a badge by its name.
func (r *BadgeRepository) GetByName(name string) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.Where("name = ?", name).First(&badge).Error; err != nil {
		return nil, err
	}
	return &badge, nil
}

// GetAll retrieves the full badge catalog.
func (r *BadgeRepository) GetAll() ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.Order("created_at ASC").Find(&badges).Error
	return badges, err
}

// AwardBadge grants a badge to a user. Grants are idempotent: an existing
// grant returns success, and a duplicate-key conflict from a concurrent
// grant is treated as already awarded rather than surfaced.
func (r *BadgeRepository) AwardBadge(userID, badgeID uint) error {
	exists, err := r.HasUserEarnedBadge(userID, badgeID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	userBadge := &models.UserBadge{
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: time.Now(),
	}
	if err := r.db.Create(userBadge).Error; err != nil {
		if isUniqueViolation(err) {
			// Concurrent check-then-insert race: someone else won.
			return nil
		}
		return err
	}
	return nil
}

// isUniqueViolation reports whether err is a unique-constraint conflict.
// Matches both the Postgres and sqlite driver error texts since GORM does
// not normalize them.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// GetUserBadges retrieves all badges earned by a user with badge details preloaded.
func (r *BadgeRepository) GetUserBadges(userID uint) ([]models.UserBadge, error) {
	var userBadges []models.UserBadge
	err := r.db.
		Where("user_id = ?", userID).
		Preload("Badge").
		Order("earned_at DESC").
		Find(&userBadges).Error
	return userBadges, err
}

// HasUserEarnedBadge checks if a user has earned a specific badge.
func (r *BadgeRepository) HasUserEarnedBadge(userID, badgeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetStatusByUser retrieves a user's cached tier status. Returns
// gorm.ErrRecordNotFound before the first classification.
func (r *BadgeRepository) GetStatusByUser(userID uint) (*models.UserBadgeStatus, error) {
	var status models.UserBadgeStatus
	if err := r.db.Where("user_id = ?", userID).First(&status).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

// UpsertStatus creates or replaces the tier status row keyed by user.
func (r *BadgeRepository) UpsertStatus(status *models.UserBadgeStatus) error {
	var existing models.UserBadgeStatus
	err := r.db.Where("user_id = ?", status.UserID).First(&existing).Error

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
