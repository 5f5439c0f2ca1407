package repository

import (
	"time"

	"github.com/edupulse/engage/internal/models"
)

// EventRepository handles the append-only user event log. The scoring engine
// appends via the collaborator hook and reads; it never updates or deletes.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append records a new user event.
func (r *EventRepository) Append(event *models.UserEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return r.db.Create(event).Error
}

// GetByUser retrieves every event of a user ordered by creation time.
func (r *EventRepository) GetByUser(userID uint) ([]models.UserEvent, error) {
	var events []models.UserEvent
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

// GetByUserSince retrieves a user's events with created_at >= since.
func (r *EventRepository) GetByUserSince(userID uint, since time.Time) ([]models.UserEvent, error) {
	var events []models.UserEvent
	err := r.db.
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

// CountByUserAndType counts a user's events of one kind. Used by the badge
// eligibility engine for engagement-count thresholds.
func (r *EventRepository) CountByUserAndType(userID uint, eventType models.EventKind) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserEvent{}).
		Where("user_id = ? AND event_type = ?", userID, eventType).
		Count(&count).Error
	return count, err
}

// ListUserIDs returns the distinct user IDs present in the event log. The
// nightly sweep iterates these rather than the full user table so inactive
// accounts cost nothing.
func (r *EventRepository) ListUserIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.UserEvent{}).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
