package badges

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/edupulse/engage/internal/models"
)

// evaluateCriteria reports whether a user satisfies a badge's criteria.
// Fields are alternatives: any single satisfied sub-criterion qualifies.
func (s *Service) evaluateCriteria(ctx context.Context, criteria *models.BadgeCriteria, userID uint) (bool, error) {
	if criteria.MinScore != nil {
		score, err := s.userTotalScore(userID)
		if err != nil {
			return false, err
		}
		if score >= *criteria.MinScore {
			return true, nil
		}
	}

	if criteria.MinStreak != nil {
		streak, err := s.currentStreak(ctx, userID)
		if err != nil {
			return false, err
		}
		if streak >= *criteria.MinStreak {
			return true, nil
		}
	}

	if criteria.MinEngagements != nil {
		count, err := s.eventRepo.CountByUserAndType(userID, criteria.MinEngagements.EventType)
		if err != nil {
			return false, fmt.Errorf("failed to count %s events: %w", criteria.MinEngagements.EventType, err)
		}
		if count >= int64(criteria.MinEngagements.Count) {
			return true, nil
		}
	}

	return false, nil
}

// parseCriteria decodes the stored criteria JSON.
func parseCriteria(badge *models.Badge) (*models.BadgeCriteria, error) {
	var criteria models.BadgeCriteria
	if err := json.Unmarshal(badge.Criteria, &criteria); err != nil {
		return nil, fmt.Errorf("failed to parse criteria for badge %s: %w", badge.Name, err)
	}
	return &criteria, nil
}

// userTotalScore reads the cached total. A user who was never scored simply
// has zero points, not an error.
func (s *Service) userTotalScore(userID uint) (int, error) {
	score, err := s.scoreRepo.GetByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read score: %w", err)
	}
	return score.TotalScore, nil
}

// currentStreak counts consecutive present days ending today. A day without
// a rollup row breaks the streak; an absent today falls back to a streak
// ending yesterday so a morning check does not zero an unbroken run.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) currentStreak(ctx context.Context, userID uint) (int, error) {
	today := normalizeDay(s.now())
	start := today.AddDate(0, 0, -(s.windowDays - 1))

	statuses, err := s.engagementRepo.GetStatusesByDateRange(userID, start, today)
	if err != nil {
		return 0, fmt.Errorf("failed to read daily statuses: %w", err)
	}

	presentByDay := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		if st.IsPresent {
			presentByDay[st.Date.UTC().Format("2006-01-02")] = true
		}
	}

	anchor := today
	if !presentByDay[anchor.Format("2006-01-02")] {
		anchor = today.AddDate(0, 0, -1)
	}

	streak := 0
	for day := anchor; !day.Before(start); day = day.AddDate(0, 0, -1) {
		if !presentByDay[day.Format("2006-01-02")] {
			break
		}
		streak++
	}

	return streak, nil
}

// normalizeDay truncates a time to UTC midnight.
func normalizeDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
