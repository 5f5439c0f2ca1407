// Package engagement records daily digest engagement actions, maintains the
// per-user per-day presence rollup and serves the rolling 7-day meter.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	prommetrics "github.com/edupulse/engage/internal/metrics"
	"github.com/edupulse/engage/internal/models"
	"github.com/edupulse/engage/internal/repository"
	"github.com/edupulse/engage/pkg/logger"
)

// ErrInvalidInput marks a submission rejected by validation.
var ErrInvalidInput = errors.New("invalid engagement input")

// Repository interface for engagement storage.
type Repository interface {
	AppendEngagement(e *models.DailyDigestEngagement) error
	GetEngagementsForDay(userID uint, day time.Time) ([]models.DailyDigestEngagement, error)
	UpsertStatus(status *models.DailyEngagementStatus) error
	GetStatusesByDateRange(userID uint, start, end time.Time) ([]models.DailyEngagementStatus, error)
}

// TrackInput carries one engagement submission.
type TrackInput struct {
	UserID     uint
	CardID     string
	CardType   models.CardType // optional, inferred when empty
	Type       models.EngagementType
	Duration   int  // seconds, view engagements only
	IsComplete bool // quiz attempts: whether the answer was correct
	Date       *time.Time
}

// MeterDay is one entry of the weekly meter.
type MeterDay struct {
	Date            time.Time `json:"date"`
	IsPresent       bool      `json:"is_present"`
	Completed       bool      `json:"completed"`
	CardViewCount   int       `json:"card_view_count"`
	MCQAttemptCount int       `json:"mcq_attempt_count"`
	MCQAccuracy     float64   `json:"mcq_accuracy"`
}

// WeeklyMeter is the dense 7-day presence view, oldest day first.
type WeeklyMeter struct {
	DaysCompleted int        `json:"days_completed"`
	Days          []MeterDay `json:"days"`
}

// Service is the daily engagement recorder. Every write recomputes the full
// (user, day) rollup from the day's raw rows, which makes the rollup
// idempotent under duplicate, concurrent and out-of-order submissions: the
// last writer recomputes from everything visible and self-corrects.
type Service struct {
	repo               Repository
	cards              *ResolverChain
	minViewSeconds     int
	minAccuracyPercent float64
	now                func() time.Time
	log                *logger.Logger
}

// NewService creates a new engagement service with the concrete repository type.
func NewService(repo *repository.EngagementRepository, cards *ResolverChain, minViewSeconds int, minAccuracyPercent float64, log *logger.Logger) *Service {
	return newService(repo, cards, minViewSeconds, minAccuracyPercent, log)
}

// NewServiceWithInterfaces creates a new engagement service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(repo Repository, cards *ResolverChain, minViewSeconds int, minAccuracyPercent float64, log *logger.Logger) *Service {
	return newService(repo, cards, minViewSeconds, minAccuracyPercent, log)
}

func newService(repo Repository, cards *ResolverChain, minViewSeconds int, minAccuracyPercent float64, log *logger.Logger) *Service {
	return &Service{
		repo:               repo,
		cards:              cards,
		minViewSeconds:     minViewSeconds,
		minAccuracyPercent: minAccuracyPercent,
		now:                time.Now,
		log:                log,
	}
}

// SetNowFunc overrides the clock. Tests only.
func (s *Service) SetNowFunc(now func() time.Time) {
	s.now = now
}

// TrackEngagement validates and appends one engagement row, then recomputes
// the day's rollup. Validation failures reject before any write.
func (s *Service) TrackEngagement(ctx context.Context, in TrackInput) error {
	if err := s.validate(in); err != nil {
		return err
	}

	day := s.logicalDay(in.Date)

	cardType := in.CardType
	if cardType == "" {
		cardType = s.cards.Resolve(ctx, in.CardID)
	}

	row := &models.DailyDigestEngagement{
		UserID:         in.UserID,
		CardID:         in.CardID,
		CardType:       cardType,
		EngagementType: in.Type,
		Date:           day,
	}
	switch in.Type {
	case models.EngagementCardView:
		row.Duration = in.Duration
	case models.EngagementMCQAttempt:
		row.IsCorrect = in.IsComplete
	}

	if err := s.repo.AppendEngagement(row); err != nil {
		return fmt.Errorf("failed to record engagement: %w", err)
	}
	prommetrics.RecordEngagement(string(in.Type), string(cardType))

	if err := s.recomputeDay(in.UserID, day); err != nil {
		return fmt.Errorf("failed to recompute daily status: %w", err)
	}

	s.log.Debug().
		Uint("user_id", in.UserID).
		Str("card_id", in.CardID).
		Str("type", string(in.Type)).
		Time("day", day).
		Msg("Engagement tracked")

	return nil
}

// validate rejects malformed submissions before any write.
func (s *Service) validate(in TrackInput) error {
	if in.UserID == 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if in.CardID == "" {
		return fmt.Errorf("%w: card id is required", ErrInvalidInput)
	}
	if in.Type != models.EngagementCardView && in.Type != models.EngagementMCQAttempt {
		return fmt.Errorf("%w: unknown engagement type %q", ErrInvalidInput, in.Type)
	}
	if in.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	}
	return nil
}

// logicalDay resolves the calendar day a submission belongs to: the explicit
// date when given, otherwise today, always normalized to UTC midnight.
func (s *Service) logicalDay(explicit *time.Time) time.Time {
	t := s.now()
	if explicit != nil {
		t = *explicit
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// recomputeDay rebuilds the (user, day) rollup from scratch out of every
// raw engagement row of that day and upserts the result.
func (s *Service) recomputeDay(userID uint, day time.Time) error {
	start := time.Now()
	defer func() {
		prommetrics.ObserveRollupDuration(time.Since(start).Seconds())
	}()

	rows, err := s.repo.GetEngagementsForDay(userID, day)
	if err != nil {
		return fmt.Errorf("failed to read engagements for day: %w", err)
	}

	status := s.buildStatus(userID, day, rows)
	if err := s.repo.UpsertStatus(status); err != nil {
		return fmt.Errorf("failed to upsert daily status: %w", err)
	}

	return nil
}

// buildStatus derives the rollup row from the day's raw engagements.
// Duration sums every stored view row, so duplicate submissions double it;
// presence is monotone once the qualifying bar is crossed.
func (s *Service) buildStatus(userID uint, day time.Time, rows []models.DailyDigestEngagement) *models.DailyEngagementStatus {
	status := &models.DailyEngagementStatus{
		UserID: userID,
		Date:   day,
	}

	for _, row := range rows {
		switch row.EngagementType {
		case models.EngagementCardView:
			if row.Duration >= s.minViewSeconds {
				status.CardViewCount++
			}
			status.TotalEngagementDuration += row.Duration
		case models.EngagementMCQAttempt:
			status.MCQAttemptCount++
			if row.IsCorrect {
				status.MCQCorrectCount++
			}
		}
	}

	if status.MCQAttemptCount > 0 {
		accuracy := float64(status.MCQCorrectCount) / float64(status.MCQAttemptCount) * 100
		status.MCQAccuracy = math.Round(accuracy*100) / 100
	}

	// Presence rule: one qualifying view, or at least one quiz attempt at
	// the minimum accuracy, marks the day present.
	status.IsPresent = status.CardViewCount >= 1 ||
		(status.MCQAttemptCount >= 1 && status.MCQAccuracy >= s.minAccuracyPercent)

	return status
}

// GetWeeklyMeter returns a dense 7-day view over [today-6, today] UTC.
// Days without a rollup row come back as zero-valued placeholders; missing
// data means the user had no activity, never an error.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetWeeklyMeter(ctx context.Context, userID uint) (*WeeklyMeter, error) {
	today := s.logicalDay(nil)
	start := today.AddDate(0, 0, -6)

	statuses, err := s.repo.GetStatusesByDateRange(userID, start, today)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily statuses: %w", err)
	}

	byDay := make(map[string]models.DailyEngagementStatus, len(statuses))
	for _, st := range statuses {
		byDay[st.Date.UTC().Format("2006-01-02")] = st
	}

	meter := &WeeklyMeter{Days: make([]MeterDay, 0, 7)}
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		entry := MeterDay{Date: day}

		if st, ok := byDay[day.Format("2006-01-02")]; ok {
			entry.IsPresent = st.IsPresent
			entry.Completed = st.IsPresent
			entry.CardViewCount = st.CardViewCount
			entry.MCQAttemptCount = st.MCQAttemptCount
			entry.MCQAccuracy = st.MCQAccuracy
		}

		if entry.IsPresent {
			meter.DaysCompleted++
		}
		meter.Days = append(meter.Days, entry)
	}

	return meter, nil
}
