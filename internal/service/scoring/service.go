// Package scoring converts raw user activity events into weighted point
// scores: an all-time total plus weekly and monthly window totals.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	prommetrics "github.com/edupulse/engage/internal/metrics"
	"github.com/edupulse/engage/internal/models"
	"github.com/edupulse/engage/internal/repository"
	"github.com/edupulse/engage/pkg/logger"
)

// EventRepository interface for event log access.
type EventRepository interface {
	Append(event *models.UserEvent) error
	GetByUser(userID uint) ([]models.UserEvent, error)
	GetByUserSince(userID uint, since time.Time) ([]models.UserEvent, error)
	ListUserIDs() ([]uint, error)
}

// ScoreRepository interface for the score cache.
type ScoreRepository interface {
	GetByUser(userID uint) (*models.UserScore, error)
	Upsert(score *models.UserScore) error
}

// UserRepository interface for user existence checks.
type UserRepository interface {
	Exists(userID uint) (bool, error)
}

// ErrUserNotFound is returned when an event names a user that does not exist.
var ErrUserNotFound = errors.New("user not found")

// Service is the score aggregator. Every computation is a full recompute
// over the event log, so calls are idempotent and safe to repeat.
//
// Staleness policy: the cached UserScore row refreshes on every GetScore
// call (recompute-on-read, which also covers lazy creation) and during the
// nightly sweep. Between those points the row may lag event writes.
type Service struct {
	eventRepo    EventRepository
	scoreRepo    ScoreRepository
	userRepo     UserRepository
	weekStartDay int
	now          func() time.Time
	log          *logger.Logger
}

// NewService creates a new scoring service with concrete repository types.
func NewService(eventRepo *repository.EventRepository, scoreRepo *repository.ScoreRepository, userRepo *repository.UserRepository, weekStartDay int, log *logger.Logger) *Service {
	return newService(eventRepo, scoreRepo, userRepo, weekStartDay, log)
}

// NewServiceWithInterfaces creates a new scoring service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(eventRepo EventRepository, scoreRepo ScoreRepository, userRepo UserRepository, weekStartDay int, log *logger.Logger) *Service {
	return newService(eventRepo, scoreRepo, userRepo, weekStartDay, log)
}

func newService(eventRepo EventRepository, scoreRepo ScoreRepository, userRepo UserRepository, weekStartDay int, log *logger.Logger) *Service {
	return &Service{
		eventRepo:    eventRepo,
		scoreRepo:    scoreRepo,
		userRepo:     userRepo,
		weekStartDay: weekStartDay,
		now:          time.Now,
		log:          log,
	}
}

// SetNowFunc overrides the clock. Tests only.
func (s *Service) SetNowFunc(now func() time.Time) {
	s.now = now
}

// RecordEvent appends an activity event to the log. The event's point
// weight applies on the next recompute; unknown types are accepted and
// simply score zero.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) RecordEvent(ctx context.Context, userID uint, eventType models.EventKind, metadata json.RawMessage) (*models.UserEvent, error) {
	exists, err := s.userRepo.Exists(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	event := &models.UserEvent{
		UserID:    userID,
		EventType: eventType,
		Metadata:  metadata,
		CreatedAt: s.now().UTC(),
	}
	if err := s.eventRepo.Append(event); err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	prommetrics.RecordEvent(string(eventType))

	s.log.Debug().
		Uint("user_id", userID).
		Str("event_type", string(eventType)).
		Int("weight", Weight(eventType)).
		Msg("Event recorded")

	return event, nil
}

// ComputeTotalScore recomputes a user's all-time score from every event in
// the log and overwrites the cached total. Read failures propagate and
// leave the previously cached value in place.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) ComputeTotalScore(ctx context.Context, userID uint) (int, error) {
	events, err := s.eventRepo.GetByUser(userID)
	if err != nil {
		prommetrics.RecordScoreRecompute("total", "error")
		return 0, fmt.Errorf("failed to read events: %w", err)
	}

	total := SumWeights(events)
	prommetrics.ObserveScoreEventsScanned(float64(len(events)))

	if err := s.writeScore(userID, func(score *models.UserScore) {
		score.TotalScore = total
	}); err != nil {
		prommetrics.RecordScoreRecompute("total", "error")
		return 0, fmt.Errorf("failed to cache total score: %w", err)
	}

	prommetrics.RecordScoreRecompute("total", "success")
	s.log.Debug().
		Uint("user_id", userID).
		Int("events", len(events)).
		Int("total_score", total).
		Msg("Total score recomputed")

	return total, nil
}

// GetScore returns the user's score row, recomputing the total first so a
// read never serves a value older than the request. First read for a user
// creates the row.
func (s *Service) GetScore(ctx context.Context, userID uint) (*models.UserScore, error) {
	if _, err := s.ComputeTotalScore(ctx, userID); err != nil {
		return nil, err
	}
	return s.scoreRepo.GetByUser(userID)
}

// ComputeWeeklyScore recomputes the score over the current week, starting
// at the configured week-start day 00:00:00 UTC.
func (s *Service) ComputeWeeklyScore(ctx context.Context, userID uint) (int, error) {
	start := StartOfWeek(s.now(), s.weekStartDay)
	return s.computeWindowScore(ctx, userID, "weekly", start, func(score *models.UserScore, v int) {
		score.WeeklyScore = v
	})
}

// ComputeMonthlyScore recomputes the score over the current calendar month.
func (s *Service) ComputeMonthlyScore(ctx context.Context, userID uint) (int, error) {
	start := StartOfMonth(s.now())
	return s.computeWindowScore(ctx, userID, "monthly", start, func(score *models.UserScore, v int) {
		score.MonthlyScore = v
	})
}

//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) computeWindowScore(ctx context.Context, userID uint, window string, start time.Time, assign func(*models.UserScore, int)) (int, error) {
	events, err := s.eventRepo.GetByUserSince(userID, start)
	if err != nil {
		prommetrics.RecordScoreRecompute(window, "error")
		return 0, fmt.Errorf("failed to read events since %s: %w", start.Format(time.RFC3339), err)
	}

	total := SumWeights(events)

	if err := s.writeScore(userID, func(score *models.UserScore) {
		assign(score, total)
	}); err != nil {
		prommetrics.RecordScoreRecompute(window, "error")
		return 0, fmt.Errorf("failed to cache %s score: %w", window, err)
	}

	prommetrics.RecordScoreRecompute(window, "success")
	s.log.Debug().
		Uint("user_id", userID).
		Str("window", window).
		Time("window_start", start).
		Int("score", total).
		Msg("Window score recomputed")

	return total, nil
}

// writeScore loads (or initializes) the user's score row, applies mutate,
// stamps ComputedAt and upserts.
func (s *Service) writeScore(userID uint, mutate func(*models.UserScore)) error {
	score, err := s.scoreRepo.GetByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Lazy init on first computation.
		score = &models.UserScore{UserID: userID}
	} else if err != nil {
		return err
	}

	mutate(score)
	score.ComputedAt = s.now().UTC()
	return s.scoreRepo.Upsert(score)
}

// RecomputeAll runs a full total-score sweep over every user present in the
// event log. The nightly scheduler calls this; per-user failures are logged
// and skipped so one bad row cannot stall the sweep.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	userIDs, err := s.eventRepo.ListUserIDs()
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	recomputed := 0
	for _, userID := range userIDs {
		if _, err := s.ComputeTotalScore(ctx, userID); err != nil {
			s.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to recompute score")
			continue
		}
		if _, err := s.ComputeWeeklyScore(ctx, userID); err != nil {
			s.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to recompute weekly score")
			continue
		}
		if _, err := s.ComputeMonthlyScore(ctx, userID); err != nil {
			s.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to recompute monthly score")
			continue
		}
		recomputed++
	}

	s.log.Info().
		Int("users", len(userIDs)).
		Int("recomputed", recomputed).
		Msg("Score sweep complete")

	return recomputed, nil
}
