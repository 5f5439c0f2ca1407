// Package scheduler runs the nightly score recompute and badge
// evaluation sweeps on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/edupulse/engage/internal/config"
	prommetrics "github.com/edupulse/engage/internal/metrics"
	"github.com/edupulse/engage/internal/service/badges"
	"github.com/edupulse/engage/internal/service/scoring"
	"github.com/edupulse/engage/pkg/logger"
)

// Service owns the cron runner and its registered jobs.
type Service struct {
	config         *config.Config
	scoringService *scoring.Service
	badgeService   *badges.Service
	log            *logger.Logger
	cron           *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(
	cfg *config.Config,
	scoringService *scoring.Service,
	badgeService *badges.Service,
	log *logger.Logger,
) *Service {
	return &Service{
		config:         cfg,
		scoringService: scoringService,
		badgeService:   badgeService,
		log:            log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Scheduler.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.Scheduler.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Scheduler.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	if s.config.Scheduler.ScoreRecomputeTime != "" {
		_, err = s.cron.AddFunc(s.config.Scheduler.ScoreRecomputeTime, func() {
			s.runScoreRecompute(context.Background())
		})
		if err != nil {
			return fmt.Errorf("failed to register score recompute job: %w", err)
		}
		s.log.Info().
			Str("schedule", s.config.Scheduler.ScoreRecomputeTime).
			Msg("Score recompute job registered")
	}

	if s.config.Scheduler.BadgeEvaluationTime != "" && s.badgeService != nil {
		_, err = s.cron.AddFunc(s.config.Scheduler.BadgeEvaluationTime, func() {
			s.runBadgeEvaluation(context.Background())
		})
		if err != nil {
			return fmt.Errorf("failed to register badge evaluation job: %w", err)
		}
		s.log.Info().
			Str("schedule", s.config.Scheduler.BadgeEvaluationTime).
			Msg("Badge evaluation job registered")
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("timezone", s.config.Scheduler.Timezone).
		Int("jobs", len(entries)).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// runScoreRecompute executes the nightly full score recompute.
func (s *Service) runScoreRecompute(ctx context.Context) {
	start := time.Now()

	s.log.Info().Msg("Running score recompute job")

	recomputed, err := s.scoringService.RecomputeAll(ctx)
	if err != nil {
		s.log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Score recompute job failed")
		prommetrics.RecordSchedulerJobRun("score_recompute", "error")
		return
	}

	prommetrics.RecordSchedulerJobRun("score_recompute", "success")

	s.log.Info().
		Int("users_recomputed", recomputed).
		Dur("duration", time.Since(start)).
		Msg("Score recompute job completed successfully")
}

// runBadgeEvaluation executes the nightly badge eligibility sweep.
func (s *Service) runBadgeEvaluation(ctx context.Context) {
	start := time.Now()

	s.log.Info().Msg("Running badge evaluation job")

	if err := s.badgeService.EvaluateAll(ctx); err != nil {
		s.log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Badge evaluation job failed")
		prommetrics.RecordSchedulerJobRun("badge_evaluation", "error")
		return
	}

	prommetrics.RecordSchedulerJobRun("badge_evaluation", "success")

	s.log.Info().
		Dur("duration", time.Since(start)).
		Msg("Badge evaluation job completed successfully")
}
