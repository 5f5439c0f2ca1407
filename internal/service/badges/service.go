package badges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/edupulse/engage/internal/metrics"
	"github.com/edupulse/engage/internal/models"
	"github.com/edupulse/engage/internal/repository"
	"github.com/edupulse/engage/pkg/logger"
)

// ErrBadgeNotFound is returned when a badge id does not exist in the catalog.
var ErrBadgeNotFound = errors.New("badge not found")

// BadgeRepository defines badge catalog and award persistence.
type BadgeRepository interface {
	Create(badge *models.Badge) error
	Save(badge *models.Badge) error
	GetByID(id uint) (*models.Badge, error)
	GetByName(name string) (*models.Badge, error)
	GetAll() ([]models.Badge, error)
	AwardBadge(userID, badgeID uint) error
	GetUserBadges(userID uint) ([]models.UserBadge, error)
	HasUserEarnedBadge(userID, badgeID uint) (bool, error)
	GetStatusByUser(userID uint) (*models.UserBadgeStatus, error)
	UpsertStatus(status *models.UserBadgeStatus) error
}

// EngagementRepository provides the daily presence rollups tier
// classification and streaks are computed from.
type EngagementRepository interface {
	GetStatusesByDateRange(userID uint, start, end time.Time) ([]models.DailyEngagementStatus, error)
	CountPresentDays(userID uint, start, end time.Time) (int64, error)
}

// ScoreRepository provides cached user scores for score-based criteria.
type ScoreRepository interface {
	GetByUser(userID uint) (*models.UserScore, error)
}

// EventRepository provides event counts for engagement-based criteria.
type EventRepository interface {
	CountByUserAndType(userID uint, eventType models.EventKind) (int64, error)
	ListUserIDs() ([]uint, error)
}

// Service classifies users into activity tiers and evaluates
// achievement badge eligibility.
type Service struct {
	badgeRepo      BadgeRepository
	engagementRepo EngagementRepository
	scoreRepo      ScoreRepository
	eventRepo      EventRepository
	windowDays     int
	now            func() time.Time
	log            *logger.Logger
}

// NewService creates a badge service with concrete repositories.
func NewService(db *repository.DB, windowDays int, log *logger.Logger) *Service {
	return newService(
		repository.NewBadgeRepository(db),
		repository.NewEngagementRepository(db),
		repository.NewScoreRepository(db),
		repository.NewEventRepository(db),
		windowDays,
		log,
	)
}

// NewServiceWithInterfaces creates a badge service with injected
// dependencies, primarily for testing.
func NewServiceWithInterfaces(
	badgeRepo BadgeRepository,
	engagementRepo EngagementRepository,
	scoreRepo ScoreRepository,
	eventRepo EventRepository,
	windowDays int,
	log *logger.Logger,
) *Service {
	return newService(badgeRepo, engagementRepo, scoreRepo, eventRepo, windowDays, log)
}

func newService(
	badgeRepo BadgeRepository,
	engagementRepo EngagementRepository,
	scoreRepo ScoreRepository,
	eventRepo EventRepository,
	windowDays int,
	log *logger.Logger,
) *Service {
	if windowDays <= 0 {
		windowDays = 180
	}
	return &Service{
		badgeRepo:      badgeRepo,
		engagementRepo: engagementRepo,
		scoreRepo:      scoreRepo,
		eventRepo:      eventRepo,
		windowDays:     windowDays,
		now:            time.Now,
		log:            log,
	}
}

// SetNowFunc overrides the clock, for tests.
func (s *Service) SetNowFunc(now func() time.Time) {
	s.now = now
}

// BadgeStatus is the tier classification for a user.
type BadgeStatus struct {
	UserID       uint      `json:"user_id"`
	CurrentBadge string    `json:"current_badge"`
	DaysActive   int       `json:"days_active"`
	WindowDays   int       `json:"window_days"`
	TierChanged  bool      `json:"tier_changed"`
	CalculatedAt time.Time `json:"calculated_at"`
}

// GetBadgeStatus computes the user's current activity tier from present
// days in the trailing window and persists the result. The previously
// cached row is compared against the fresh classification so tier
// transitions are reported and logged.
func (s *Service) GetBadgeStatus(ctx context.Context, userID uint) (*BadgeStatus, error) {
	today := normalizeDay(s.now())
	start := today.AddDate(0, 0, -(s.windowDays - 1))

	presentDays, err := s.engagementRepo.CountPresentDays(userID, start, today)
	if err != nil {
		return nil, fmt.Errorf("failed to count present days: %w", err)
	}

	tier := TierForDays(int(presentDays))
	calculatedAt := s.now().UTC()

	previousTier := ""
	previous, err := s.badgeRepo.GetStatusByUser(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load cached badge status: %w", err)
	}
	if previous != nil && err == nil {
		previousTier = previous.CurrentBadge
	}

	status := &models.UserBadgeStatus{
		UserID:           userID,
		CurrentBadge:     tier,
		DaysActive:       int(presentDays),
		LastCalculatedAt: calculatedAt,
	}
	if err := s.badgeRepo.UpsertStatus(status); err != nil {
		return nil, fmt.Errorf("failed to persist badge status: %w", err)
	}

	metrics.RecordTierClassification(tier)

	tierChanged := tier != previousTier
	if tierChanged {
		s.log.Info().
			Uint("user_id", userID).
			Str("from", previousTier).
			Str("to", tier).
			Msg("Activity tier changed")
	}

	s.log.Debug().
		Uint("user_id", userID).
		Str("tier", tier).
		Int("days_active", int(presentDays)).
		Msg("Badge status calculated")

	return &BadgeStatus{
		UserID:       userID,
		CurrentBadge: tier,
		DaysActive:   int(presentDays),
		WindowDays:   s.windowDays,
		TierChanged:  tierChanged,
		CalculatedAt: calculatedAt,
	}, nil
}

// GetCatalog returns all badges defined in the catalog.
func (s *Service) GetCatalog(ctx context.Context) ([]models.Badge, error) {
	badges, err := s.badgeRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load badge catalog: %w", err)
	}
	return badges, nil
}

// GetUserBadges returns the badges a user has earned, most recent first.
func (s *Service) GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	earned, err := s.badgeRepo.GetUserBadges(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user badges: %w", err)
	}
	return earned, nil
}

// CheckEligibility evaluates every catalog badge the user has not yet
// earned and awards the ones whose criteria are met. Returns the newly
// awarded badges.
func (s *Service) CheckEligibility(ctx context.Context, userID uint) ([]models.Badge, error) {
	catalog, err := s.badgeRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load badge catalog: %w", err)
	}

	newlyEarned := make([]models.Badge, 0)

	for i := range catalog {
		badge := &catalog[i]

		earned, err := s.badgeRepo.HasUserEarnedBadge(userID, badge.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check earned state for badge %s: %w", badge.Name, err)
		}
		if earned {
			continue
		}

		criteria, err := parseCriteria(badge)
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("badge", badge.Name).
				Msg("Skipping badge with unparseable criteria")
			continue
		}

		eligible, err := s.evaluateCriteria(ctx, criteria, userID)
		if err != nil {
			return nil, err
		}
		if !eligible {
			continue
		}

		if err := s.badgeRepo.AwardBadge(userID, badge.ID); err != nil {
			return nil, fmt.Errorf("failed to award badge %s: %w", badge.Name, err)
		}

		metrics.RecordBadgeAwarded(badge.Name)

		s.log.Info().
			Uint("user_id", userID).
			Str("badge", badge.Name).
			Msg("Badge awarded")

		newlyEarned = append(newlyEarned, *badge)
	}

	return newlyEarned, nil
}

// CriterionProgress reports a single sub-criterion's current value
// against its target.
type CriterionProgress struct {
	Kind    string `json:"kind"`
	Current int64  `json:"current"`
	Target  int64  `json:"target"`
	Met     bool   `json:"met"`
}

// BadgeProgress describes per-criterion progress toward a badge.
type BadgeProgress struct {
	BadgeID   uint                `json:"badge_id"`
	BadgeName string              `json:"badge_name"`
	Earned    bool                `json:"earned"`
	Criteria  []CriterionProgress `json:"criteria"`
}

// GetBadgeProgress reports how close a user is to a badge. Returns
// ErrBadgeNotFound for an unknown badge id.
func (s *Service) GetBadgeProgress(ctx context.Context, userID, badgeID uint) (*BadgeProgress, error) {
	badge, err := s.badgeRepo.GetByID(badgeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadgeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load badge: %w", err)
	}

	earned, err := s.badgeRepo.HasUserEarnedBadge(userID, badge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check earned state: %w", err)
	}

	criteria, err := parseCriteria(badge)
	if err != nil {
		return nil, err
	}

	progress := &BadgeProgress{
		BadgeID:   badge.ID,
		BadgeName: badge.Name,
		Earned:    earned,
		Criteria:  make([]CriterionProgress, 0, 3),
	}

	if criteria.MinScore != nil {
		score, err := s.userTotalScore(userID)
		if err != nil {
			return nil, err
		}
		progress.Criteria = append(progress.Criteria, CriterionProgress{
			Kind:    "min_score",
			Current: int64(score),
			Target:  int64(*criteria.MinScore),
			Met:     score >= *criteria.MinScore,
		})
	}

	if criteria.MinStreak != nil {
		streak, err := s.currentStreak(ctx, userID)
		if err != nil {
			return nil, err
		}
		progress.Criteria = append(progress.Criteria, CriterionProgress{
			Kind:    "min_streak",
			Current: int64(streak),
			Target:  int64(*criteria.MinStreak),
			Met:     streak >= *criteria.MinStreak,
		})
	}

	if criteria.MinEngagements != nil {
		count, err := s.eventRepo.CountByUserAndType(userID, criteria.MinEngagements.EventType)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s events: %w", criteria.MinEngagements.EventType, err)
		}
		progress.Criteria = append(progress.Criteria, CriterionProgress{
			Kind:    "min_engagements",
			Current: count,
			Target:  int64(criteria.MinEngagements.Count),
			Met:     count >= int64(criteria.MinEngagements.Count),
		})
	}

	return progress, nil
}

// EvaluateAll runs eligibility checks for every known user. Used by the
// nightly scheduler sweep; per-user failures are logged and skipped.
func (s *Service) EvaluateAll(ctx context.Context) error {
	userIDs, err := s.eventRepo.ListUserIDs()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	awarded := 0
	for _, userID := range userIDs {
		earned, err := s.CheckEligibility(ctx, userID)
		if err != nil {
			s.log.Warn().
				Err(err).
				Uint("user_id", userID).
				Msg("Failed to evaluate badges for user")
			continue
		}
		awarded += len(earned)

		if _, err := s.GetBadgeStatus(ctx, userID); err != nil {
			s.log.Warn().
				Err(err).
				Uint("user_id", userID).
				Msg("Failed to refresh badge status for user")
		}
	}

	s.log.Info().
		Int("users", len(userIDs)).
		Int("badges_awarded", awarded).
		Msg("Badge evaluation sweep completed")

	return nil
}
