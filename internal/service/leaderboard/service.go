package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edupulse/engage/internal/models"
	"github.com/edupulse/engage/internal/repository"
	"github.com/edupulse/engage/pkg/cache"
	"github.com/edupulse/engage/pkg/logger"
)

// ScoreRepository provides ranked score reads.
type ScoreRepository interface {
	GetTopByTotalScore(limit int) ([]models.UserScore, error)
}

// Entry is a single leaderboard row.
type Entry struct {
	Rank       int    `json:"rank"`
	UserID     uint   `json:"user_id"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	TotalScore int    `json:"total_score"`
}

// Service serves ranked leaderboards with a short-TTL cache in front of
// the score table.
type Service struct {
	scoreRepo    ScoreRepository
	cache        cache.Cache
	cacheTTL     time.Duration
	defaultLimit int
	log          *logger.Logger
}

// NewService creates a leaderboard service with concrete repositories.
func NewService(db *repository.DB, c cache.Cache, cacheTTL time.Duration, defaultLimit int, log *logger.Logger) *Service {
	return newService(repository.NewScoreRepository(db), c, cacheTTL, defaultLimit, log)
}

// NewServiceWithInterfaces creates a leaderboard service with injected
// dependencies, primarily for testing.
func NewServiceWithInterfaces(scoreRepo ScoreRepository, c cache.Cache, cacheTTL time.Duration, defaultLimit int, log *logger.Logger) *Service {
	return newService(scoreRepo, c, cacheTTL, defaultLimit, log)
}

func newService(scoreRepo ScoreRepository, c cache.Cache, cacheTTL time.Duration, defaultLimit int, log *logger.Logger) *Service {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &Service{
		scoreRepo:    scoreRepo,
		cache:        c,
		cacheTTL:     cacheTTL,
		defaultLimit: defaultLimit,
		log:          log,
	}
}

// GetLeaderboard returns the top users by total score. A limit of zero or
// below falls back to the configured default. Cache failures degrade to a
// direct read.
func (s *Service) GetLeaderboard(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	cacheKey := fmt.Sprintf("leaderboard:total:%d", limit)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err != nil {
			s.log.Warn().Err(err).Msg("Leaderboard cache read failed")
		} else if cached != "" {
			var entries []Entry
			if err := json.Unmarshal([]byte(cached), &entries); err != nil {
				s.log.Warn().Err(err).Msg("Discarding malformed leaderboard cache entry")
			} else {
				return entries, nil
			}
		}
	}

	scores, err := s.scoreRepo.GetTopByTotalScore(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(scores))
	for i, score := range scores {
		entries = append(entries, Entry{
			Rank:       i + 1,
			UserID:     score.UserID,
			Name:       score.User.Name,
			AvatarURL:  score.User.AvatarURL,
			TotalScore: score.TotalScore,
		})
	}

	if s.cache != nil {
		payload, err := json.Marshal(entries)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(payload), s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("Leaderboard cache write failed")
			}
		}
	}

	return entries, nil
}
