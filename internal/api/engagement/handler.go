// Package engagement provides the REST API for the engagement engine:
// scores, the daily digest tracker, the weekly meter, badges and the
// leaderboard.
package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/engage/internal/models"
	"github.com/edupulse/engage/internal/service/badges"
	"github.com/edupulse/engage/internal/service/engagement"
	"github.com/edupulse/engage/internal/service/leaderboard"
	"github.com/edupulse/engage/internal/service/scoring"
	"github.com/edupulse/engage/pkg/logger"
)

// ScoringService interface for score operations.
type ScoringService interface {
	RecordEvent(ctx context.Context, userID uint, eventType models.EventKind, metadata json.RawMessage) (*models.UserEvent, error)
	GetScore(ctx context.Context, userID uint) (*models.UserScore, error)
	ComputeWeeklyScore(ctx context.Context, userID uint) (int, error)
	ComputeMonthlyScore(ctx context.Context, userID uint) (int, error)
}

// EngagementService interface for daily digest operations.
type EngagementService interface {
	TrackEngagement(ctx context.Context, in engagement.TrackInput) error
	GetWeeklyMeter(ctx context.Context, userID uint) (*engagement.WeeklyMeter, error)
}

// BadgeService interface for badge operations.
type BadgeService interface {
	GetBadgeStatus(ctx context.Context, userID uint) (*badges.BadgeStatus, error)
	GetCatalog(ctx context.Context) ([]models.Badge, error)
	GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error)
	CheckEligibility(ctx context.Context, userID uint) ([]models.Badge, error)
	GetBadgeProgress(ctx context.Context, userID, badgeID uint) (*badges.BadgeProgress, error)
}

// LeaderboardService interface for leaderboard operations.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]leaderboard.Entry, error)
}

// Handler handles engagement API requests.
type Handler struct {
	scoringService     ScoringService
	engagementService  EngagementService
	badgeService       BadgeService
	leaderboardService LeaderboardService
	log                *logger.Logger
}

// NewHandler creates a new engagement handler.
func NewHandler(
	scoringService *scoring.Service,
	engagementService *engagement.Service,
	badgeService *badges.Service,
	leaderboardService *leaderboard.Service,
	log *logger.Logger,
) *Handler {
	return &Handler{
		scoringService:     scoringService,
		engagementService:  engagementService,
		badgeService:       badgeService,
		leaderboardService: leaderboardService,
		log:                log,
	}
}

// NewHandlerWithInterfaces creates a new engagement handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(
	scoringService ScoringService,
	engagementService EngagementService,
	badgeService BadgeService,
	leaderboardService LeaderboardService,
	log *logger.Logger,
) *Handler {
	return &Handler{
		scoringService:     scoringService,
		engagementService:  engagementService,
		badgeService:       badgeService,
		leaderboardService: leaderboardService,
		log:                log,
	}
}

// RegisterRoutes mounts all engagement endpoints under the given router group.
func (h *Handler) RegisterRoutes(api gin.IRouter) {
	api.GET("/leaderboard", h.GetLeaderboard)
	api.GET("/badges", h.GetBadgeCatalog)

	users := api.Group("/users/:id")
	users.POST("/events", h.RecordEvent)
	users.GET("/score", h.GetScore)
	users.GET("/score/weekly", h.GetWeeklyScore)
	users.GET("/score/monthly", h.GetMonthlyScore)
	users.POST("/daily-digest/engagement", h.TrackEngagement)
	users.GET("/weekly-meter", h.GetWeeklyMeter)
	users.GET("/badge-status", h.GetBadgeStatus)
	users.GET("/badges", h.GetUserBadges)
	users.GET("/badges/check-eligibility", h.CheckBadgeEligibility)
	users.GET("/badges/:badgeId/progress", h.GetBadgeProgress)
}

// recordEventRequest is the payload for POST /api/v1/users/:id/events.
type recordEventRequest struct {
	EventType string          `json:"event_type" binding:"required"`
	Metadata  json.RawMessage `json:"metadata"`
}

// RecordEvent appends an activity event for a user.
// POST /api/v1/users/:id/events.
func (h *Handler) RecordEvent(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req recordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.scoringService.RecordEvent(c.Request.Context(), userID, models.EventKind(req.EventType), req.Metadata)
	if err != nil {
		if errors.Is(err, scoring.ErrUserNotFound) {
			h.errorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to record event")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to record event")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"event":        event,
		"generated_at": time.Now().UTC(),
	})
}

// GetScore returns the user's score row: total plus the cached weekly and
// monthly window values.
// GET /api/v1/users/:id/score.
func (h *Handler) GetScore(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	score, err := h.scoringService.GetScore(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get score")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve score")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"score":        score,
		"generated_at": time.Now().UTC(),
	})
}

// GetWeeklyScore returns the user's score over the current week.
// GET /api/v1/users/:id/score/weekly.
func (h *Handler) GetWeeklyScore(c *gin.Context) {
	h.windowScore(c, "weekly", h.scoringService.ComputeWeeklyScore)
}

// GetMonthlyScore returns the user's score over the current calendar month.
// GET /api/v1/users/:id/score/monthly.
func (h *Handler) GetMonthlyScore(c *gin.Context) {
	h.windowScore(c, "monthly", h.scoringService.ComputeMonthlyScore)
}

func (h *Handler) windowScore(c *gin.Context, window string, compute func(context.Context, uint) (int, error)) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	score, err := compute(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Str("window", window).Msg("Failed to compute window score")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to compute score")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"window":       window,
		"score":        score,
		"generated_at": time.Now().UTC(),
	})
}

// trackEngagementRequest is the payload for the daily digest tracker.
type trackEngagementRequest struct {
	CardID         string `json:"card_id" binding:"required"`
	CardType       string `json:"card_type"`
	EngagementType string `json:"engagement_type" binding:"required"`
	Duration       int    `json:"duration"`
	IsComplete     bool   `json:"is_complete"`
	Date           string `json:"date"` // optional, YYYY-MM-DD
}

// TrackEngagement records a daily digest engagement action and refreshes
// the day's presence rollup.
// POST /api/v1/users/:id/daily-digest/engagement.
func (h *Handler) TrackEngagement(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req trackEngagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	input := engagement.TrackInput{
		UserID:     userID,
		CardID:     req.CardID,
		CardType:   models.CardType(req.CardType),
		Type:       models.EngagementType(req.EngagementType),
		Duration:   req.Duration,
		IsComplete: req.IsComplete,
	}

	if req.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", req.Date))
			return
		}
		input.Date = &day
	}

	if err := h.engagementService.TrackEngagement(c.Request.Context(), input); err != nil {
		if errors.Is(err, engagement.ErrInvalidInput) {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to track engagement")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to track engagement")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":             userID,
		"engagement_recorded": true,
		"generated_at":        time.Now().UTC(),
	})
}

// GetWeeklyMeter returns the dense rolling 7-day presence meter.
// GET /api/v1/users/:id/weekly-meter.
func (h *Handler) GetWeeklyMeter(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	meter, err := h.engagementService.GetWeeklyMeter(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get weekly meter")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve weekly meter")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"meter":        meter,
		"generated_at": time.Now().UTC(),
	})
}

// GetBadgeStatus returns the user's activity-tier classification.
// GET /api/v1/users/:id/badge-status.
func (h *Handler) GetBadgeStatus(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.badgeService.GetBadgeStatus(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get badge status")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve badge status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"generated_at": time.Now().UTC(),
	})
}

// GetBadgeCatalog returns all badges in the catalog.
// GET /api/v1/badges.
func (h *Handler) GetBadgeCatalog(c *gin.Context) {
	catalog, err := h.badgeService.GetCatalog(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get badge catalog")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve badge catalog")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"badges":       catalog,
		"total_badges": len(catalog),
		"generated_at": time.Now().UTC(),
	})
}

// GetUserBadges returns badges earned by a specific user.
// GET /api/v1/users/:id/badges.
func (h *Handler) GetUserBadges(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userBadges, err := h.badgeService.GetUserBadges(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user badges")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve user badges")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"badges":       userBadges,
		"total_badges": len(userBadges),
		"generated_at": time.Now().UTC(),
	})
}

// CheckBadgeEligibility evaluates and awards any newly earned badges.
// GET /api/v1/users/:id/badges/check-eligibility.
func (h *Handler) CheckBadgeEligibility(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	newlyEarned, err := h.badgeService.CheckEligibility(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to check badge eligibility")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to check badge eligibility")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"newly_earned": newlyEarned,
		"count":        len(newlyEarned),
		"generated_at": time.Now().UTC(),
	})
}

// GetBadgeProgress reports per-criterion progress toward one badge.
// GET /api/v1/users/:id/badges/:badgeId/progress.
func (h *Handler) GetBadgeProgress(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	badgeID, err := h.parseBadgeID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	progress, err := h.badgeService.GetBadgeProgress(c.Request.Context(), userID, badgeID)
	if err != nil {
		if errors.Is(err, badges.ErrBadgeNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Badge not found")
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Uint("badge_id", badgeID).Msg("Failed to get badge progress")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve badge progress")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"progress":     progress,
		"generated_at": time.Now().UTC(),
	})
}

// GetLeaderboard returns the top users by total score.
// GET /api/v1/leaderboard?limit=10.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit, err := h.parseLimit(c, 0)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard":   entries,
		"total_entries": len(entries),
		"generated_at":  time.Now().UTC(),
	})
}

// Helper functions

// parseUserID extracts and validates the user ID from the URL parameter.
func (h *Handler) parseUserID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID: %s", idStr)
	}
	return uint(id), nil
}

// parseBadgeID extracts and validates the badge ID from the URL parameter.
func (h *Handler) parseBadgeID(c *gin.Context) (uint, error) {
	idStr := c.Param("badgeId")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid badge ID: %s", idStr)
	}
	return uint(id), nil
}

// parseLimit extracts and validates the limit query parameter. Zero means
// the service default.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}

	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}

	if limit > 1000 {
		return 0, fmt.Errorf("limit cannot exceed 1000")
	}

	return limit, nil
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
