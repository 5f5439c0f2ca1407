package scoring

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/edupulse/engage/internal/models"
	"github.com/edupulse/engage/pkg/logger"
)

// mockEventRepo is an in-memory event log.
type mockEventRepo struct {
	events    map[uint][]models.UserEvent
	failReads bool
	nextID    uint
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[uint][]models.UserEvent)}
}

func (m *mockEventRepo) Append(event *models.UserEvent) error {
	m.nextID++
	event.ID = m.nextID
	m.events[event.UserID] = append(m.events[event.UserID], *event)
	return nil
}

func (m *mockEventRepo) GetByUser(userID uint) ([]models.UserEvent, error) {
	if m.failReads {
		return nil, fmt.Errorf("storage unavailable")
	}
	return m.events[userID], nil
}

func (m *mockEventRepo) GetByUserSince(userID uint, since time.Time) ([]models.UserEvent, error) {
	if m.failReads {
		return nil, fmt.Errorf("storage unavailable")
	}
	var filtered []models.UserEvent
	for _, e := range m.events[userID] {
		if !e.CreatedAt.Before(since) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (m *mockEventRepo) ListUserIDs() ([]uint, error) {
	ids := make([]uint, 0, len(m.events))
	for id := range m.events {
		ids = append(ids, id)
	}
	return ids, nil
}

// mockScoreRepo is an in-memory score cache.
type mockScoreRepo struct {
	scores     map[uint]*models.UserScore
	failWrites bool
}

func newMockScoreRepo() *mockScoreRepo {
	return &mockScoreRepo{scores: make(map[uint]*models.UserScore)}
}

func (m *mockScoreRepo) GetByUser(userID uint) (*models.UserScore, error) {
	score, exists := m.scores[userID]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *score
	return &copied, nil
}

func (m *mockScoreRepo) Upsert(score *models.UserScore) error {
	if m.failWrites {
		return fmt.Errorf("storage unavailable")
	}
	copied := *score
	m.scores[score.UserID] = &copied
	return nil
}

// mockUserRepo answers existence checks from a fixed set.
type mockUserRepo struct {
	missing map[uint]bool
}

func (m *mockUserRepo) Exists(userID uint) (bool, error) {
	return !m.missing[userID], nil
}

func setupScoringService() (*Service, *mockEventRepo, *mockScoreRepo) {
	eventRepo := newMockEventRepo()
	scoreRepo := newMockScoreRepo()
	svc := NewServiceWithInterfaces(eventRepo, scoreRepo, &mockUserRepo{}, 0, logger.NewNop())
	return svc, eventRepo, scoreRepo
}

func addEvent(repo *mockEventRepo, userID uint, kind models.EventKind, at time.Time) {
	_ = repo.Append(&models.UserEvent{UserID: userID, EventType: kind, CreatedAt: at})
}

func TestComputeTotalScore(t *testing.T) {
	svc, eventRepo, scoreRepo := setupScoringService()
	ctx := context.Background()

	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)
	addEvent(eventRepo, 1, models.EventLogin, now.Add(-48*time.Hour))
	addEvent(eventRepo, 1, models.EventLogin, now.Add(-24*time.Hour))
	addEvent(eventRepo, 1, models.EventQuizCorrect, now)

	total, err := svc.ComputeTotalScore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 45, total)

	cached, err := scoreRepo.GetByUser(1)
	require.NoError(t, err)
	assert.Equal(t, 45, cached.TotalScore)
	assert.False(t, cached.ComputedAt.IsZero())
}

func TestComputeTotalScore_Idempotent(t *testing.T) {
	svc, eventRepo, _ := setupScoringService()
	ctx := context.Background()

	addEvent(eventRepo, 1, models.EventReferral, time.Now().UTC())

	first, err := svc.ComputeTotalScore(ctx, 1)
	require.NoError(t, err)
	second, err := svc.ComputeTotalScore(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeTotalScore_UnknownEventsScoreZero(t *testing.T) {
	svc, eventRepo, _ := setupScoringService()
	ctx := context.Background()

	addEvent(eventRepo, 1, models.EventLogin, time.Now().UTC())
	addEvent(eventRepo, 1, models.EventKind("video_call"), time.Now().UTC())

	total, err := svc.ComputeTotalScore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}

func TestComputeTotalScore_NoEvents(t *testing.T) {
	svc, _, scoreRepo := setupScoringService()

	total, err := svc.ComputeTotalScore(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	// First computation lazily creates the row.
	cached, err := scoreRepo.GetByUser(42)
	require.NoError(t, err)
	assert.Equal(t, 0, cached.TotalScore)
}

func TestComputeTotalScore_ReadFailureKeepsCache(t *testing.T) {
	svc, eventRepo, scoreRepo := setupScoringService()
	ctx := context.Background()

	addEvent(eventRepo, 1, models.EventLogin, time.Now().UTC())
	_, err := svc.ComputeTotalScore(ctx, 1)
	require.NoError(t, err)

	eventRepo.failReads = true
	_, err = svc.ComputeTotalScore(ctx, 1)
	require.Error(t, err)

	cached, err := scoreRepo.GetByUser(1)
	require.NoError(t, err)
	assert.Equal(t, 10, cached.TotalScore, "failed recompute must not clobber the cached value")
}

func TestComputeWeeklyScore_WindowBoundary(t *testing.T) {
	svc, eventRepo, _ := setupScoringService()
	ctx := context.Background()

	// Wednesday; Sunday-start week began June 15.
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)
	svc.SetNowFunc(func() time.Time { return now })

	weekStart := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	addEvent(eventRepo, 1, models.EventSocialPost, weekStart)                      // inside, boundary inclusive
	addEvent(eventRepo, 1, models.EventLogin, weekStart.Add(48*time.Hour))         // inside
	addEvent(eventRepo, 1, models.EventReferral, weekStart.Add(-1*time.Millisecond)) // before the window

	score, err := svc.ComputeWeeklyScore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 40, score)
}

func TestComputeMonthlyScore_WindowBoundary(t *testing.T) {
	svc, eventRepo, _ := setupScoringService()
	ctx := context.Background()

	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)
	svc.SetNowFunc(func() time.Time { return now })

	monthStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	addEvent(eventRepo, 1, models.EventQuizAttempt, monthStart)
	addEvent(eventRepo, 1, models.EventQuizCorrect, monthStart.Add(-time.Second)) // May

	score, err := svc.ComputeMonthlyScore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 15, score)
}

func TestGetScore_RecomputesBeforeRead(t *testing.T) {
	svc, eventRepo, _ := setupScoringService()
	ctx := context.Background()

	addEvent(eventRepo, 1, models.EventLogin, time.Now().UTC())
	score, err := svc.GetScore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, score.TotalScore)

	// New event is visible on the next read without an explicit recompute.
	addEvent(eventRepo, 1, models.EventReferral, time.Now().UTC())
	score, err = svc.GetScore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 60, score.TotalScore)
}

func TestRecordEvent(t *testing.T) {
	svc, eventRepo, _ := setupScoringService()
	ctx := context.Background()

	event, err := svc.RecordEvent(ctx, 7, models.EventSocialLike, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(7), event.UserID)
	assert.Equal(t, models.EventSocialLike, event.EventType)
	assert.Len(t, eventRepo.events[7], 1)
}

func TestRecordEvent_UnknownUser(t *testing.T) {
	eventRepo := newMockEventRepo()
	scoreRepo := newMockScoreRepo()
	users := &mockUserRepo{missing: map[uint]bool{9: true}}
	svc := NewServiceWithInterfaces(eventRepo, scoreRepo, users, 0, logger.NewNop())

	_, err := svc.RecordEvent(context.Background(), 9, models.EventLogin, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, eventRepo.events[9])
}

func TestRecomputeAll(t *testing.T) {
	svc, eventRepo, scoreRepo := setupScoringService()

	addEvent(eventRepo, 1, models.EventLogin, time.Now().UTC())
	addEvent(eventRepo, 2, models.EventReferral, time.Now().UTC())

	recomputed, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, recomputed)

	first, err := scoreRepo.GetByUser(1)
	require.NoError(t, err)
	assert.Equal(t, 10, first.TotalScore)

	second, err := scoreRepo.GetByUser(2)
	require.NoError(t, err)
	assert.Equal(t, 50, second.TotalScore)
}
