package engagement

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/engage/internal/models"
	"github.com/edupulse/engage/pkg/logger"
)

// mockEngagementRepo keeps raw rows and rollup statuses in memory.
type mockEngagementRepo struct {
	rows     []models.DailyDigestEngagement
	statuses map[string]*models.DailyEngagementStatus // keyed userID:date
}

func newMockEngagementRepo() *mockEngagementRepo {
	return &mockEngagementRepo{statuses: make(map[string]*models.DailyEngagementStatus)}
}

func statusKey(userID uint, day time.Time) string {
	return fmt.Sprintf("%d:%s", userID, day.UTC().Format("2006-01-02"))
}

func (m *mockEngagementRepo) AppendEngagement(e *models.DailyDigestEngagement) error {
	m.rows = append(m.rows, *e)
	return nil
}

func (m *mockEngagementRepo) GetEngagementsForDay(userID uint, day time.Time) ([]models.DailyDigestEngagement, error) {
	var out []models.DailyDigestEngagement
	for _, row := range m.rows {
		if row.UserID == userID && row.Date.Equal(day) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *mockEngagementRepo) UpsertStatus(status *models.DailyEngagementStatus) error {
	copied := *status
	m.statuses[statusKey(status.UserID, status.Date)] = &copied
	return nil
}

func (m *mockEngagementRepo) GetStatusesByDateRange(userID uint, start, end time.Time) ([]models.DailyEngagementStatus, error) {
	var out []models.DailyEngagementStatus
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if st, ok := m.statuses[statusKey(userID, day)]; ok {
			out = append(out, *st)
		}
	}
	return out, nil
}

func setupEngagementService() (*Service, *mockEngagementRepo) {
	repo := newMockEngagementRepo()
	cards := NewResolverChain(models.CardGeneral)
	svc := NewServiceWithInterfaces(repo, cards, 20, 50, logger.NewNop())
	return svc, repo
}

func trackView(t *testing.T, svc *Service, userID uint, cardID string, duration int, day time.Time) {
	t.Helper()
	err := svc.TrackEngagement(context.Background(), TrackInput{
		UserID:   userID,
		CardID:   cardID,
		Type:     models.EngagementCardView,
		Duration: duration,
		Date:     &day,
	})
	require.NoError(t, err)
}

func trackAttempt(t *testing.T, svc *Service, userID uint, cardID string, correct bool, day time.Time) {
	t.Helper()
	err := svc.TrackEngagement(context.Background(), TrackInput{
		UserID:     userID,
		CardID:     cardID,
		Type:       models.EngagementMCQAttempt,
		IsComplete: correct,
		Date:       &day,
	})
	require.NoError(t, err)
}

func dayStatus(t *testing.T, repo *mockEngagementRepo, userID uint, day time.Time) *models.DailyEngagementStatus {
	t.Helper()
	st, ok := repo.statuses[statusKey(userID, day)]
	require.True(t, ok, "expected a rollup row for %s", day.Format("2006-01-02"))
	return st
}

var testDay = time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)

func TestTrackEngagement_QualifyingViewMarksPresent(t *testing.T) {
	svc, repo := setupEngagementService()

	trackView(t, svc, 1, "card-1", 25, testDay)

	st := dayStatus(t, repo, 1, testDay)
	assert.True(t, st.IsPresent)
	assert.Equal(t, 1, st.CardViewCount)
	assert.Equal(t, 25, st.TotalEngagementDuration)
}

func TestTrackEngagement_ShortViewDoesNotQualify(t *testing.T) {
	svc, repo := setupEngagementService()

	trackView(t, svc, 1, "card-1", 19, testDay)

	st := dayStatus(t, repo, 1, testDay)
	assert.False(t, st.IsPresent)
	assert.Equal(t, 0, st.CardViewCount, "sub-threshold views do not count")
	assert.Equal(t, 19, st.TotalEngagementDuration, "duration still accumulates")
}

func TestTrackEngagement_AccuracyRule(t *testing.T) {
	svc, repo := setupEngagementService()

	// 1 of 3 correct: 33.33% accuracy, below the bar.
	trackAttempt(t, svc, 1, "mcq-1", true, testDay)
	trackAttempt(t, svc, 1, "mcq-2", false, testDay)
	trackAttempt(t, svc, 1, "mcq-3", false, testDay)

	st := dayStatus(t, repo, 1, testDay)
	assert.False(t, st.IsPresent)
	assert.Equal(t, 3, st.MCQAttemptCount)
	assert.InDelta(t, 33.33, st.MCQAccuracy, 0.001)

	// 1 of 2 correct for another user: exactly 50%, qualifies.
	trackAttempt(t, svc, 2, "mcq-1", true, testDay)
	trackAttempt(t, svc, 2, "mcq-2", false, testDay)

	st = dayStatus(t, repo, 2, testDay)
	assert.True(t, st.IsPresent)
	assert.InDelta(t, 50.0, st.MCQAccuracy, 0.001)
}

func TestTrackEngagement_DuplicateSubmissionsDoubleDuration(t *testing.T) {
	svc, repo := setupEngagementService()

	trackView(t, svc, 1, "card-1", 30, testDay)
	trackView(t, svc, 1, "card-1", 30, testDay)

	st := dayStatus(t, repo, 1, testDay)
	assert.Equal(t, 60, st.TotalEngagementDuration)
	assert.Equal(t, 2, st.CardViewCount)
	assert.True(t, st.IsPresent, "presence is monotone under duplicates")
}

func TestTrackEngagement_PresenceMonotoneAcrossMixedActivity(t *testing.T) {
	svc, repo := setupEngagementService()

	trackView(t, svc, 1, "card-1", 40, testDay)
	require.True(t, dayStatus(t, repo, 1, testDay).IsPresent)

	// A later failed quiz attempt must not flip the day back to absent.
	trackAttempt(t, svc, 1, "mcq-1", false, testDay)
	assert.True(t, dayStatus(t, repo, 1, testDay).IsPresent)
}

func TestTrackEngagement_Validation(t *testing.T) {
	svc, _ := setupEngagementService()
	ctx := context.Background()

	tests := []struct {
		name  string
		input TrackInput
	}{
		{"missing user", TrackInput{CardID: "c", Type: models.EngagementCardView}},
		{"missing card", TrackInput{UserID: 1, Type: models.EngagementCardView}},
		{"unknown type", TrackInput{UserID: 1, CardID: "c", Type: models.EngagementType("SHARE")}},
		{"negative duration", TrackInput{UserID: 1, CardID: "c", Type: models.EngagementCardView, Duration: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.TrackEngagement(ctx, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestTrackEngagement_InfersCardType(t *testing.T) {
	svc, repo := setupEngagementService()

	trackView(t, svc, 1, "card-1", 25, testDay)

	require.Len(t, repo.rows, 1)
	assert.Equal(t, models.CardGeneral, repo.rows[0].CardType)
}

func TestGetWeeklyMeter_DenseWindow(t *testing.T) {
	svc, _ := setupEngagementService()

	now := time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)
	svc.SetNowFunc(func() time.Time { return now })

	// Activity on two days inside the window, one outside it.
	trackView(t, svc, 1, "card-1", 30, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC))
	trackView(t, svc, 1, "card-2", 30, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC))
	trackView(t, svc, 1, "card-3", 30, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	meter, err := svc.GetWeeklyMeter(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, meter.DaysCompleted)
	require.Len(t, meter.Days, 7)
	assert.Equal(t, time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), meter.Days[0].Date)
	assert.Equal(t, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), meter.Days[6].Date)
	assert.False(t, meter.Days[0].IsPresent)
	assert.True(t, meter.Days[6].IsPresent)
}

func TestGetWeeklyMeter_InactiveUser(t *testing.T) {
	svc, _ := setupEngagementService()

	meter, err := svc.GetWeeklyMeter(context.Background(), 99)
	require.NoError(t, err)

	assert.Equal(t, 0, meter.DaysCompleted)
	require.Len(t, meter.Days, 7, "missing data yields placeholders, not an error")
	for _, day := range meter.Days {
		assert.False(t, day.IsPresent)
	}
}
