package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordEvent(t *testing.T) {
	// Reset the counter before test
	EventsRecordedTotal.Reset()

	RecordEvent("login")
	RecordEvent("login")
	RecordEvent("social_post")

	count := testutil.ToFloat64(EventsRecordedTotal.WithLabelValues("login"))
	if count != 2 {
		t.Errorf("Expected login count = 2, got %f", count)
	}

	count = testutil.ToFloat64(EventsRecordedTotal.WithLabelValues("social_post"))
	if count != 1 {
		t.Errorf("Expected social_post count = 1, got %f", count)
	}
}

func TestRecordEngagement(t *testing.T) {
	EngagementsRecordedTotal.Reset()

	RecordEngagement("CARD_VIEW", "current_affairs")
	RecordEngagement("MCQ_ATTEMPT", "mcq")
	RecordEngagement("MCQ_ATTEMPT", "mcq")

	count := testutil.ToFloat64(EngagementsRecordedTotal.WithLabelValues("MCQ_ATTEMPT", "mcq"))
	if count != 2 {
		t.Errorf("Expected MCQ_ATTEMPT count = 2, got %f", count)
	}
}

func TestRecordScoreRecompute(t *testing.T) {
	ScoreRecomputesTotal.Reset()

	RecordScoreRecompute("total", "success")
	RecordScoreRecompute("weekly", "success")
	RecordScoreRecompute("weekly", "error")

	count := testutil.ToFloat64(ScoreRecomputesTotal.WithLabelValues("weekly", "success"))
	if count != 1 {
		t.Errorf("Expected weekly success count = 1, got %f", count)
	}

	count = testutil.ToFloat64(ScoreRecomputesTotal.WithLabelValues("weekly", "error"))
	if count != 1 {
		t.Errorf("Expected weekly error count = 1, got %f", count)
	}
}

func TestRecordBadgeAwarded(t *testing.T) {
	BadgesAwardedTotal.Reset()

	RecordBadgeAwarded("point-collector")
	RecordBadgeAwarded("point-collector")

	count := testutil.ToFloat64(BadgesAwardedTotal.WithLabelValues("point-collector"))
	if count != 2 {
		t.Errorf("Expected awarded count = 2, got %f", count)
	}
}

func TestRecordSchedulerJobRun(t *testing.T) {
	SchedulerJobsRunTotal.Reset()

	RecordSchedulerJobRun("score_recompute", "success")
	RecordSchedulerJobRun("badge_evaluation", "error")

	count := testutil.ToFloat64(SchedulerJobsRunTotal.WithLabelValues("score_recompute", "success"))
	if count != 1 {
		t.Errorf("Expected score_recompute success count = 1, got %f", count)
	}
}

func TestRecordTierClassification_EmptyTierIsNone(t *testing.T) {
	TierClassifications.Reset()

	RecordTierClassification("")
	RecordTierClassification("rookie")

	count := testutil.ToFloat64(TierClassifications.WithLabelValues("none"))
	if count != 1 {
		t.Errorf("Expected none count = 1, got %f", count)
	}
}
