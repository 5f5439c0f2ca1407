// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the engagement scoring engine.
var (
	// Counters.
	EventsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_events_recorded_total",
			Help: "Total number of user activity events appended",
		},
		[]string{"event_type"},
	)

	EngagementsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_engagements_recorded_total",
			Help: "Total number of daily digest engagements recorded",
		},
		[]string{"engagement_type", "card_type"},
	)

	ScoreRecomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_score_recomputes_total",
			Help: "Total number of score recomputations",
		},
		[]string{"window", "status"},
	)

	BadgesAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_badges_awarded_total",
			Help: "Total number of achievement badges awarded",
		},
		[]string{"badge_name"},
	)

	SchedulerJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_scheduler_jobs_run_total",
			Help: "Total scheduler job executions",
		},
		[]string{"job", "status"},
	)

	// Gauges.
	TierClassifications = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "engage_tier_classifications",
			Help: "Last computed tier per classification call",
		},
		[]string{"tier"},
	)

	// Histograms.
	RollupDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engage_rollup_duration_seconds",
			Help:    "Time taken to recompute a daily engagement rollup",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	ScoreEventsScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engage_score_events_scanned",
			Help:    "Number of events scanned per score recomputation",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k
		},
	)
)

// RecordEvent records an appended activity event.
func RecordEvent(eventType string) {
	EventsRecordedTotal.WithLabelValues(eventType).Inc()
}

// RecordEngagement records a daily digest engagement.
func RecordEngagement(engagementType, cardType string) {
	EngagementsRecordedTotal.WithLabelValues(engagementType, cardType).Inc()
}

// RecordScoreRecompute records a score recomputation for a window.
func RecordScoreRecompute(window, status string) {
	ScoreRecomputesTotal.WithLabelValues(window, status).Inc()
}

// RecordBadgeAwarded records a badge award event.
func RecordBadgeAwarded(badgeName string) {
	BadgesAwardedTotal.WithLabelValues(badgeName).Inc()
}

// RecordSchedulerJobRun records a scheduler job execution.
func RecordSchedulerJobRun(job, status string) {
	SchedulerJobsRunTotal.WithLabelValues(job, status).Inc()
}

// RecordTierClassification bumps the gauge for a computed tier.
func RecordTierClassification(tier string) {
	if tier == "" {
		tier = "none"
	}
	TierClassifications.WithLabelValues(tier).Inc()
}

// ObserveRollupDuration observes the duration of a daily rollup recompute.
func ObserveRollupDuration(seconds float64) {
	RollupDurationSeconds.Observe(seconds)
}

// ObserveScoreEventsScanned observes the event count behind a recompute.
func ObserveScoreEventsScanned(count float64) {
	ScoreEventsScanned.Observe(count)
}
