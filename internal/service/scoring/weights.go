package scoring

import (
	"time"

	"github.com/edupulse/engage/internal/models"
)

// eventWeights is the static weighting table. Values are points per event.
var eventWeights = map[models.EventKind]int{
	models.EventLogin:       10,
	models.EventCardView:    5,
	models.EventQuizAttempt: 15,
	models.EventQuizCorrect: 25,
	models.EventSocialPost:  30,
	models.EventSocialLike:  5,
	models.EventConnection:  10,
	models.EventReferral:    50,
}

// Weight returns the point value of an event kind. Unknown kinds weigh 0:
// feature modules may emit event types this engine does not score yet, and
// those must aggregate cleanly rather than fail.
func Weight(kind models.EventKind) int {
	return eventWeights[kind]
}

// SumWeights totals the weighted value of a batch of events.
func SumWeights(events []models.UserEvent) int {
	total := 0
	for _, e := range events {
		total += Weight(e.EventType)
	}
	return total
}

// StartOfWeek returns the most recent week start at 00:00:00 UTC relative
// to now. weekStartDay is a weekday index, 0 = Sunday.
func StartOfWeek(now time.Time, weekStartDay int) time.Time {
	now = now.UTC()
	daysBack := (int(now.Weekday()) - weekStartDay + 7) % 7
	day := now.AddDate(0, 0, -daysBack)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns day 1 of the current calendar month at 00:00:00 UTC.
func StartOfMonth(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
