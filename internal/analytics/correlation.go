package analytics

import (
	"fmt"
	"time"

	"github.com/noah-isme/classpulse-api/internal/models"
)

// correlate pairs every failing grade with the negative events dated within
// the correlation window on either side. A grade yields at most one entry.
func (e *Engine) correlate(grades []models.Grade, events []models.BehaviorEvent) []models.Correlation {
	correlations := []models.Correlation{}
	for _, grade := range grades {
		if grade.Score >= e.failingScore {
			continue
		}
		var matched []models.BehaviorEvent
		for _, event := range events {
			if event.Category != models.BehaviorNegative {
				continue
			}
			if absInt(dayNumber(event.Date)-dayNumber(grade.Date)) <= e.correlationWindow {
				matched = append(matched, event)
			}
		}
		if len(matched) == 0 {
			continue
		}
		correlations = append(correlations, models.Correlation{
			Grade:       grade,
			Events:      matched,
			Description: describe(grade, matched, e.correlationWindow),
		})
	}
	return correlations
}

func describe(grade models.Grade, events []models.BehaviorEvent, window int) string {
	label := grade.Subject
	if grade.Assignment != "" {
		label = fmt.Sprintf("%s (%s)", grade.Subject, grade.Assignment)
	}
	return fmt.Sprintf("Score %.0f in %s on %s with %d negative event(s) within %d days",
		grade.Score, label, grade.Date.Format("02/01/2006"), len(events), window)
}

// dayNumber counts calendar days since the epoch using the date's own
// year, month and day, so times of day and zones do not shift the distance.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
