package analytics

import (
	"github.com/noah-isme/classpulse-api/internal/models"
)

// FilterRecord keeps grades and events dated inside r, both ends inclusive
// at calendar-day granularity.
func FilterRecord(record models.StudentRecord, r models.DateRange) models.StudentRecord {
	from, to := dayNumber(r.From), dayNumber(r.To)
	within := func(day int) bool { return day >= from && day <= to }

	filtered := models.StudentRecord{ID: record.ID, Name: record.Name}
	for _, grade := range record.Grades {
		if within(dayNumber(grade.Date)) {
			filtered.Grades = append(filtered.Grades, grade)
		}
	}
	for _, event := range record.BehaviorEvents {
		if within(dayNumber(event.Date)) {
			filtered.BehaviorEvents = append(filtered.BehaviorEvents, event)
		}
	}
	return filtered
}

// Project re-runs Compute on the part of record that falls inside r.
func (e *Engine) Project(record models.StudentRecord, settings *models.RiskSettings, r models.DateRange) (models.Student, error) {
	return e.Compute(FilterRecord(record, r), settings)
}

// ProjectAll projects every record. Students with nothing in range are kept
// so that two periods always list the same roster.
func (e *Engine) ProjectAll(records []models.StudentRecord, settings *models.RiskSettings, r models.DateRange) ([]models.Student, error) {
	filtered := make([]models.StudentRecord, 0, len(records))
	for _, record := range records {
		filtered = append(filtered, FilterRecord(record, r))
	}
	return e.ComputeAll(filtered, settings)
}

// Span returns the earliest and latest dated record across records.
func Span(records []models.StudentRecord) (models.DateRange, bool) {
	var span models.DateRange
	found := false
	extend := func(day models.DateRange) {
		if !found || day.From.Before(span.From) {
			span.From = day.From
		}
		if !found || day.To.After(span.To) {
			span.To = day.To
		}
		found = true
	}
	for _, record := range records {
		for _, grade := range record.Grades {
			extend(models.DateRange{From: grade.Date, To: grade.Date})
		}
		for _, event := range record.BehaviorEvents {
			extend(models.DateRange{From: event.Date, To: event.Date})
		}
	}
	return span, found
}
