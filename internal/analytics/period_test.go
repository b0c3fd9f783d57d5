package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpulse-api/internal/models"
)

func periodRecord() models.StudentRecord {
	return models.StudentRecord{
		ID:   "s1",
		Name: "Dana",
		Grades: []models.Grade{
			grade(90, 1, 0), grade(55, 2, 10), grade(60, 1, 20),
		},
		BehaviorEvents: []models.BehaviorEvent{
			event(models.BehaviorPositive, 1), absence(9), event(models.BehaviorNegative, 12), event(models.BehaviorNegative, 21),
		},
	}
}

func TestFilterRecordIsInclusive(t *testing.T) {
	filtered := FilterRecord(periodRecord(), models.DateRange{From: day(10), To: day(20)})

	assert.Len(t, filtered.Grades, 2)
	assert.Len(t, filtered.BehaviorEvents, 1)
	assert.Equal(t, "Dana", filtered.Name)
}

func TestProjectOverFullSpanMatchesCompute(t *testing.T) {
	record := periodRecord()
	engine := NewEngine()

	span, ok := Span([]models.StudentRecord{record})
	require.True(t, ok)
	assert.True(t, day(0).Equal(span.From))
	assert.True(t, day(21).Equal(span.To))

	full, err := engine.Compute(record, testSettings())
	require.NoError(t, err)
	projected, err := engine.Project(record, testSettings(), span)
	require.NoError(t, err)

	assert.Equal(t, full, projected)
}

func TestProjectAllKeepsRoster(t *testing.T) {
	other := models.StudentRecord{ID: "s2", Name: "Ron", Grades: []models.Grade{grade(95, 1, 30)}}

	students, err := NewEngine().ProjectAll([]models.StudentRecord{periodRecord(), other}, testSettings(), models.DateRange{From: day(0), To: day(5)})
	require.NoError(t, err)

	require.Len(t, students, 2)
	for _, s := range students {
		if s.ID == "s2" {
			assert.Empty(t, s.Grades)
			assert.Equal(t, 10.0, s.RiskScore)
		}
	}
}

func TestSpanEmpty(t *testing.T) {
	_, ok := Span(nil)
	assert.False(t, ok)
}
