package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpulse-api/internal/models"
)

func TestSummarize(t *testing.T) {
	students := []models.Student{
		{ID: "1", Grades: []models.Grade{{Score: 60}}, AverageScore: 60, RiskScore: 3, RiskLevel: models.RiskHigh, NegativeCount: 4, AbsenceCount: 2, Correlations: []models.Correlation{{}}},
		{ID: "2", Grades: []models.Grade{{Score: 90}}, AverageScore: 90, RiskScore: 6, RiskLevel: models.RiskMedium, PositiveCount: 2},
		{ID: "3", RiskScore: 10, RiskLevel: models.RiskLow},
	}

	summary := Summarize("c1", students)

	assert.Equal(t, "c1", summary.ClassID)
	assert.Equal(t, 3, summary.StudentCount)
	assert.Equal(t, 75.0, summary.AverageScore)
	assert.Equal(t, 6.3, summary.AverageRiskScore)
	assert.Equal(t, 1, summary.HighRisk)
	assert.Equal(t, 1, summary.MediumRisk)
	assert.Equal(t, 1, summary.LowRisk)
	assert.Equal(t, 4, summary.NegativeEvents)
	assert.Equal(t, 2, summary.PositiveEvents)
	assert.Equal(t, 2, summary.Absences)
	assert.Equal(t, 1, summary.CorrelationCount)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize("c1", nil)
	assert.Zero(t, summary.StudentCount)
	assert.Zero(t, summary.AverageRiskScore)
}

func TestCompare(t *testing.T) {
	current := []models.Student{
		{ID: "1", Name: "Avi", AverageScore: 60, RiskScore: 4, RiskLevel: models.RiskHigh},
		{ID: "2", Name: "Bea", AverageScore: 88, RiskScore: 9, RiskLevel: models.RiskLow},
	}
	previous := []models.Student{
		{ID: "1", Name: "Avi", AverageScore: 72.5, RiskScore: 7.5, RiskLevel: models.RiskLow},
		{ID: "2", Name: "Bea", AverageScore: 85, RiskScore: 9, RiskLevel: models.RiskLow},
	}

	result, err := NewEngine().Compare(current, previous, testSettings())
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "1", result[0].StudentID)
	assert.Equal(t, -12.5, result[0].AverageDelta)
	assert.Equal(t, -3.5, result[0].RiskScoreDelta)
	assert.True(t, result[0].LevelChanged)
	assert.Equal(t, models.RiskLow, result[0].PreviousLevel)
	assert.False(t, result[1].LevelChanged)
}

func TestCompareFillsMissingSideWithEmptyRecord(t *testing.T) {
	current := []models.Student{
		{ID: "1", Name: "Avi", AverageScore: 60, RiskScore: 4, RiskLevel: models.RiskHigh},
	}
	previous := []models.Student{
		{ID: "2", Name: "Bea", AverageScore: 55, RiskScore: 3, RiskLevel: models.RiskHigh},
	}

	result, err := NewEngine().Compare(current, previous, testSettings())
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "1", result[0].StudentID)
	assert.Equal(t, 10.0, result[0].Previous.RiskScore)
	assert.Equal(t, models.RiskLow, result[0].Previous.RiskLevel)
	assert.Equal(t, -6.0, result[0].RiskScoreDelta)

	gone := result[1]
	assert.Equal(t, "2", gone.StudentID)
	assert.Equal(t, "Bea", gone.Name)
	assert.Equal(t, 10.0, gone.Current.RiskScore)
	assert.Equal(t, models.RiskLow, gone.CurrentLevel)
	assert.Equal(t, models.RiskHigh, gone.PreviousLevel)
	assert.True(t, gone.LevelChanged)
}

func TestCompareRequiresSettings(t *testing.T) {
	_, err := NewEngine().Compare(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNilSettings)
}
