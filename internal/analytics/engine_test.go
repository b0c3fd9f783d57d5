package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpulse-api/internal/ingest"
	"github.com/noah-isme/classpulse-api/internal/models"
)

func testSettings() *models.RiskSettings {
	return &models.RiskSettings{
		MinGradeThreshold:        70,
		MaxNegativeBehaviors:     5,
		AttendanceThreshold:      3,
		RiskScoreHighThreshold:   4,
		RiskScoreMediumThreshold: 7,
		Weights:                  models.RiskWeights{Grades: 0.5, Absences: 0.25, NegativeEvents: 0.25},
	}
}

func day(n int) time.Time {
	return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func grade(score, weight float64, d int) models.Grade {
	return models.Grade{StudentID: "s1", Subject: "מתמטיקה", Score: score, Weight: weight, Date: day(d)}
}

func event(category models.BehaviorCategory, d int) models.BehaviorEvent {
	return models.BehaviorEvent{StudentID: "s1", Type: "x", Category: category, Date: day(d)}
}

func absence(d int) models.BehaviorEvent {
	e := event(models.BehaviorNegative, d)
	e.Absence = true
	return e
}

func TestComputeRequiresSettings(t *testing.T) {
	_, err := NewEngine().Compute(models.StudentRecord{ID: "s1"}, nil)
	assert.ErrorIs(t, err, ErrNilSettings)

	_, err = NewEngine().ComputeAll(nil, nil)
	assert.ErrorIs(t, err, ErrNilSettings)
}

func TestComputeEmptyRecord(t *testing.T) {
	student, err := NewEngine().Compute(models.StudentRecord{ID: "s1", Name: "Empty"}, testSettings())
	require.NoError(t, err)

	assert.Zero(t, student.AverageScore)
	assert.Equal(t, models.TrendStable, student.GradeTrend)
	assert.Equal(t, models.TrendStable, student.BehaviorTrend)
	assert.Equal(t, 10.0, student.RiskScore)
	assert.Equal(t, models.RiskLow, student.RiskLevel)
	assert.Empty(t, student.Correlations)
}

func TestWeightedAverage(t *testing.T) {
	assert.Equal(t, 65.0, WeightedAverage([]models.Grade{grade(80, 1, 0), grade(60, 3, 1)}))
	assert.Equal(t, 70.0, WeightedAverage([]models.Grade{grade(80, 0, 0), grade(60, 0, 1)}))
	assert.Zero(t, WeightedAverage(nil))
}

func TestGradeTrend(t *testing.T) {
	cases := []struct {
		name   string
		scores []float64
		want   models.Trend
		delta  float64
	}{
		{"single grade", []float64{50}, models.TrendStable, 0},
		{"improving", []float64{60, 70}, models.TrendImproving, 10},
		{"declining", []float64{80, 60}, models.TrendDeclining, -20},
		{"within band", []float64{80, 83}, models.TrendStable, 3},
		{"only last six count", []float64{0, 0, 80, 80, 80, 90, 90, 90}, models.TrendImproving, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var grades []models.Grade
			for i, score := range tc.scores {
				grades = append(grades, grade(score, 1, i))
			}
			trend, delta := gradeTrend(grades)
			assert.Equal(t, tc.want, trend)
			assert.InDelta(t, tc.delta, delta, 1e-9)
		})
	}
}

func TestBehaviorTrend(t *testing.T) {
	neg := models.BehaviorNegative
	pos := models.BehaviorPositive

	trend, recent := behaviorTrend([]models.BehaviorEvent{event(neg, 0)})
	assert.Equal(t, models.TrendStable, trend)
	assert.Equal(t, -2, recent)

	trend, recent = behaviorTrend([]models.BehaviorEvent{event(neg, 0), event(pos, 1)})
	assert.Equal(t, models.TrendImproving, trend)
	assert.Equal(t, 1, recent)

	trend, _ = behaviorTrend([]models.BehaviorEvent{event(pos, 0), event(neg, 1)})
	assert.Equal(t, models.TrendDeclining, trend)

	var heavy []models.BehaviorEvent
	for i := 0; i < 6; i++ {
		heavy = append(heavy, event(neg, i))
	}
	trend, recent = behaviorTrend(heavy)
	assert.Equal(t, models.TrendDeclining, trend)
	assert.Equal(t, -6, recent)
}

func TestRiskScoreTiers(t *testing.T) {
	settings := testSettings()
	engine := NewEngine()

	compute := func(record models.StudentRecord) models.Student {
		student, err := engine.Compute(record, settings)
		require.NoError(t, err)
		return student
	}

	below := compute(models.StudentRecord{ID: "a", Grades: []models.Grade{grade(65, 1, 0)}})
	assert.Equal(t, 6.0, below.RiskScore)
	assert.Equal(t, models.RiskMedium, below.RiskLevel)

	near := compute(models.StudentRecord{ID: "b", Grades: []models.Grade{grade(75, 1, 0)}})
	assert.Equal(t, 8.0, near.RiskScore)

	fair := compute(models.StudentRecord{ID: "c", Grades: []models.Grade{grade(85, 1, 0)}})
	assert.Equal(t, 9.0, fair.RiskScore)
	assert.Equal(t, models.RiskLow, fair.RiskLevel)

	strong := compute(models.StudentRecord{ID: "d", Grades: []models.Grade{grade(95, 1, 0)}})
	assert.Equal(t, 10.0, strong.RiskScore)
}

func TestRiskScoreAbsences(t *testing.T) {
	engine := NewEngine()
	settings := testSettings()

	two, err := engine.Compute(models.StudentRecord{ID: "a", BehaviorEvents: []models.BehaviorEvent{
		absence(0), absence(1),
	}}, settings)
	require.NoError(t, err)
	assert.Equal(t, 2, two.AbsenceCount)
	// -0.5 attendance, recent -2 => -1, trend stable
	assert.Equal(t, 8.5, two.RiskScore)

	penalty := 1.0
	settings.PenaltyPerAbsenceAboveThreshold = &penalty
	five, err := engine.Compute(models.StudentRecord{ID: "b", BehaviorEvents: []models.BehaviorEvent{
		absence(0), absence(1), absence(2), absence(3), absence(4),
	}}, settings)
	require.NoError(t, err)
	// recent: later half of 5 is 3 events => -6 (-2), trend declining (-1),
	// attendance -2 and 2 absences above threshold (-2)
	assert.Equal(t, 3.0, five.RiskScore)
	assert.Equal(t, models.RiskHigh, five.RiskLevel)
}

func TestRiskScoreComponents(t *testing.T) {
	settings := testSettings()

	cases := []struct {
		name    string
		student models.Student
		want    float64
	}{
		{"recent behavior at -12", models.Student{RecentBehaviorScore: -12}, 6.0},
		{"recent behavior at -11", models.Student{RecentBehaviorScore: -11}, 8.0},
		{"recent behavior at -6", models.Student{RecentBehaviorScore: -6}, 8.0},
		{"recent behavior at -1", models.Student{RecentBehaviorScore: -1}, 9.0},
		{"steep grade decline", models.Student{GradeTrend: models.TrendDeclining, GradeTrendDelta: -10}, 8.0},
		{"mild grade decline", models.Student{GradeTrend: models.TrendDeclining, GradeTrendDelta: -9.9}, 9.0},
		{"grade improvement", models.Student{GradeTrend: models.TrendImproving, GradeTrendDelta: 4}, 10.0},
		{"negatives at the limit", models.Student{NegativeCount: 5}, 10.0},
		{"negatives above the limit", models.Student{NegativeCount: 6}, 9.0},
		{"negatives at fifteen", models.Student{NegativeCount: 15}, 9.0},
		{"negatives above fifteen", models.Student{NegativeCount: 16}, 8.0},
		{"floor", models.Student{RecentBehaviorScore: -20, NegativeCount: 20, AbsenceCount: 9, BehaviorTrend: models.TrendDeclining}, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, riskScore(tc.student, false, settings))
		})
	}
}

func TestRiskScoreNegativeEventCounts(t *testing.T) {
	engine := NewEngine()
	settings := testSettings()

	negatives := func(n int) models.StudentRecord {
		record := models.StudentRecord{ID: "s1"}
		for i := 0; i < n; i++ {
			record.BehaviorEvents = append(record.BehaviorEvents, event(models.BehaviorNegative, i))
		}
		return record
	}

	cases := []struct {
		count  int
		recent int
		want   float64
	}{
		// recent -6 (-2), declining (-1)
		{count: 5, recent: -6, want: 7.0},
		// plus more than maxNegativeBehaviors (-1)
		{count: 6, recent: -6, want: 6.0},
		// recent -12 (-4), declining (-1), above max (-1)
		{count: 15, recent: -12, want: 4.0},
		// more than fifteen negatives (-2)
		{count: 16, recent: -12, want: 3.0},
	}
	for _, tc := range cases {
		student, err := engine.Compute(negatives(tc.count), settings)
		require.NoError(t, err)
		assert.Equal(t, tc.count, student.NegativeCount)
		assert.Equal(t, tc.recent, student.RecentBehaviorScore, "count %d", tc.count)
		assert.Equal(t, models.TrendDeclining, student.BehaviorTrend, "count %d", tc.count)
		assert.Equal(t, tc.want, student.RiskScore, "count %d", tc.count)
	}
}

func TestRiskScoreGradeDecline(t *testing.T) {
	engine := NewEngine()
	settings := testSettings()

	steep, err := engine.Compute(models.StudentRecord{ID: "a", Grades: []models.Grade{
		grade(90, 1, 0), grade(90, 1, 1), grade(80, 1, 2), grade(80, 1, 3),
	}}, settings)
	require.NoError(t, err)
	assert.Equal(t, models.TrendDeclining, steep.GradeTrend)
	assert.Equal(t, -10.0, steep.GradeTrendDelta)
	// average 85 (-1), decline of 10 (-2)
	assert.Equal(t, 7.0, steep.RiskScore)

	mild, err := engine.Compute(models.StudentRecord{ID: "b", Grades: []models.Grade{
		grade(90, 1, 0), grade(90, 1, 1), grade(85, 1, 2), grade(85, 1, 3),
	}}, settings)
	require.NoError(t, err)
	assert.Equal(t, models.TrendDeclining, mild.GradeTrend)
	// average 87.5 (-1), decline of 5 (-1)
	assert.Equal(t, 8.0, mild.RiskScore)
}

func TestJustifiedAbsenceIsNeutral(t *testing.T) {
	classifier := ingest.DefaultClassifier()
	justified := models.BehaviorEvent{
		StudentID: "s1", Date: day(0), Type: "חיסור מוצדק",
		Category: classifier.Classify("חיסור מוצדק", ""), Absence: classifier.IsAbsence("חיסור מוצדק"),
	}
	withReason := models.BehaviorEvent{
		StudentID: "s1", Date: day(1), Type: "חיסור", Justification: "מחלה",
		Category: classifier.Classify("חיסור", "מחלה"), Absence: true,
	}

	student, err := NewEngine().Compute(models.StudentRecord{
		ID:             "s1",
		BehaviorEvents: []models.BehaviorEvent{justified, withReason},
	}, testSettings())
	require.NoError(t, err)

	assert.Zero(t, student.NegativeCount)
	assert.Zero(t, student.AbsenceCount)
	assert.Equal(t, 2, student.NeutralCount)
	assert.Equal(t, 10.0, student.RiskScore)
}

func TestTierMonotonicInMinGradeThreshold(t *testing.T) {
	record := models.StudentRecord{ID: "s1", Grades: []models.Grade{grade(72, 1, 0), grade(68, 2, 3), grade(81, 1, 7)}}
	engine := NewEngine()

	previous := 11.0
	for threshold := 0.0; threshold <= 100; threshold += 5 {
		settings := testSettings()
		settings.MinGradeThreshold = threshold
		student, err := engine.Compute(record, settings)
		require.NoError(t, err)
		assert.LessOrEqual(t, student.RiskScore, previous, "threshold %v", threshold)
		previous = student.RiskScore
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	record := models.StudentRecord{
		ID:   "s1",
		Name: "Dana",
		Grades: []models.Grade{
			grade(55, 1, 5), grade(90, 2, 0), grade(61, 1, 9),
		},
		BehaviorEvents: []models.BehaviorEvent{
			event(models.BehaviorNegative, 6), absence(8), event(models.BehaviorPositive, 1),
		},
	}
	engine := NewEngine()

	first, err := engine.Compute(record, testSettings())
	require.NoError(t, err)
	second, err := engine.Compute(first.Record(), testSettings())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 90.0, record.Grades[1].Score, "input must not be reordered")
}

func TestSortByRisk(t *testing.T) {
	students := []models.Student{
		{ID: "1", Name: "b", RiskScore: 5},
		{ID: "2", Name: "a", RiskScore: 5},
		{ID: "3", Name: "z", RiskScore: 2},
	}
	SortByRisk(students)

	assert.Equal(t, []string{"3", "2", "1"}, []string{students[0].ID, students[1].ID, students[2].ID})
}

func TestSampleScenario(t *testing.T) {
	behavior, grades := ingest.SampleData()
	result := ingest.NewIngestor(nil, ingest.Options{}).Ingest(behavior, grades)

	students, err := NewEngine().ComputeAll(result.Students, testSettings())
	require.NoError(t, err)
	require.Len(t, students, 3)

	byID := make(map[string]models.Student)
	for _, s := range students {
		byID[s.ID] = s
	}

	atRisk := byID[ingest.SampleStudentAtRisk]
	assert.Equal(t, "ישראל ישראלי", atRisk.Name)
	assert.InDelta(t, 65.0, atRisk.AverageScore, 0.01)
	assert.Equal(t, 2, atRisk.NegativeCount)
	assert.Equal(t, models.TrendDeclining, atRisk.GradeTrend)
	assert.Equal(t, models.RiskHigh, atRisk.RiskLevel)
	assert.Equal(t, 3.0, atRisk.RiskScore)
	require.Len(t, atRisk.Correlations, 1)
	assert.Len(t, atRisk.Correlations[0].Events, 2)

	healthy := byID[ingest.SampleStudentHealthy]
	assert.Equal(t, "דניאל כהן", healthy.Name)
	assert.Zero(t, healthy.NegativeCount)
	assert.Equal(t, models.RiskLow, healthy.RiskLevel)

	assert.Equal(t, ingest.SampleStudentAtRisk, students[0].ID)
}
