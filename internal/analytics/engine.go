// Package analytics derives per-student statistics, trends, risk scores and
// grade/behaviour correlations from raw records. Everything here is pure.
package analytics

import (
	"errors"
	"math"
	"sort"

	"github.com/noah-isme/classpulse-api/internal/models"
)

// ErrNilSettings is returned when the caller did not resolve risk settings.
var ErrNilSettings = errors.New("analytics: risk settings are required")

const (
	gradeTrendWindow    = 6
	behaviorTrendWindow = 12

	gradeTrendDelta    = 3.0
	behaviorTrendDelta = 2

	severeNegativeCount = 15

	maxRiskScore = 10.0
	minRiskScore = 1.0
)

// Engine computes derived student views.
type Engine struct {
	failingScore      float64
	correlationWindow int
}

// NewEngine returns an Engine using a failing cutoff of 70 and a correlation
// window of four calendar days.
func NewEngine() *Engine {
	return &Engine{failingScore: 70, correlationWindow: 4}
}

// Compute derives every statistic of a student from its raw records.
// The input slices are not modified.
func (e *Engine) Compute(record models.StudentRecord, settings *models.RiskSettings) (models.Student, error) {
	if settings == nil {
		return models.Student{}, ErrNilSettings
	}

	grades := sortedGrades(record.Grades)
	events := sortedEvents(record.BehaviorEvents)

	student := models.Student{
		ID:             record.ID,
		Name:           record.Name,
		Grades:         grades,
		BehaviorEvents: events,
	}

	student.AverageScore = WeightedAverage(grades)
	for _, event := range events {
		switch event.Category {
		case models.BehaviorNegative:
			student.NegativeCount++
		case models.BehaviorPositive:
			student.PositiveCount++
		default:
			student.NeutralCount++
		}
		if event.CountsAsAbsence() {
			student.AbsenceCount++
		}
	}

	student.GradeTrend, student.GradeTrendDelta = gradeTrend(grades)
	student.BehaviorTrend, student.RecentBehaviorScore = behaviorTrend(events)
	student.RiskScore = riskScore(student, len(grades) > 0, settings)
	student.RiskLevel = Tier(student.RiskScore, settings)
	student.Correlations = e.correlate(grades, events)

	return student, nil
}

// ComputeAll computes every record and sorts the result with SortByRisk.
func (e *Engine) ComputeAll(records []models.StudentRecord, settings *models.RiskSettings) ([]models.Student, error) {
	if settings == nil {
		return nil, ErrNilSettings
	}
	students := make([]models.Student, 0, len(records))
	for _, record := range records {
		student, err := e.Compute(record, settings)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	SortByRisk(students)
	return students, nil
}

// SortByRisk orders students from most to least at risk, then by name and id.
func SortByRisk(students []models.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.RiskScore != b.RiskScore {
			return a.RiskScore < b.RiskScore
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

// WeightedAverage is Σ(score·weight)/Σ(weight). A zero total weight falls
// back to the plain mean; no grades yields 0.
func WeightedAverage(grades []models.Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var weighted, totalWeight float64
	for _, g := range grades {
		weighted += g.Score * g.Weight
		totalWeight += g.Weight
	}
	if totalWeight == 0 {
		return mean(grades)
	}
	return weighted / totalWeight
}

// Tier buckets a risk score using the configured cut points.
func Tier(score float64, settings *models.RiskSettings) models.RiskLevel {
	switch {
	case score <= settings.RiskScoreHighThreshold:
		return models.RiskHigh
	case score <= settings.RiskScoreMediumThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func gradeTrend(grades []models.Grade) (models.Trend, float64) {
	if len(grades) < 2 {
		return models.TrendStable, 0
	}
	window := lastN(grades, gradeTrendWindow)
	split := len(window) / 2
	delta := mean(window[split:]) - mean(window[:split])
	switch {
	case delta > gradeTrendDelta:
		return models.TrendImproving, delta
	case delta < -gradeTrendDelta:
		return models.TrendDeclining, delta
	default:
		return models.TrendStable, delta
	}
}

func behaviorTrend(events []models.BehaviorEvent) (models.Trend, int) {
	if len(events) < 2 {
		sum := 0
		for _, event := range events {
			sum += eventScore(event)
		}
		return models.TrendStable, sum
	}
	window := lastN(events, behaviorTrendWindow)
	split := len(window) / 2
	earlierSum, laterSum := 0, 0
	for _, event := range window[:split] {
		earlierSum += eventScore(event)
	}
	for _, event := range window[split:] {
		laterSum += eventScore(event)
	}

	delta := laterSum - earlierSum
	switch {
	case laterSum <= -6 && delta <= 0:
		return models.TrendDeclining, laterSum
	case delta >= behaviorTrendDelta:
		return models.TrendImproving, laterSum
	case delta <= -behaviorTrendDelta:
		return models.TrendDeclining, laterSum
	default:
		return models.TrendStable, laterSum
	}
}

func riskScore(s models.Student, hasGrades bool, settings *models.RiskSettings) float64 {
	score := maxRiskScore

	if hasGrades {
		threshold := settings.MinGradeThreshold
		switch {
		case s.AverageScore < threshold:
			score -= 4
		case s.AverageScore < threshold+10:
			score -= 2
		case s.AverageScore < threshold+20:
			score -= 1
		}
	}

	switch s.GradeTrend {
	case models.TrendDeclining:
		if s.GradeTrendDelta <= -10 {
			score -= 2
		} else {
			score -= 1
		}
	case models.TrendImproving:
		score += 0.5
	}

	switch {
	case s.RecentBehaviorScore <= -12:
		score -= 4
	case s.RecentBehaviorScore <= -6:
		score -= 2
	case s.RecentBehaviorScore < 0:
		score -= 1
	}

	switch s.BehaviorTrend {
	case models.TrendDeclining:
		score -= 1
	case models.TrendImproving:
		score += 0.3
	}

	switch {
	case s.NegativeCount > severeNegativeCount:
		score -= 2
	case s.NegativeCount > settings.MaxNegativeBehaviors:
		score -= 1
	}

	threshold := settings.AttendanceThreshold
	switch {
	case s.AbsenceCount >= threshold:
		score -= 2
		if p := settings.PenaltyPerAbsenceAboveThreshold; p != nil && *p > 0 {
			score -= *p * float64(s.AbsenceCount-threshold)
		}
	case s.AbsenceCount >= maxInt(threshold-1, 1):
		score -= 0.5
	}

	score = math.Max(minRiskScore, math.Min(maxRiskScore, score))
	return round1(score)
}

func eventScore(event models.BehaviorEvent) int {
	switch event.Category {
	case models.BehaviorPositive:
		return 1
	case models.BehaviorNegative:
		return -2
	default:
		return 0
	}
}

// lastN returns the trailing n items. Callers split the window at len/2, so
// odd windows give the extra item to the later half.
func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func mean(grades []models.Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g.Score
	}
	return sum / float64(len(grades))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func sortedGrades(in []models.Grade) []models.Grade {
	out := make([]models.Grade, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func sortedEvents(in []models.BehaviorEvent) []models.BehaviorEvent {
	out := make([]models.BehaviorEvent, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
