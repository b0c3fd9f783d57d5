package analytics

import (
	"math"
	"sort"

	"github.com/noah-isme/classpulse-api/internal/models"
)

// Summarize aggregates a computed roster into class-level figures. The class
// average only counts students that have grades.
func Summarize(classID string, students []models.Student) models.ClassSummary {
	summary := models.ClassSummary{ClassID: classID, StudentCount: len(students)}
	if len(students) == 0 {
		return summary
	}

	var scoreSum, riskSum float64
	graded := 0
	for _, s := range students {
		if len(s.Grades) > 0 {
			scoreSum += s.AverageScore
			graded++
		}
		riskSum += s.RiskScore

		switch s.RiskLevel {
		case models.RiskHigh:
			summary.HighRisk++
		case models.RiskMedium:
			summary.MediumRisk++
		default:
			summary.LowRisk++
		}
		summary.NegativeEvents += s.NegativeCount
		summary.PositiveEvents += s.PositiveCount
		summary.Absences += s.AbsenceCount
		summary.CorrelationCount += len(s.Correlations)
	}

	if graded > 0 {
		summary.AverageScore = round1(scoreSum / float64(graded))
	}
	summary.AverageRiskScore = round1(riskSum / float64(len(students)))
	return summary
}

// Compare pairs students by id across two computed periods. A student missing
// from one side is compared against the statistics of an empty record under
// settings. The result is ordered by the current risk score, most at risk first.
func (e *Engine) Compare(current, previous []models.Student, settings *models.RiskSettings) ([]models.StudentComparison, error) {
	if settings == nil {
		return nil, ErrNilSettings
	}
	prevByID := make(map[string]models.Student, len(previous))
	for _, s := range previous {
		prevByID[s.ID] = s
	}
	empty := func(s models.Student) models.Student {
		student, _ := e.Compute(models.StudentRecord{ID: s.ID, Name: s.Name}, settings)
		return student
	}
	seen := make(map[string]bool, len(current))

	comparisons := make([]models.StudentComparison, 0, len(current))
	for _, cur := range current {
		seen[cur.ID] = true
		prev, ok := prevByID[cur.ID]
		if !ok {
			prev = empty(cur)
		}
		comparisons = append(comparisons, compareOne(cur, prev))
	}
	for _, prev := range previous {
		if !seen[prev.ID] {
			comparisons = append(comparisons, compareOne(empty(prev), prev))
		}
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		return comparisons[i].Current.RiskScore < comparisons[j].Current.RiskScore
	})
	return comparisons, nil
}

func compareOne(cur, prev models.Student) models.StudentComparison {
	name := cur.Name
	if name == "" {
		name = prev.Name
	}
	return models.StudentComparison{
		StudentID:      cur.ID,
		Name:           name,
		Current:        cur,
		Previous:       prev,
		AverageDelta:   round1(cur.AverageScore - prev.AverageScore),
		RiskScoreDelta: round1(cur.RiskScore - prev.RiskScore),
		LevelChanged:   cur.RiskLevel != prev.RiskLevel,
		CurrentLevel:   cur.RiskLevel,
		PreviousLevel:  prev.RiskLevel,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
