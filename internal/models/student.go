package models

// Trend is the direction of change between the two halves of a recent window.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// RiskLevel buckets the 1-10 risk score.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// StudentRecord is the raw, persisted part of a student: identity plus records.
type StudentRecord struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Grades         []Grade         `json:"grades"`
	BehaviorEvents []BehaviorEvent `json:"behaviorEvents"`
}

// Correlation links one failing grade to the negative events around its date.
type Correlation struct {
	Grade       Grade           `json:"grade"`
	Events      []BehaviorEvent `json:"events"`
	Description string          `json:"description"`
}

// Student is the derived view model. Every field after BehaviorEvents is
// recomputed wholesale from the records and the effective RiskSettings.
type Student struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Grades         []Grade         `json:"grades"`
	BehaviorEvents []BehaviorEvent `json:"behaviorEvents"`

	AverageScore        float64       `json:"averageScore"`
	NegativeCount       int           `json:"negativeCount"`
	PositiveCount       int           `json:"positiveCount"`
	NeutralCount        int           `json:"neutralCount"`
	AbsenceCount        int           `json:"absenceCount"`
	GradeTrend          Trend         `json:"gradeTrend"`
	GradeTrendDelta     float64       `json:"gradeTrendDelta"`
	BehaviorTrend       Trend         `json:"behaviorTrend"`
	RecentBehaviorScore int           `json:"recentBehaviorScore"`
	RiskLevel           RiskLevel     `json:"riskLevel"`
	RiskScore           float64       `json:"riskScore"`
	Correlations        []Correlation `json:"correlations"`
}

// Record strips derived fields, returning the input the engine was given.
func (s Student) Record() StudentRecord {
	return StudentRecord{
		ID:             s.ID,
		Name:           s.Name,
		Grades:         s.Grades,
		BehaviorEvents: s.BehaviorEvents,
	}
}

// StudentFilter narrows a class listing.
type StudentFilter struct {
	RiskLevel     RiskLevel
	Search        string
	Subject       string
	GradeTrend    Trend
	BehaviorTrend Trend
	Page          int
	PageSize      int
}

// Pagination describes a paged listing.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
