package models

import "time"

// DateRange is an inclusive calendar-day range.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ClassSummary aggregates derived student views for dashboards.
type ClassSummary struct {
	ClassID          string     `json:"classId"`
	StudentCount     int        `json:"studentCount"`
	AverageScore     float64    `json:"averageScore"`
	AverageRiskScore float64    `json:"averageRiskScore"`
	HighRisk         int        `json:"highRisk"`
	MediumRisk       int        `json:"mediumRisk"`
	LowRisk          int        `json:"lowRisk"`
	NegativeEvents   int        `json:"negativeEvents"`
	PositiveEvents   int        `json:"positiveEvents"`
	Absences         int        `json:"absences"`
	CorrelationCount int        `json:"correlationCount"`
	Period           *DateRange `json:"period,omitempty"`
}

// StudentComparison contrasts one student's derived view across two periods.
type StudentComparison struct {
	StudentID      string    `json:"studentId"`
	Name           string    `json:"name"`
	Current        Student   `json:"current"`
	Previous       Student   `json:"previous"`
	AverageDelta   float64   `json:"averageDelta"`
	RiskScoreDelta float64   `json:"riskScoreDelta"`
	LevelChanged   bool      `json:"levelChanged"`
	CurrentLevel   RiskLevel `json:"currentLevel"`
	PreviousLevel  RiskLevel `json:"previousLevel"`
}

// PeriodComparison is "this period vs previous period" for a class.
type PeriodComparison struct {
	ClassID  string              `json:"classId"`
	Current  ClassSummary        `json:"current"`
	Previous ClassSummary        `json:"previous"`
	Students []StudentComparison `json:"students"`
}

// SystemMetrics is a lightweight snapshot of runtime counters for /health.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	ImportsTotal             uint64    `json:"importsTotal"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
