package dto

import (
	"github.com/noah-isme/classpulse-api/internal/models"
)

// CreateGradeRequest adds one grade by hand. Date accepts YYYY-MM-DD or DD/MM/YYYY.
type CreateGradeRequest struct {
	StudentName string  `json:"studentName"`
	Subject     string  `json:"subject"`
	Teacher     string  `json:"teacher"`
	Assignment  string  `json:"assignment"`
	Date        string  `json:"date" validate:"required"`
	Score       float64 `json:"score" validate:"gte=0,lte=200"`
	Weight      float64 `json:"weight" validate:"gte=0"`
}

// CreateEventRequest adds one behaviour event by hand. Category is derived
// from Type and Justification unless given explicitly.
type CreateEventRequest struct {
	StudentName   string                  `json:"studentName"`
	Type          string                  `json:"type" validate:"required"`
	Category      models.BehaviorCategory `json:"category" validate:"omitempty,oneof=POSITIVE NEGATIVE NEUTRAL"`
	Date          string                  `json:"date" validate:"required"`
	Teacher       string                  `json:"teacher"`
	Subject       string                  `json:"subject"`
	LessonNumber  int                     `json:"lessonNumber" validate:"gte=0"`
	Justification string                  `json:"justification"`
	Comment       string                  `json:"comment"`
}

// ImportResponse reports the outcome of a spreadsheet import.
type ImportResponse struct {
	ClassID      string              `json:"classId"`
	StudentCount int                 `json:"studentCount"`
	BehaviorRows int                 `json:"behaviorRows"`
	GradeRows    int                 `json:"gradeRows"`
	Grades       int                 `json:"grades"`
	SkippedRows  int                 `json:"skippedRows"`
	Warnings     []ColumnWarning     `json:"warnings,omitempty"`
	Summary      models.ClassSummary `json:"summary"`
}

// ColumnWarning is a header column that fell back to its default position.
type ColumnWarning struct {
	Field    string `json:"field"`
	Fallback int    `json:"fallback"`
	Reason   string `json:"reason"`
}

// PeriodResponse is a class view restricted to a date range.
type PeriodResponse struct {
	ClassID  string              `json:"classId"`
	Range    models.DateRange    `json:"range"`
	Summary  models.ClassSummary `json:"summary"`
	Students []models.Student    `json:"students"`
}
