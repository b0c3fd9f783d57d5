package models

import "time"

// BehaviorCategory is the derived polarity of a behaviour event.
type BehaviorCategory string

const (
	BehaviorPositive BehaviorCategory = "POSITIVE"
	BehaviorNegative BehaviorCategory = "NEGATIVE"
	BehaviorNeutral  BehaviorCategory = "NEUTRAL"
)

// Valid reports whether c is one of the known categories.
func (c BehaviorCategory) Valid() bool {
	switch c {
	case BehaviorPositive, BehaviorNegative, BehaviorNeutral:
		return true
	default:
		return false
	}
}

// BehaviorEvent is one logged disciplinary or commendation entry.
type BehaviorEvent struct {
	ID            string           `db:"id" json:"id"`
	StudentID     string           `db:"student_id" json:"studentId"`
	StudentName   string           `db:"student_name" json:"studentName"`
	Date          time.Time        `db:"date" json:"date"`
	Type          string           `db:"type" json:"type"`
	Category      BehaviorCategory `db:"category" json:"category"`
	Absence       bool             `db:"is_absence" json:"isAbsence"`
	Teacher       string           `db:"teacher" json:"teacher"`
	Subject       string           `db:"subject" json:"subject"`
	LessonNumber  int              `db:"lesson_number" json:"lessonNumber"`
	Justification string           `db:"justification" json:"justification"`
	Comment       string           `db:"comment" json:"comment"`
}

// IsAbsence reports whether the event type names an absence, justified or not.
func (e BehaviorEvent) IsAbsence() bool {
	return e.Absence
}

// IsOtherNegative reports a negative event that is not an absence.
func (e BehaviorEvent) IsOtherNegative() bool {
	return e.Category == BehaviorNegative && !e.Absence
}

// CountsAsAbsence reports an unjustified absence, the only kind that feeds the attendance penalty.
func (e BehaviorEvent) CountsAsAbsence() bool {
	return e.Category == BehaviorNegative && e.Absence
}
