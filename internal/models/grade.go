package models

import "time"

// GeneralSubject replaces empty or purely numeric subject cells.
const GeneralSubject = "כללי"

// Grade is one scored assessment. Score is not clamped; malformed exports
// may carry values outside 0-100.
type Grade struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"studentId"`
	StudentName string    `db:"student_name" json:"studentName"`
	Subject     string    `db:"subject" json:"subject"`
	Teacher     string    `db:"teacher" json:"teacher"`
	Assignment  string    `db:"assignment" json:"assignment"`
	Date        time.Time `db:"date" json:"date"`
	Score       float64   `db:"score" json:"score"`
	Weight      float64   `db:"weight" json:"weight"`
}
