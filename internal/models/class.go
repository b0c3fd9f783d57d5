package models

import "time"

// Class groups the raw records of one school class.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ClassRecords is the canonical, persisted input for a class.
type ClassRecords struct {
	ClassID string          `json:"classId"`
	Grades  []Grade         `json:"grades"`
	Events  []BehaviorEvent `json:"events"`
}
