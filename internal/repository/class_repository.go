package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classpulse-api/internal/models"
)

const (
	gradeColumns = `id, student_id, student_name, subject, teacher, assignment, date, score, weight`
	eventColumns = `id, student_id, student_name, date, type, category, is_absence, teacher, subject, lesson_number, justification, comment`

	insertGradeQuery = `INSERT INTO class_grades (class_id, ` + gradeColumns + `)
VALUES (:class_id, :id, :student_id, :student_name, :subject, :teacher, :assignment, :date, :score, :weight)`
	insertEventQuery = `INSERT INTO class_behavior_events (class_id, ` + eventColumns + `)
VALUES (:class_id, :id, :student_id, :student_name, :date, :type, :category, :is_absence, :teacher, :subject, :lesson_number, :justification, :comment)`
)

type gradeRow struct {
	ClassID string `db:"class_id"`
	models.Grade
}

type eventRow struct {
	ClassID string `db:"class_id"`
	models.BehaviorEvent
}

// ClassRepository persists the raw grades and behaviour events of classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// EnsureClass creates the class row if missing and bumps updated_at otherwise.
func (r *ClassRepository) EnsureClass(ctx context.Context, class *models.Class) error {
	const query = `INSERT INTO classes (id, name, created_at, updated_at)
VALUES (:id, :name, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET
	name = CASE WHEN EXCLUDED.name = '' THEN classes.name ELSE EXCLUDED.name END,
	updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("ensure class: %w", err)
	}
	return nil
}

// FindClass returns a class by id.
func (r *ClassRepository) FindClass(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ReplaceRecords swaps every grade and event of a class in one transaction.
func (r *ClassRepository) ReplaceRecords(ctx context.Context, records models.ClassRecords) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace records tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_grades WHERE class_id = $1`, records.ClassID); err != nil {
		return fmt.Errorf("delete class grades: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM class_behavior_events WHERE class_id = $1`, records.ClassID); err != nil {
		return fmt.Errorf("delete class events: %w", err)
	}
	for _, grade := range records.Grades {
		if _, err = tx.NamedExecContext(ctx, insertGradeQuery, gradeRow{ClassID: records.ClassID, Grade: grade}); err != nil {
			return fmt.Errorf("insert grade: %w", err)
		}
	}
	for _, event := range records.Events {
		if _, err = tx.NamedExecContext(ctx, insertEventQuery, eventRow{ClassID: records.ClassID, BehaviorEvent: event}); err != nil {
			return fmt.Errorf("insert behavior event: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace records tx: %w", err)
	}
	return nil
}

// Records loads every grade and event of a class. A class without rows
// returns sql.ErrNoRows.
func (r *ClassRepository) Records(ctx context.Context, classID string) (*models.ClassRecords, error) {
	if _, err := r.FindClass(ctx, classID); err != nil {
		return nil, err
	}

	records := &models.ClassRecords{ClassID: classID}
	gradeQuery := `SELECT ` + gradeColumns + ` FROM class_grades WHERE class_id = $1 ORDER BY student_id, date, id`
	if err := r.db.SelectContext(ctx, &records.Grades, gradeQuery, classID); err != nil {
		return nil, fmt.Errorf("list class grades: %w", err)
	}
	eventQuery := `SELECT ` + eventColumns + ` FROM class_behavior_events WHERE class_id = $1 ORDER BY student_id, date, id`
	if err := r.db.SelectContext(ctx, &records.Events, eventQuery, classID); err != nil {
		return nil, fmt.Errorf("list class events: %w", err)
	}
	return records, nil
}

// AddGrade appends a single grade to a class.
func (r *ClassRepository) AddGrade(ctx context.Context, classID string, grade models.Grade) error {
	if _, err := r.db.NamedExecContext(ctx, insertGradeQuery, gradeRow{ClassID: classID, Grade: grade}); err != nil {
		return fmt.Errorf("insert grade: %w", err)
	}
	return nil
}

// AddEvent appends a single behaviour event to a class.
func (r *ClassRepository) AddEvent(ctx context.Context, classID string, event models.BehaviorEvent) error {
	if _, err := r.db.NamedExecContext(ctx, insertEventQuery, eventRow{ClassID: classID, BehaviorEvent: event}); err != nil {
		return fmt.Errorf("insert behavior event: %w", err)
	}
	return nil
}
