package ingest

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classpulse-api/internal/models"
	"github.com/noah-isme/classpulse-api/pkg/sheet"
)

const defaultAssignmentOffset = 2

// Options configures an Ingestor. Zero values pick sensible defaults.
type Options struct {
	BehaviorHeaderRow int
	GradesHeaderRow   int
	AssignmentOffset  int
	Now               func() time.Time
	NewID             func() string
	Logger            *zap.Logger
}

// Stats counts what an ingestion kept and dropped.
// SkippedRows is the total of BehaviorSkipped and GradesSkipped.
type Stats struct {
	BehaviorRows    int       `json:"behaviorRows"`
	GradeRows       int       `json:"gradeRows"`
	Grades          int       `json:"grades"`
	BehaviorSkipped int       `json:"behaviorSkipped"`
	GradesSkipped   int       `json:"gradesSkipped"`
	SkippedRows     int       `json:"skippedRows"`
	Warnings        []Warning `json:"warnings,omitempty"`
}

// IngestResult is the merged per-student output of one ingestion.
type IngestResult struct {
	Students []models.StudentRecord `json:"students"`
	Stats    Stats                  `json:"stats"`
}

// Events flattens every behaviour event in the result.
func (r IngestResult) Events() []models.BehaviorEvent {
	var events []models.BehaviorEvent
	for _, student := range r.Students {
		events = append(events, student.BehaviorEvents...)
	}
	return events
}

// Grades flattens every grade in the result.
func (r IngestResult) Grades() []models.Grade {
	var grades []models.Grade
	for _, student := range r.Students {
		grades = append(grades, student.Grades...)
	}
	return grades
}

// Ingestor parses behaviour and gradebook grids into student records.
type Ingestor struct {
	classifier *Classifier
	behavior   *SchemaMapper
	grades     *SchemaMapper
	offset     int
	now        func() time.Time
	newID      func() string
	logger     *zap.Logger
}

// NewIngestor constructs an Ingestor. A nil classifier uses the default vocabulary.
func NewIngestor(classifier *Classifier, opts Options) *Ingestor {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	if opts.AssignmentOffset <= 0 {
		opts.AssignmentOffset = defaultAssignmentOffset
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Ingestor{
		classifier: classifier,
		behavior:   NewSchemaMapper(BehaviorSchema(opts.BehaviorHeaderRow)),
		grades:     NewSchemaMapper(GradesSchema(opts.GradesHeaderRow)),
		offset:     opts.AssignmentOffset,
		now:        opts.Now,
		newID:      opts.NewID,
		logger:     opts.Logger,
	}
}

// Ingest parses both grids and merges them by student id. Either grid may be nil.
func (i *Ingestor) Ingest(behavior, grades sheet.Grid) IngestResult {
	events, behaviorStats := i.IngestBehavior(behavior)
	scored, gradeStats := i.IngestGrades(grades)

	stats := Stats{
		BehaviorRows:    behaviorStats.BehaviorRows,
		GradeRows:       gradeStats.GradeRows,
		Grades:          gradeStats.Grades,
		BehaviorSkipped: behaviorStats.SkippedRows,
		GradesSkipped:   gradeStats.SkippedRows,
		SkippedRows:     behaviorStats.SkippedRows + gradeStats.SkippedRows,
		Warnings:        append(behaviorStats.Warnings, gradeStats.Warnings...),
	}
	students := Merge(events, scored)

	i.logger.Info("ingestion finished",
		zap.Int("students", len(students)),
		zap.Int("behavior_rows", stats.BehaviorRows),
		zap.Int("grade_rows", stats.GradeRows),
		zap.Int("grades", stats.Grades),
		zap.Int("skipped_rows", stats.SkippedRows),
		zap.Int("warnings", len(stats.Warnings)),
	)
	return IngestResult{Students: students, Stats: stats}
}

// IngestBehavior parses the behaviour export. Rows without a student id or
// with an unparseable date are skipped.
func (i *Ingestor) IngestBehavior(grid sheet.Grid) ([]models.BehaviorEvent, Stats) {
	var stats Stats
	if len(grid) == 0 {
		return nil, stats
	}

	mapping := i.behavior.Map(grid)
	stats.Warnings = mapping.Warnings
	i.logMapping(i.behavior.Schema().Name, mapping)

	if mapping.HeaderRow+1 > len(grid) {
		return nil, stats
	}
	col := func(row []any, field Field) any {
		return sheet.At(row, mapping.Column(field))
	}

	var events []models.BehaviorEvent
	for _, row := range grid[mapping.HeaderRow+1:] {
		studentID := CellString(col(row, FieldStudentID))
		if studentID == "" {
			stats.SkippedRows++
			continue
		}
		date, ok := ParseDate(col(row, FieldDate))
		if !ok {
			stats.SkippedRows++
			continue
		}

		eventType := CellString(col(row, FieldType))
		justification := CellString(col(row, FieldJustification))
		result := i.classifier.Evaluate(eventType, justification)

		event := models.BehaviorEvent{
			ID:            i.newID(),
			StudentID:     studentID,
			StudentName:   CellString(col(row, FieldStudentName)),
			Date:          date,
			Type:          eventType,
			Category:      result.Category,
			Absence:       result.Absence,
			Teacher:       CellString(col(row, FieldTeacher)),
			Subject:       NormalizeSubject(CellString(col(row, FieldSubject))),
			Justification: justification,
			Comment:       CellString(col(row, FieldComment)),
		}
		if lesson, ok := CellNumber(col(row, FieldLessonNumber)); ok && lesson > 0 {
			event.LessonNumber = int(lesson)
		}
		events = append(events, event)
		stats.BehaviorRows++
	}
	i.logger.Debug("behavior rows skipped", zap.Int("count", stats.SkippedRows))
	return events, stats
}

// IngestGrades parses the gradebook export. Each numeric cell under an
// assignment column becomes one grade; blank and non-numeric cells are ignored.
func (i *Ingestor) IngestGrades(grid sheet.Grid) ([]models.Grade, Stats) {
	var stats Stats
	if len(grid) == 0 {
		return nil, stats
	}

	mapping := i.grades.Map(grid)
	stats.Warnings = mapping.Warnings
	i.logMapping(i.grades.Schema().Name, mapping)

	var header []any
	if mapping.HeaderRow < len(grid) {
		header = grid[mapping.HeaderRow]
	}
	now := i.now()
	var columns []AssignmentColumn
	for idx := i.offset; idx < len(header); idx++ {
		raw := CellString(header[idx])
		if raw == "" {
			continue
		}
		column := ParseAssignmentHeader(raw, now)
		column.Index = idx
		columns = append(columns, column)
	}

	if mapping.HeaderRow+1 > len(grid) {
		return nil, stats
	}
	var grades []models.Grade
	for _, row := range grid[mapping.HeaderRow+1:] {
		studentID := CellString(sheet.At(row, mapping.Column(FieldStudentID)))
		if studentID == "" {
			stats.SkippedRows++
			continue
		}
		name := CellString(sheet.At(row, mapping.Column(FieldStudentName)))
		stats.GradeRows++
		for _, column := range columns {
			score, ok := CellNumber(sheet.At(row, column.Index))
			if !ok {
				continue
			}
			grades = append(grades, models.Grade{
				ID:          i.newID(),
				StudentID:   studentID,
				StudentName: name,
				Subject:     column.Subject,
				Teacher:     column.Teacher,
				Assignment:  column.Assignment,
				Date:        column.Date,
				Score:       score,
				Weight:      column.Weight,
			})
			stats.Grades++
		}
	}
	i.logger.Debug("grade rows skipped", zap.Int("count", stats.SkippedRows))
	return grades, stats
}

func (i *Ingestor) logMapping(name string, mapping Mapping) {
	if !mapping.HeaderFound {
		i.logger.Warn("header row not found, using fallback", zap.String("sheet", name), zap.Int("row", mapping.HeaderRow))
	}
	for _, w := range mapping.Warnings {
		i.logger.Info("column fallback",
			zap.String("sheet", name),
			zap.String("field", string(w.Field)),
			zap.Int("fallback", w.Fallback),
			zap.String("reason", w.Reason),
		)
	}
}

// Merge groups events and grades into one record per student id, ordered by
// id. Records keep their source order sorted stably by date.
func Merge(events []models.BehaviorEvent, grades []models.Grade) []models.StudentRecord {
	byID := make(map[string]*models.StudentRecord)
	get := func(id string) *models.StudentRecord {
		record, ok := byID[id]
		if !ok {
			record = &models.StudentRecord{ID: id}
			byID[id] = record
		}
		return record
	}

	for _, event := range events {
		record := get(event.StudentID)
		if record.Name == "" {
			record.Name = event.StudentName
		}
		record.BehaviorEvents = append(record.BehaviorEvents, event)
	}
	for _, grade := range grades {
		record := get(grade.StudentID)
		if record.Name == "" {
			record.Name = grade.StudentName
		}
		record.Grades = append(record.Grades, grade)
	}

	records := make([]models.StudentRecord, 0, len(byID))
	for _, record := range byID {
		sort.SliceStable(record.BehaviorEvents, func(a, b int) bool {
			return record.BehaviorEvents[a].Date.Before(record.BehaviorEvents[b].Date)
		})
		sort.SliceStable(record.Grades, func(a, b int) bool {
			return record.Grades[a].Date.Before(record.Grades[b].Date)
		})
		if record.Name == "" {
			record.Name = record.ID
		}
		records = append(records, *record)
	}
	sort.Slice(records, func(a, b int) bool { return records[a].ID < records[b].ID })
	return records
}
