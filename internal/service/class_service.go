package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classpulse-api/internal/analytics"
	"github.com/noah-isme/classpulse-api/internal/dto"
	"github.com/noah-isme/classpulse-api/internal/ingest"
	"github.com/noah-isme/classpulse-api/internal/models"
	appErrors "github.com/noah-isme/classpulse-api/pkg/errors"
	"github.com/noah-isme/classpulse-api/pkg/sheet"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ClassRepository persists raw class records.
type ClassRepository interface {
	EnsureClass(ctx context.Context, class *models.Class) error
	ReplaceRecords(ctx context.Context, records models.ClassRecords) error
	Records(ctx context.Context, classID string) (*models.ClassRecords, error)
	AddGrade(ctx context.Context, classID string, grade models.Grade) error
	AddEvent(ctx context.Context, classID string, event models.BehaviorEvent) error
}

type settingsResolver interface {
	Effective(ctx context.Context, classID string) (*models.EffectiveRiskSettings, error)
}

// UploadedSheet is one uploaded export. Filename selects the decoder.
type UploadedSheet struct {
	Filename string
	Content  io.Reader
}

// ClassService imports spreadsheets and serves computed class views.
type ClassService struct {
	repo       ClassRepository
	settings   settingsResolver
	ingestor   *ingest.Ingestor
	classifier *ingest.Classifier
	engine     *analytics.Engine
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(
	repo ClassRepository,
	settings settingsResolver,
	ingestor *ingest.Ingestor,
	classifier *ingest.Classifier,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ClassService {
	if classifier == nil {
		classifier = ingest.DefaultClassifier()
	}
	if ingestor == nil {
		ingestor = ingest.NewIngestor(classifier, ingest.Options{Logger: logger})
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		repo:       repo,
		settings:   settings,
		ingestor:   ingestor,
		classifier: classifier,
		engine:     analytics.NewEngine(),
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Import replaces the records of a class with the content of the uploaded
// exports. At least one sheet is required; an import yielding no students fails.
func (s *ClassService) Import(ctx context.Context, classID string, behavior, grades *UploadedSheet) (*dto.ImportResponse, error) {
	if strings.TrimSpace(classID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}
	if behavior == nil && grades == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one of behavior or grades files is required")
	}

	behaviorGrid, err := readUpload(behavior, "behavior")
	if err != nil {
		s.metrics.RecordImport(false)
		return nil, err
	}
	gradesGrid, err := readUpload(grades, "grades")
	if err != nil {
		s.metrics.RecordImport(false)
		return nil, err
	}

	result := s.ingestor.Ingest(behaviorGrid, gradesGrid)
	s.metrics.RecordIngest("behavior", result.Stats.BehaviorRows, result.Stats.BehaviorSkipped)
	s.metrics.RecordIngest("grades", result.Stats.GradeRows, result.Stats.GradesSkipped)
	if len(result.Students) == 0 {
		s.metrics.RecordImport(false)
		s.logger.Warn("import produced no students", zap.String("class_id", classID), zap.Int("skipped_rows", result.Stats.SkippedRows))
		return nil, appErrors.ErrNoStudents
	}

	if err := s.repo.EnsureClass(ctx, &models.Class{ID: classID}); err != nil {
		s.metrics.RecordImport(false)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register class")
	}
	records := models.ClassRecords{ClassID: classID, Grades: result.Grades(), Events: result.Events()}
	if err := s.repo.ReplaceRecords(ctx, records); err != nil {
		s.metrics.RecordImport(false)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store class records")
	}
	_ = s.cache.InvalidateClass(ctx, classID)
	s.metrics.RecordImport(true)

	students, _, err := s.Roster(ctx, classID, nil)
	if err != nil {
		return nil, err
	}
	summary := analytics.Summarize(classID, students)
	s.metrics.SetRiskDistribution(classID, summary)

	s.logger.Info("class imported",
		zap.String("class_id", classID),
		zap.Int("students", len(result.Students)),
		zap.Int("grades", result.Stats.Grades),
		zap.Int("events", result.Stats.BehaviorRows),
	)

	warnings := make([]dto.ColumnWarning, 0, len(result.Stats.Warnings))
	for _, w := range result.Stats.Warnings {
		warnings = append(warnings, dto.ColumnWarning{Field: string(w.Field), Fallback: w.Fallback, Reason: w.Reason})
	}
	return &dto.ImportResponse{
		ClassID:      classID,
		StudentCount: len(result.Students),
		BehaviorRows: result.Stats.BehaviorRows,
		GradeRows:    result.Stats.GradeRows,
		Grades:       result.Stats.Grades,
		SkippedRows:  result.Stats.SkippedRows,
		Warnings:     warnings,
		Summary:      summary,
	}, nil
}

// Roster computes every student of a class, optionally restricted to r.
// The bool reports a cache hit.
func (s *ClassService) Roster(ctx context.Context, classID string, r *models.DateRange) ([]models.Student, bool, error) {
	effective, err := s.settings.Effective(ctx, classID)
	if err != nil {
		return nil, false, err
	}

	view := "roster"
	if r != nil {
		view = "period"
	}
	key := ClassViewKey(classID, effective.Settings, view, r)
	var cached []models.Student
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	records, err := s.loadRecords(ctx, classID)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	var students []models.Student
	if r != nil {
		students, err = s.engine.ProjectAll(records, &effective.Settings, *r)
	} else {
		students, err = s.engine.ComputeAll(records, &effective.Settings)
	}
	s.metrics.ObserveCompute(view, time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute class statistics")
	}

	_ = s.cache.Set(ctx, key, students, 0)
	return students, false, nil
}

// Students lists the computed students of a class that match filter.
func (s *ClassService) Students(ctx context.Context, classID string, filter models.StudentFilter) ([]models.Student, *models.Pagination, bool, error) {
	students, hit, err := s.Roster(ctx, classID, nil)
	if err != nil {
		return nil, nil, false, err
	}

	matched := make([]models.Student, 0, len(students))
	for _, student := range students {
		if matchesFilter(student, filter) {
			matched = append(matched, student)
		}
	}

	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: len(matched)}

	start := (page - 1) * size
	if start >= len(matched) {
		return []models.Student{}, pagination, hit, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], pagination, hit, nil
}

// Student returns a single computed student.
func (s *ClassService) Student(ctx context.Context, classID, studentID string) (*models.Student, bool, error) {
	students, hit, err := s.Roster(ctx, classID, nil)
	if err != nil {
		return nil, false, err
	}
	for i := range students {
		if students[i].ID == studentID {
			return &students[i], hit, nil
		}
	}
	return nil, hit, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

// Summary aggregates the whole history of a class.
func (s *ClassService) Summary(ctx context.Context, classID string) (*models.ClassSummary, bool, error) {
	students, hit, err := s.Roster(ctx, classID, nil)
	if err != nil {
		return nil, false, err
	}
	summary := analytics.Summarize(classID, students)
	records := make([]models.StudentRecord, 0, len(students))
	for _, student := range students {
		records = append(records, student.Record())
	}
	if span, ok := analytics.Span(records); ok {
		summary.Period = &span
	}
	s.metrics.SetRiskDistribution(classID, summary)
	return &summary, hit, nil
}

// Period recomputes the class over r, inclusive.
func (s *ClassService) Period(ctx context.Context, classID string, r models.DateRange) (*dto.PeriodResponse, bool, error) {
	if err := validateRange(r); err != nil {
		return nil, false, err
	}
	students, hit, err := s.Roster(ctx, classID, &r)
	if err != nil {
		return nil, false, err
	}
	summary := analytics.Summarize(classID, students)
	summary.Period = &r
	return &dto.PeriodResponse{ClassID: classID, Range: r, Summary: summary, Students: students}, hit, nil
}

// Compare contrasts two periods of the same class.
func (s *ClassService) Compare(ctx context.Context, classID string, current, previous models.DateRange) (*models.PeriodComparison, bool, error) {
	if err := validateRange(current); err != nil {
		return nil, false, err
	}
	if err := validateRange(previous); err != nil {
		return nil, false, err
	}
	effective, err := s.settings.Effective(ctx, classID)
	if err != nil {
		return nil, false, err
	}
	cur, curHit, err := s.Roster(ctx, classID, &current)
	if err != nil {
		return nil, false, err
	}
	prev, prevHit, err := s.Roster(ctx, classID, &previous)
	if err != nil {
		return nil, false, err
	}

	students, err := s.engine.Compare(cur, prev, &effective.Settings)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compare periods")
	}

	curSummary := analytics.Summarize(classID, cur)
	curSummary.Period = &current
	prevSummary := analytics.Summarize(classID, prev)
	prevSummary.Period = &previous
	return &models.PeriodComparison{
		ClassID:  classID,
		Current:  curSummary,
		Previous: prevSummary,
		Students: students,
	}, curHit && prevHit, nil
}

// AddGrade records a manual grade and returns the recomputed student.
func (s *ClassService) AddGrade(ctx context.Context, classID, studentID string, req dto.CreateGradeRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	date, err := parseRequestDate(req.Date)
	if err != nil {
		return nil, err
	}
	name, err := s.studentName(ctx, classID, studentID, req.StudentName)
	if err != nil {
		return nil, err
	}

	weight := req.Weight
	if weight <= 0 {
		weight = 1
	}
	grade := models.Grade{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		StudentName: name,
		Subject:     ingest.NormalizeSubject(req.Subject),
		Teacher:     strings.TrimSpace(req.Teacher),
		Assignment:  strings.TrimSpace(req.Assignment),
		Date:        date,
		Score:       req.Score,
		Weight:      weight,
	}
	if err := s.repo.AddGrade(ctx, classID, grade); err != nil {
		return nil, s.translateRepoError(err, "failed to store grade")
	}
	return s.afterEdit(ctx, classID, studentID)
}

// AddEvent records a manual behaviour event and returns the recomputed student.
func (s *ClassService) AddEvent(ctx context.Context, classID, studentID string, req dto.CreateEventRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	date, err := parseRequestDate(req.Date)
	if err != nil {
		return nil, err
	}
	name, err := s.studentName(ctx, classID, studentID, req.StudentName)
	if err != nil {
		return nil, err
	}

	classification := s.classifier.Evaluate(req.Type, req.Justification)
	category := classification.Category
	if req.Category != "" {
		category = req.Category
	}
	event := models.BehaviorEvent{
		ID:            uuid.NewString(),
		StudentID:     studentID,
		StudentName:   name,
		Date:          date,
		Type:          strings.TrimSpace(req.Type),
		Category:      category,
		Absence:       classification.Absence,
		Teacher:       strings.TrimSpace(req.Teacher),
		Subject:       ingest.NormalizeSubject(req.Subject),
		LessonNumber:  req.LessonNumber,
		Justification: strings.TrimSpace(req.Justification),
		Comment:       strings.TrimSpace(req.Comment),
	}
	if err := s.repo.AddEvent(ctx, classID, event); err != nil {
		return nil, s.translateRepoError(err, "failed to store behavior event")
	}
	return s.afterEdit(ctx, classID, studentID)
}

func (s *ClassService) afterEdit(ctx context.Context, classID, studentID string) (*models.Student, error) {
	_ = s.cache.InvalidateClass(ctx, classID)
	student, _, err := s.Student(ctx, classID, studentID)
	return student, err
}

// studentName keeps the known display name of an existing student unless one is given.
func (s *ClassService) studentName(ctx context.Context, classID, studentID, requested string) (string, error) {
	if name := strings.TrimSpace(requested); name != "" {
		return name, nil
	}
	records, err := s.loadRecords(ctx, classID)
	if err != nil {
		return "", err
	}
	for _, record := range records {
		if record.ID == studentID {
			return record.Name, nil
		}
	}
	return studentID, nil
}

func (s *ClassService) loadRecords(ctx context.Context, classID string) ([]models.StudentRecord, error) {
	records, err := s.repo.Records(ctx, classID)
	if err != nil {
		return nil, s.translateRepoError(err, "failed to load class records")
	}
	return ingest.Merge(records.Events, records.Grades), nil
}

func (s *ClassService) translateRepoError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func readUpload(upload *UploadedSheet, label string) (sheet.Grid, error) {
	if upload == nil {
		return nil, nil
	}
	reader, err := sheet.ForFilename(upload.Filename)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("%s file must be .csv or .xlsx", label))
	}
	grid, err := reader.Read(upload.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("failed to read %s file", label))
	}
	return grid, nil
}

func matchesFilter(student models.Student, filter models.StudentFilter) bool {
	if filter.RiskLevel != "" && student.RiskLevel != filter.RiskLevel {
		return false
	}
	if filter.GradeTrend != "" && student.GradeTrend != filter.GradeTrend {
		return false
	}
	if filter.BehaviorTrend != "" && student.BehaviorTrend != filter.BehaviorTrend {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		if !strings.Contains(strings.ToLower(student.Name), search) && !strings.HasPrefix(student.ID, search) {
			return false
		}
	}
	if filter.Subject != "" && !hasSubject(student, filter.Subject) {
		return false
	}
	return true
}

func hasSubject(student models.Student, subject string) bool {
	for _, g := range student.Grades {
		if g.Subject == subject {
			return true
		}
	}
	for _, e := range student.BehaviorEvents {
		if e.Subject == subject {
			return true
		}
	}
	return false
}

// ParseDateParam accepts YYYY-MM-DD or the DD/MM/YYYY family used by the exports.
func ParseDateParam(raw string) (time.Time, error) {
	return parseRequestDate(raw)
}

func parseRequestDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	if t, ok := ingest.ParseDate(raw); ok {
		return t, nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q", raw))
}

func validateRange(r models.DateRange) error {
	if r.From.IsZero() || r.To.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "from and to are required")
	}
	if r.To.Before(r.From) {
		return appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	return nil
}
