package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classpulse-api/internal/models"
	appErrors "github.com/noah-isme/classpulse-api/pkg/errors"
	"github.com/noah-isme/classpulse-api/pkg/export"
)

// Risk report column headers.
const (
	colStudentID     = "Student ID"
	colName          = "Name"
	colAverage       = "Average"
	colRiskScore     = "Risk Score"
	colRiskLevel     = "Risk Level"
	colGradeTrend    = "Grade Trend"
	colBehaviorTrend = "Behavior Trend"
	colNegatives     = "Negative Events"
	colAbsences      = "Absences"
	colCorrelations  = "Correlations"
)

var riskReportHeaders = []string{
	colStudentID, colName, colAverage, colRiskScore, colRiskLevel,
	colGradeTrend, colBehaviorTrend, colNegatives, colAbsences, colCorrelations,
}

type rosterSource interface {
	Roster(ctx context.Context, classID string, r *models.DateRange) ([]models.Student, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// Report is a rendered risk report ready to be served or written to disk.
type Report struct {
	Filename    string
	ContentType string
	Format      models.ReportFormat
	Payload     []byte
}

// ExportService renders class risk reports.
type ExportService struct {
	roster rosterSource
	csv    csvRenderer
	pdf    pdfRenderer
	now    func() time.Time
	logger *zap.Logger
}

// NewExportService constructs an ExportService. roster may be nil when only
// Render is used.
func NewExportService(roster rosterSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &ExportService{roster: roster, csv: csv, pdf: pdf, now: time.Now, logger: logger}
}

// RiskReport renders the risk report of a class, optionally restricted to r.
func (s *ExportService) RiskReport(ctx context.Context, classID string, format models.ReportFormat, r *models.DateRange) (*Report, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	students, _, err := s.roster.Roster(ctx, classID, r)
	if err != nil {
		return nil, err
	}
	return s.Render(RiskDataset(classID, students, r), format, classID)
}

// Render encodes dataset in the requested format.
func (s *ExportService) Render(dataset export.Dataset, format models.ReportFormat, name string) (*Report, error) {
	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	if err != nil {
		s.logger.Error("render report failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &Report{
		Filename:    s.buildFilename(name, format),
		ContentType: contentType,
		Format:      format,
		Payload:     payload,
	}, nil
}

// RiskDataset lays out one row per student in risk order.
func RiskDataset(classID string, students []models.Student, r *models.DateRange) export.Dataset {
	rows := make([]map[string]string, 0, len(students))
	correlations := 0
	for _, student := range students {
		correlations += len(student.Correlations)
		rows = append(rows, map[string]string{
			colStudentID:     student.ID,
			colName:          student.Name,
			colAverage:       formatAverage(student),
			colRiskScore:     strconv.FormatFloat(student.RiskScore, 'f', 1, 64),
			colRiskLevel:     string(student.RiskLevel),
			colGradeTrend:    string(student.GradeTrend),
			colBehaviorTrend: string(student.BehaviorTrend),
			colNegatives:     strconv.Itoa(student.NegativeCount),
			colAbsences:      strconv.Itoa(student.AbsenceCount),
			colCorrelations:  strconv.Itoa(len(student.Correlations)),
		})
	}

	title := "Risk Report"
	if classID != "" {
		title = fmt.Sprintf("Risk Report %s", classID)
	}
	notes := []string{fmt.Sprintf("Students: %d, correlations: %d", len(students), correlations)}
	if r != nil {
		notes = append(notes, fmt.Sprintf("Period: %s to %s", r.From.Format("2006-01-02"), r.To.Format("2006-01-02")))
	}
	return export.Dataset{Title: title, Notes: notes, Headers: riskReportHeaders, Rows: rows}
}

func formatAverage(student models.Student) string {
	if len(student.Grades) == 0 {
		return ""
	}
	return strconv.FormatFloat(student.AverageScore, 'f', 1, 64)
}

func (s *ExportService) buildFilename(name string, format models.ReportFormat) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("risk_%s_%s.%s", sanitizeFilename(name), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "class"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
