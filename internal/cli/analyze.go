package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/classpulse-api/internal/analytics"
	"github.com/noah-isme/classpulse-api/internal/ingest"
	"github.com/noah-isme/classpulse-api/internal/models"
	"github.com/noah-isme/classpulse-api/internal/service"
	"github.com/noah-isme/classpulse-api/pkg/config"
	appErrors "github.com/noah-isme/classpulse-api/pkg/errors"
	"github.com/noah-isme/classpulse-api/pkg/export"
	"github.com/noah-isme/classpulse-api/pkg/sheet"
)

type analyzeOptions struct {
	behavior string
	grades   string
	format   string
	output   string
	from     string
	to       string
	classID  string
	pdfFont  string

	minGrade          float64
	maxNegative       int
	attendance        int
	highThreshold     float64
	mediumThreshold   float64
	penaltyPerAbsence float64
}

// Analysis is the JSON document printed by analyze and sample.
type Analysis struct {
	Summary  models.ClassSummary `json:"summary"`
	Settings models.RiskSettings `json:"settings"`
	Warnings []ingest.Warning    `json:"warnings,omitempty"`
	Skipped  int                 `json:"skippedRows"`
	Students []models.Student    `json:"students"`
}

func newAnalyzeCommand() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse a behaviour export and a gradebook",
		Example: "  classpulse analyze --behavior events.xlsx --grades grades.csv\n" +
			"  classpulse analyze --behavior events.csv --format pdf --output report.pdf --from 2024-01-01 --to 2024-03-31",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.behavior == "" && opts.grades == "" {
				return fmt.Errorf("at least one of --behavior or --grades is required")
			}
			cfg, log, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			behavior, err := readSheetFile(opts.behavior)
			if err != nil {
				return err
			}
			grades, err := readSheetFile(opts.grades)
			if err != nil {
				return err
			}
			settings, err := opts.settings(cmd, cfg, log)
			if err != nil {
				return err
			}
			if opts.pdfFont == "" {
				opts.pdfFont = cfg.Export.PDFFontPath
			}
			ingestor := ingest.NewIngestor(ingest.DefaultClassifier(), ingest.Options{
				BehaviorHeaderRow: cfg.Ingest.BehaviorHeaderRow,
				GradesHeaderRow:   cfg.Ingest.GradesHeaderRow,
				AssignmentOffset:  cfg.Ingest.AssignmentOffset,
				Logger:            log,
			})
			return runAnalysis(cmd.OutOrStdout(), ingestor, behavior, grades, settings, opts, log)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.behavior, "behavior", "", "Behaviour export (.csv or .xlsx)")
	flags.StringVar(&opts.grades, "grades", "", "Gradebook export (.csv or .xlsx)")
	flags.StringVar(&opts.format, "format", "json", "Output format: json, csv or pdf")
	flags.StringVarP(&opts.output, "output", "o", "", "Write to file instead of stdout")
	flags.StringVar(&opts.from, "from", "", "Restrict to records on or after date (YYYY-MM-DD)")
	flags.StringVar(&opts.to, "to", "", "Restrict to records on or before date (YYYY-MM-DD)")
	flags.StringVar(&opts.classID, "class", "", "Class label used in report titles")
	flags.StringVar(&opts.pdfFont, "pdf-font", "", "TTF font with Hebrew glyphs for PDF output")
	flags.Float64Var(&opts.minGrade, "min-grade", 0, "Override the minimum passing average")
	flags.IntVar(&opts.maxNegative, "max-negative", 0, "Override the negative event threshold")
	flags.IntVar(&opts.attendance, "attendance-threshold", 0, "Override the absence threshold")
	flags.Float64Var(&opts.highThreshold, "high-threshold", 0, "Override the high risk score bound")
	flags.Float64Var(&opts.mediumThreshold, "medium-threshold", 0, "Override the medium risk score bound")
	flags.Float64Var(&opts.penaltyPerAbsence, "penalty-per-absence", 0, "Extra penalty per absence beyond the threshold")
	return cmd
}

// settings starts from the configured defaults and applies flags the user set.
func (o *analyzeOptions) settings(cmd *cobra.Command, cfg *config.Config, log *zap.Logger) (models.RiskSettings, error) {
	settings := service.RiskSettingsFromConfig(cfg.Risk)
	flags := cmd.Flags()
	if flags.Changed("min-grade") {
		settings.MinGradeThreshold = o.minGrade
	}
	if flags.Changed("max-negative") {
		settings.MaxNegativeBehaviors = o.maxNegative
	}
	if flags.Changed("attendance-threshold") {
		settings.AttendanceThreshold = o.attendance
	}
	if flags.Changed("high-threshold") {
		settings.RiskScoreHighThreshold = o.highThreshold
	}
	if flags.Changed("medium-threshold") {
		settings.RiskScoreMediumThreshold = o.mediumThreshold
	}
	if flags.Changed("penalty-per-absence") {
		penalty := o.penaltyPerAbsence
		settings.PenaltyPerAbsenceAboveThreshold = &penalty
	}
	validator := service.NewSettingsService(nil, settings, nil, nil, log)
	if err := validator.Validate(settings); err != nil {
		return settings, err
	}
	return settings, nil
}

func (o *analyzeOptions) dateRange() (*models.DateRange, error) {
	if o.from == "" && o.to == "" {
		return nil, nil
	}
	if o.from == "" || o.to == "" {
		return nil, fmt.Errorf("--from and --to must be given together")
	}
	from, err := service.ParseDateParam(o.from)
	if err != nil {
		return nil, err
	}
	to, err := service.ParseDateParam(o.to)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("--to must not be before --from")
	}
	return &models.DateRange{From: from, To: to}, nil
}

func runAnalysis(stdout io.Writer, ingestor *ingest.Ingestor, behavior, grades sheet.Grid, settings models.RiskSettings, opts *analyzeOptions, log *zap.Logger) error {
	format := models.ParseReportFormat(opts.format)
	if opts.format == "" || opts.format == "json" {
		format = ""
	} else if !format.Valid() {
		return fmt.Errorf("unsupported format %q", opts.format)
	}
	r, err := opts.dateRange()
	if err != nil {
		return err
	}

	result := ingestor.Ingest(behavior, grades)
	if len(result.Students) == 0 {
		return appErrors.ErrNoStudents
	}

	engine := analytics.NewEngine()
	var students []models.Student
	if r != nil {
		students, err = engine.ProjectAll(result.Students, &settings, *r)
	} else {
		students, err = engine.ComputeAll(result.Students, &settings)
	}
	if err != nil {
		return err
	}

	var payload []byte
	if format == "" {
		summary := analytics.Summarize(opts.classID, students)
		if r != nil {
			summary.Period = r
		} else if span, ok := analytics.Span(result.Students); ok {
			summary.Period = &span
		}
		payload, err = json.MarshalIndent(Analysis{
			Summary:  summary,
			Settings: settings,
			Warnings: result.Stats.Warnings,
			Skipped:  result.Stats.SkippedRows,
			Students: students,
		}, "", "  ")
		if err != nil {
			return err
		}
		payload = append(payload, '\n')
	} else {
		exporter := service.NewExportService(nil, export.NewCSVExporter(), export.NewPDFExporter(opts.pdfFont), log)
		report, err := exporter.Render(service.RiskDataset(opts.classID, students, r), format, opts.classID)
		if err != nil {
			return err
		}
		payload = report.Payload
	}

	if opts.output == "" {
		_, err = stdout.Write(payload)
		return err
	}
	if err := os.WriteFile(opts.output, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	log.Info("report written", zap.String("path", opts.output), zap.Int("students", len(students)))
	return nil
}

func readSheetFile(path string) (sheet.Grid, error) {
	if path == "" {
		return nil, nil
	}
	reader, err := sheet.ForFilename(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	grid, err := reader.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return grid, nil
}
