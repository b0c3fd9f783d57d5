package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classpulse-api/internal/dto"
	"github.com/noah-isme/classpulse-api/internal/middleware"
	"github.com/noah-isme/classpulse-api/internal/models"
	"github.com/noah-isme/classpulse-api/internal/service"
	appErrors "github.com/noah-isme/classpulse-api/pkg/errors"
	"github.com/noah-isme/classpulse-api/pkg/response"
)

type classService interface {
	Import(ctx context.Context, classID string, behavior, grades *service.UploadedSheet) (*dto.ImportResponse, error)
	Students(ctx context.Context, classID string, filter models.StudentFilter) ([]models.Student, *models.Pagination, bool, error)
	Student(ctx context.Context, classID, studentID string) (*models.Student, bool, error)
	Summary(ctx context.Context, classID string) (*models.ClassSummary, bool, error)
	Period(ctx context.Context, classID string, r models.DateRange) (*dto.PeriodResponse, bool, error)
	Compare(ctx context.Context, classID string, current, previous models.DateRange) (*models.PeriodComparison, bool, error)
	AddGrade(ctx context.Context, classID, studentID string, req dto.CreateGradeRequest) (*models.Student, error)
	AddEvent(ctx context.Context, classID, studentID string, req dto.CreateEventRequest) (*models.Student, error)
}

type reportService interface {
	RiskReport(ctx context.Context, classID string, format models.ReportFormat, r *models.DateRange) (*service.Report, error)
}

// ClassHandler exposes class import and analytics endpoints.
type ClassHandler struct {
	classes        classService
	reports        reportService
	maxUploadBytes int64
}

// NewClassHandler constructs ClassHandler. A non-positive maxUploadBytes disables the size check.
func NewClassHandler(classes classService, reports reportService, maxUploadBytes int64) *ClassHandler {
	return &ClassHandler{classes: classes, reports: reports, maxUploadBytes: maxUploadBytes}
}

// Import godoc
// @Summary Import behaviour and grade exports
// @Tags Classes
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Class ID"
// @Param behavior formData file false "Behaviour export (.csv/.xlsx)"
// @Param grades formData file false "Gradebook export (.csv/.xlsx)"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /classes/{id}/import [post]
func (h *ClassHandler) Import(c *gin.Context) {
	behavior, err := h.formSheet(c, "behavior")
	if err != nil {
		response.Error(c, err)
		return
	}
	grades, err := h.formSheet(c, "grades")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.classes.Import(c.Request.Context(), c.Param("id"), behavior, grades)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Students godoc
// @Summary List computed students
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param riskLevel query string false "high, medium or low"
// @Param search query string false "Search by name or id prefix"
// @Param subject query string false "Only students with records in subject"
// @Param gradeTrend query string false "improving, declining or stable"
// @Param behaviorTrend query string false "improving, declining or stable"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/students [get]
func (h *ClassHandler) Students(c *gin.Context) {
	filter := models.StudentFilter{
		RiskLevel:     models.RiskLevel(strings.ToLower(c.Query("riskLevel"))),
		Search:        strings.TrimSpace(c.Query("search")),
		Subject:       strings.TrimSpace(c.Query("subject")),
		GradeTrend:    models.Trend(strings.ToLower(c.Query("gradeTrend"))),
		BehaviorTrend: models.Trend(strings.ToLower(c.Query("behaviorTrend"))),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	students, pagination, hit, err := h.classes.Students(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, students, pagination, middleware.ExtractMeta(c))
}

// Student godoc
// @Summary Get one computed student
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/students/{studentId} [get]
func (h *ClassHandler) Student(c *gin.Context) {
	student, hit, err := h.classes.Student(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, student, nil, middleware.ExtractMeta(c))
}

// AddGrade godoc
// @Summary Record a grade by hand
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.CreateGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/students/{studentId}/grades [post]
func (h *ClassHandler) AddGrade(c *gin.Context) {
	var req dto.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.classes.AddGrade(c.Request.Context(), c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// AddEvent godoc
// @Summary Record a behaviour event by hand
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/students/{studentId}/events [post]
func (h *ClassHandler) AddEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.classes.AddEvent(c.Request.Context(), c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Summary godoc
// @Summary Class summary
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/summary [get]
func (h *ClassHandler) Summary(c *gin.Context) {
	summary, hit, err := h.classes.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// Period godoc
// @Summary Class view over a date range
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/period [get]
func (h *ClassHandler) Period(c *gin.Context) {
	r, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	period, hit, err := h.classes.Period(c.Request.Context(), c.Param("id"), r)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, period, nil, middleware.ExtractMeta(c))
}

// Compare godoc
// @Summary Compare two periods of a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param from query string true "Current period start"
// @Param to query string true "Current period end"
// @Param prevFrom query string true "Previous period start"
// @Param prevTo query string true "Previous period end"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/compare [get]
func (h *ClassHandler) Compare(c *gin.Context) {
	current, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	previous, err := parseRange(c.Query("prevFrom"), c.Query("prevTo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	comparison, hit, err := h.classes.Compare(c.Request.Context(), c.Param("id"), current, previous)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, comparison, nil, middleware.ExtractMeta(c))
}

// Report godoc
// @Summary Download the class risk report
// @Tags Classes
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Class ID"
// @Param format query string false "csv (default) or pdf"
// @Param from query string false "Start date"
// @Param to query string false "End date"
// @Success 200 {file} file
// @Router /classes/{id}/report [get]
func (h *ClassHandler) Report(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var r *models.DateRange
	if c.Query("from") != "" || c.Query("to") != "" {
		parsed, err := parseRange(c.Query("from"), c.Query("to"))
		if err != nil {
			response.Error(c, err)
			return
		}
		r = &parsed
	}
	report, err := h.reports.RiskReport(c.Request.Context(), c.Param("id"), models.ParseReportFormat(c.Query("format")), r)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, report.Filename, report.ContentType, report.Payload)
}

func (h *ClassHandler) formSheet(c *gin.Context, field string) (*service.UploadedSheet, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload")
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("%s file exceeds %d bytes", field, h.maxUploadBytes))
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload")
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	return &service.UploadedSheet{Filename: header.Filename, Content: bytes.NewReader(content)}, nil
}

func parseRange(rawFrom, rawTo string) (models.DateRange, error) {
	if rawFrom == "" || rawTo == "" {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "from and to are required")
	}
	from, err := service.ParseDateParam(rawFrom)
	if err != nil {
		return models.DateRange{}, err
	}
	to, err := service.ParseDateParam(rawTo)
	if err != nil {
		return models.DateRange{}, err
	}
	return models.DateRange{From: from, To: to}, nil
}
