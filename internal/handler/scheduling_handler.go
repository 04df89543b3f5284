package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-core/internal/dto"
	"github.com/noah-isme/timetable-core/internal/middleware"
	"github.com/noah-isme/timetable-core/internal/models"
	"github.com/noah-isme/timetable-core/internal/service"
	appErrors "github.com/noah-isme/timetable-core/pkg/errors"
	"github.com/noah-isme/timetable-core/pkg/response"
)

const maxIngestionRecords = 10000

type schedulingFacade interface {
	LoadAssignments(ctx context.Context, raw []models.RawAssignment) models.IngestionReport
	Load(ctx context.Context) (*models.IngestionReport, error)
	ListAssignments(ctx context.Context, query dto.ListAssignmentsQuery) ([]models.Assignment, *models.Pagination, error)
	ProposeAssignment(ctx context.Context, req dto.AssignmentRequest) (*models.ProposalResult, error)
	CommitAssignment(ctx context.Context, req dto.AssignmentRequest) (*dto.CommitAssignmentResponse, error)
	RemoveAssignment(ctx context.Context, courseID string) error
	GetView(ctx context.Context, mode models.ViewMode, opts models.ViewOptions) (*models.ScheduleView, error)
	GetStatistics(ctx context.Context) (*models.ScheduleStatistics, bool, error)
	SetLookups(ctx context.Context, req dto.LookupsRequest)
	ConflictReport(ctx context.Context) models.ConflictReport
}

// SchedulingHandler exposes assignment, view, statistics and conflict endpoints.
type SchedulingHandler struct {
	service schedulingFacade
}

// NewSchedulingHandler constructs the handler.
func NewSchedulingHandler(svc *service.SchedulingService) *SchedulingHandler {
	return &SchedulingHandler{service: svc}
}

// LoadAssignments godoc
// @Summary Bulk ingest raw assignment records
// @Description Replaces the store with every decodable record. Malformed slots are skipped and reported per index. An empty body reloads from the database.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.LoadAssignmentsRequest false "Raw records"
// @Success 200 {object} response.Envelope
// @Router /assignments/load [post]
func (h *SchedulingHandler) LoadAssignments(c *gin.Context) {
	if c.Request.ContentLength == 0 {
		report, err := h.service.Load(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, report, nil, map[string]interface{}{"source": "database"})
		return
	}

	var req dto.LoadAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ingestion payload"))
		return
	}
	if len(req.Records) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "records must not be empty"))
		return
	}
	if len(req.Records) > maxIngestionRecords {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("records exceeds limit of %d", maxIngestionRecords)))
		return
	}
	report := h.service.LoadAssignments(c.Request.Context(), req.Records)
	response.JSON(c, http.StatusOK, report, nil, map[string]interface{}{"source": "payload"})
}

// ListAssignments godoc
// @Summary List stored assignments
// @Tags Assignments
// @Produce json
// @Param q query string false "Case-insensitive filter on course name, classroom name or course id"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *SchedulingHandler) ListAssignments(c *gin.Context) {
	var query dto.ListAssignmentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.ListAssignments(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ProposeAssignment godoc
// @Summary Check a candidate assignment for conflicts
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.AssignmentRequest true "Candidate assignment"
// @Success 200 {object} response.Envelope
// @Router /assignments/propose [post]
func (h *SchedulingHandler) ProposeAssignment(c *gin.Context) {
	var req dto.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	result, err := h.service.ProposeAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"has_conflicts": result.HasConflicts()})
}

// CommitAssignment godoc
// @Summary Store an assignment
// @Description Conflicts do not block the write; they are returned alongside the stored record.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.AssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *SchedulingHandler) CommitAssignment(c *gin.Context) {
	var req dto.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	result, err := h.service.CommitAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result.Assignment, nil, map[string]interface{}{
		"conflicts":    result.Conflicts,
		"skipped_axes": result.SkippedAxes,
	})
}

// RemoveAssignment godoc
// @Summary Remove an assignment
// @Tags Assignments
// @Param courseId path string true "Course ID"
// @Success 204
// @Router /assignments/{courseId} [delete]
func (h *SchedulingHandler) RemoveAssignment(c *gin.Context) {
	if err := h.service.RemoveAssignment(c.Request.Context(), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// View godoc
// @Summary Project assignments into a calendar view
// @Tags Views
// @Produce json
// @Param mode path string true "week, month, semester or overview"
// @Param q query string false "Filter"
// @Param weeks query string false "Term weeks for month view, e.g. 1-4"
// @Param days query string false "Day range for week view, e.g. 1-5"
// @Param periods query string false "1-based period group range for week view, e.g. 1-5"
// @Success 200 {object} response.Envelope
// @Router /views/{mode} [get]
func (h *SchedulingHandler) View(c *gin.Context) {
	mode := models.ViewMode(strings.ToLower(c.Param("mode")))
	if !mode.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "view mode must be one of week, month, semester, overview"))
		return
	}
	opts, err := parseViewOptions(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.GetView(c.Request.Context(), mode, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Statistics godoc
// @Summary Aggregate utilization and distribution statistics
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statistics [get]
func (h *SchedulingHandler) Statistics(c *gin.Context) {
	stats, hit, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetStoreVersion(c, stats.StoreVersion)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// SetLookups godoc
// @Summary Replace building and course type mappings
// @Tags Statistics
// @Accept json
// @Param payload body dto.LookupsRequest true "Lookups"
// @Success 204
// @Router /statistics/lookups [put]
func (h *SchedulingHandler) SetLookups(c *gin.Context) {
	var req dto.LookupsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lookups payload"))
		return
	}
	h.service.SetLookups(c.Request.Context(), req)
	response.NoContent(c)
}

// Conflicts godoc
// @Summary Report every overlapping pair in the store
// @Tags Conflicts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /conflicts [get]
func (h *SchedulingHandler) Conflicts(c *gin.Context) {
	report := h.service.ConflictReport(c.Request.Context())
	response.JSON(c, http.StatusOK, report, nil)
}

func parseViewOptions(c *gin.Context) (models.ViewOptions, error) {
	opts := models.ViewOptions{Filter: c.Query("q")}
	if raw := c.Query("days"); raw != "" {
		days, err := parseRange(raw, "days", 7)
		if err != nil {
			return opts, err
		}
		opts.Days = &days
	}
	if raw := c.Query("periods"); raw != "" {
		periods, err := parseRange(raw, "periods", models.PeriodGroups)
		if err != nil {
			return opts, err
		}
		periods.From--
		periods.To--
		opts.Periods = &periods
	}
	if raw := c.Query("weeks"); raw != "" {
		weeks, err := models.ParseWeeks(raw, models.MaxTermWeeks)
		if err != nil {
			return opts, err
		}
		opts.Weeks = weeks
	}
	return opts, nil
}

func parseRange(raw, field string, upper int) (models.Range, error) {
	lo, hi, found := strings.Cut(raw, "-")
	if !found {
		hi = lo
	}
	from, errFrom := strconv.Atoi(strings.TrimSpace(lo))
	to, errTo := strconv.Atoi(strings.TrimSpace(hi))
	if errFrom != nil || errTo != nil || from < 1 || from > to || to > upper {
		return models.Range{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a range within 1-%d", field, upper))
	}
	return models.Range{From: from, To: to}, nil
}
