package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edanalytica/gradelens-backend/internal/dataset"
	"github.com/edanalytica/gradelens-backend/internal/model"
	"github.com/edanalytica/gradelens-backend/internal/response"
	"github.com/edanalytica/gradelens-backend/internal/service"
	"github.com/edanalytica/gradelens-backend/internal/validator"
)

// DashboardHandler serves the dashboard bootstrap and the recomputed views.
type DashboardHandler struct {
	datasetService   *service.DatasetService
	analyticsService *service.AnalyticsService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(
	datasetService *service.DatasetService,
	analyticsService *service.AnalyticsService,
) *DashboardHandler {
	return &DashboardHandler{
		datasetService:   datasetService,
		analyticsService: analyticsService,
	}
}

// GetMeta godoc
// GET /api/v1/dashboard/meta
// Returns the filter-widget bootstrap: selectable values, year span, dataset info.
func (h *DashboardHandler) GetMeta(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"meta": h.datasetService.Meta()})
}

// PostView godoc
// POST /api/v1/dashboard/view
// Recomputes the full dashboard bundle for the posted filter selection.
func (h *DashboardHandler) PostView(c *gin.Context) {
	var state model.FilterState
	if fields := validator.Bind(c, &state); fields != nil {
		// A "detail" entry means the body never parsed as JSON at all.
		if _, ok := fields["detail"]; ok {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.analyticsService.BuildView(&state)
	if err != nil {
		if errors.Is(err, dataset.ErrUnknownField) {
			response.Fail(c, http.StatusBadRequest, response.ErrUnknownField)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"view": view})
}

// GetRecords godoc
// GET /api/v1/dashboard/records
// Returns one page of the filtered records.
func (h *DashboardHandler) GetRecords(c *gin.Context) {
	var q model.FilterQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	state := q.State()
	records, pagination, warn, err := h.analyticsService.Records(&state, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if warn != "" {
		response.SuccessWithPageWarning(c, http.StatusOK, gin.H{"records": records}, pagination, warn)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"records": records}, pagination)
}

// GetStudents godoc
// GET /api/v1/dashboard/students
// Returns one page of per-student rollups plus any data-quality conflicts.
func (h *DashboardHandler) GetStudents(c *gin.Context) {
	var q model.FilterQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	state := q.State()
	students, pagination, warn, err := h.analyticsService.Students(&state, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	data := gin.H{"students": students.Students, "conflicts": students.Conflicts}
	if warn != "" {
		response.SuccessWithPageWarning(c, http.StatusOK, data, pagination, warn)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, data, pagination)
}
