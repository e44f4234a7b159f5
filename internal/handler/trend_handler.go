package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edanalytica/gradelens-backend/internal/dataset"
	"github.com/edanalytica/gradelens-backend/internal/model"
	"github.com/edanalytica/gradelens-backend/internal/response"
	"github.com/edanalytica/gradelens-backend/internal/service"
	"github.com/edanalytica/gradelens-backend/internal/validator"
)

// TrendHandler serves the trend and ranking views.
type TrendHandler struct {
	analyticsService *service.AnalyticsService
}

// NewTrendHandler creates a new TrendHandler.
func NewTrendHandler(analyticsService *service.AnalyticsService) *TrendHandler {
	return &TrendHandler{analyticsService: analyticsService}
}

// GetTrend godoc
// GET /api/v1/dashboard/trend
// Returns the overall per-year grade trend for the filter selection.
func (h *TrendHandler) GetTrend(c *gin.Context) {
	var q model.FilterQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state := q.State()
	trend, warn, err := h.analyticsService.Trend(&state)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if warn != "" {
		var data interface{}
		if trend != nil {
			data = gin.H{"trend": trend}
		}
		response.SuccessWithWarning(c, http.StatusOK, data, warn)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trend": trend})
}

// GetTrendBy godoc
// GET /api/v1/dashboard/trend/by?field=department|major_type|major|gender|covid_period
// Returns one per-year trend series per value of the grouping field.
func (h *TrendHandler) GetTrendBy(c *gin.Context) {
	var q model.FilterQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	field := c.DefaultQuery("field", "department")

	state := q.State()
	trends, warn, err := h.analyticsService.TrendBy(&state, field)
	if err != nil {
		if errors.Is(err, dataset.ErrUnknownField) {
			response.Fail(c, http.StatusBadRequest, response.ErrUnknownField)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if warn != "" {
		var data interface{}
		if trends != nil {
			data = gin.H{"trends": trends}
		}
		response.SuccessWithWarning(c, http.StatusOK, data, warn)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trends": trends})
}

// GetTrendDepartments godoc
// GET /api/v1/dashboard/trend/departments?departments=a,b
// Returns side-by-side trends for the selected departments. An empty or
// unmatched selection yields the placeholder warning.
func (h *TrendHandler) GetTrendDepartments(c *gin.Context) {
	var q model.FilterQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	departments := model.SplitList(c.Query("departments"))

	state := q.State()
	// The departments param is the comparison selection itself, not a filter.
	state.Departments = nil

	trends, warn, err := h.analyticsService.DepartmentComparison(&state, departments)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if warn != "" {
		var data interface{}
		if trends != nil {
			data = gin.H{"trends": trends}
		}
		response.SuccessWithWarning(c, http.StatusOK, data, warn)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trends": trends})
}

// GetRankings godoc
// GET /api/v1/dashboard/rankings?field=department|major|major_type|gender
// Returns the grouping field's values ranked by mean grade.
func (h *TrendHandler) GetRankings(c *gin.Context) {
	var q model.FilterQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	field := c.DefaultQuery("field", "department")

	state := q.State()
	rankings, warn, err := h.analyticsService.Rankings(&state, field)
	if err != nil {
		if errors.Is(err, dataset.ErrUnknownField) {
			response.Fail(c, http.StatusBadRequest, response.ErrUnknownField)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if warn != "" {
		var data interface{}
		if rankings != nil {
			data = gin.H{"rankings": rankings}
		}
		response.SuccessWithWarning(c, http.StatusOK, data, warn)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rankings": rankings})
}
