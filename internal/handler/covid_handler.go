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

// CovidHandler serves the pandemic comparison and outlier views.
type CovidHandler struct {
	analyticsService *service.AnalyticsService
}

// NewCovidHandler creates a new CovidHandler.
func NewCovidHandler(analyticsService *service.AnalyticsService) *CovidHandler {
	return &CovidHandler{analyticsService: analyticsService}
}

// GetCovid godoc
// GET /api/v1/dashboard/covid
// Compares grades before and after the pandemic cutoff for the filter selection.
func (h *CovidHandler) GetCovid(c *gin.Context) {
	var q model.FilterQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state := q.State()
	covid, warn, err := h.analyticsService.Covid(&state)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if warn != "" {
		var data interface{}
		if covid != nil {
			data = gin.H{"covid": covid}
		}
		response.SuccessWithWarning(c, http.StatusOK, data, warn)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"covid": covid})
}

// GetOutliers godoc
// GET /api/v1/dashboard/outliers?period=pre|post|all
// Lists the rows outside the Tukey fences of the requested partition.
func (h *CovidHandler) GetOutliers(c *gin.Context) {
	var q model.FilterQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	period := c.DefaultQuery("period", "all")

	state := q.State()
	report, warn, err := h.analyticsService.Outliers(&state, period)
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
		if report != nil {
			data = gin.H{"outliers": report}
		}
		response.SuccessWithWarning(c, http.StatusOK, data, warn)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"outliers": report})
}
