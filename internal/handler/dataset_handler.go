package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/edanalytica/gradelens-backend/internal/dataset"
	"github.com/edanalytica/gradelens-backend/internal/response"
	"github.com/edanalytica/gradelens-backend/internal/service"
)

// DatasetHandler handles dataset administration endpoints.
type DatasetHandler struct {
	datasetService *service.DatasetService
	log            zerolog.Logger
}

// NewDatasetHandler creates a new DatasetHandler.
func NewDatasetHandler(datasetService *service.DatasetService, log zerolog.Logger) *DatasetHandler {
	return &DatasetHandler{
		datasetService: datasetService,
		log:            log.With().Str("component", "dataset_handler").Logger(),
	}
}

// ReloadDataset godoc
// POST /api/v1/admin/dataset/reload
// Re-reads the configured source and swaps the served table. A dataset that
// fails schema validation is rejected and the previous table keeps serving.
func (h *DatasetHandler) ReloadDataset(c *gin.Context) {
	info, err := h.datasetService.Reload(c.Request.Context())
	if err != nil {
		var schemaErr *dataset.SchemaError
		switch {
		case errors.Is(err, service.ErrReloadInProgress):
			response.Fail(c, http.StatusConflict, response.ErrReloadInProgress)
		case errors.As(err, &schemaErr):
			fields := map[string]string{
				"column": schemaErr.Column,
				"reason": schemaErr.Reason,
			}
			if schemaErr.Line > 0 {
				fields["line"] = strconv.Itoa(schemaErr.Line)
			}
			response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrSchema, fields)
		default:
			h.log.Error().Err(err).Msg("Dataset reload failed")
			response.Fail(c, http.StatusServiceUnavailable, response.ErrDatasetUnavailable)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"dataset": info})
}
