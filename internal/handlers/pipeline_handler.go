package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spendwise/internal/services"
)

// PipelineHandler serves machine-to-machine endpoints guarded by an API key.
type PipelineHandler struct {
	conversionService services.ConversionServicer
	loc               *time.Location
	now               func() time.Time
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(conversionService services.ConversionServicer, loc *time.Location) *PipelineHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PipelineHandler{conversionService: conversionService, loc: loc, now: time.Now}
}

// ProcessDueUpcomingExpenses handles one auto-convert sweep.
// @Summary     Process due upcoming expenses
// @Description Convert every pending auto-convert item due on or before as_of (pipeline endpoint)
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header   string              true  "Pipeline API key"
// @Param       as_of     query    string              false "Sweep day (default today)"
// @Success     200       {object} services.SweepResult      "Converted and failed items"
// @Failure     400       {object} ErrorResponse             "Invalid input"
// @Failure     401       {object} ErrorResponse             "Invalid API key"
// @Failure     503       {object} ErrorResponse             "Pipeline not configured"
// @Router      /pipeline/upcoming-expenses/process-due [post]
func (h *PipelineHandler) ProcessDueUpcomingExpenses(c *gin.Context) {
	asOf, err := parseTimeParam(c, "as_of", h.now().In(h.loc), h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.conversionService.ProcessAutoConvertDue(c.Request.Context(), asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
