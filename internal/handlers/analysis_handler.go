package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/services"
)

// AnalysisHandler serves spending reports.
type AnalysisHandler struct {
	analysisService services.AnalysisServicer
	loc             *time.Location
	now             func() time.Time
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService services.AnalysisServicer, loc *time.Location) *AnalysisHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalysisHandler{analysisService: analysisService, loc: loc, now: time.Now}
}

// GetCategorySpending handles the all-time spend breakdown by category.
// @Summary     Spending by category
// @Description Categories with spend, largest first, with their share of the total
// @Tags        analysis
// @Produce     json
// @Success     200 {array} services.CategorySpending "Spending by category"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analysis/categories [get]
func (h *AnalysisHandler) GetCategorySpending(c *gin.Context) {
	spending, err := h.analysisService.GetCategorySpending(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": spending})
}

// GetMonthlyTotals handles the twelve monthly totals of a year.
// @Summary     Monthly totals
// @Tags        analysis
// @Produce     json
// @Param       year query int false "Calendar year (default current year)"
// @Success     200 {array} services.MonthlyTotal "Spend per month"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Router      /analysis/monthly [get]
func (h *AnalysisHandler) GetMonthlyTotals(c *gin.Context) {
	year := h.now().In(h.loc).Year()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be an integer"))
			return
		}
		year = y
	}

	totals, err := h.analysisService.GetMonthlyTotals(c.Request.Context(), year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "months": totals})
}
