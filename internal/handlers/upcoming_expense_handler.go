package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/period"
	"spendwise/internal/services"
)

// UpcomingExpenseHandler handles scheduled expense requests, including
// conversion into realized expenses and status changes.
type UpcomingExpenseHandler struct {
	upcomingService   services.UpcomingExpenseServicer
	conversionService services.ConversionServicer
	auditService      services.AuditServicer
	loc               *time.Location
	now               func() time.Time
}

// NewUpcomingExpenseHandler creates a new UpcomingExpenseHandler.
func NewUpcomingExpenseHandler(
	upcomingService services.UpcomingExpenseServicer,
	conversionService services.ConversionServicer,
	auditService services.AuditServicer,
	loc *time.Location,
) *UpcomingExpenseHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &UpcomingExpenseHandler{
		upcomingService:   upcomingService,
		conversionService: conversionService,
		auditService:      auditService,
		loc:               loc,
		now:               time.Now,
	}
}

// CreateUpcomingExpenseRequest represents the request payload for scheduling an expense.
type CreateUpcomingExpenseRequest struct {
	Title       string           `json:"title" binding:"required,min=1,max=200"`
	Amount      decimal.Decimal  `json:"amount" swaggertype:"string" example:"9.99"`
	CategoryID  string           `json:"category_id" binding:"required,uuid"`
	Icon        string           `json:"icon" binding:"max=50"`
	Color       string           `json:"color" binding:"omitempty,hex_color"`
	DueDate     string           `json:"due_date" binding:"required" example:"2024-01-31"`
	Frequency   models.Frequency `json:"frequency" binding:"omitempty,frequency" example:"monthly"`
	Interval    int              `json:"interval" binding:"omitempty,min=1,max=120"`
	AutoConvert bool             `json:"auto_convert"`
}

// UpdateUpcomingExpenseRequest represents a partial update of a schedule.
// Omitted fields are left unchanged; status changes go through the
// paid, skip, and reset endpoints.
type UpdateUpcomingExpenseRequest struct {
	Title       *string           `json:"title" binding:"omitempty,min=1,max=200"`
	Amount      *decimal.Decimal  `json:"amount" swaggertype:"string"`
	CategoryID  *string           `json:"category_id" binding:"omitempty,uuid"`
	Icon        *string           `json:"icon" binding:"omitempty,max=50"`
	Color       *string           `json:"color" binding:"omitempty,hex_color"`
	DueDate     *string           `json:"due_date"`
	Frequency   *models.Frequency `json:"frequency" binding:"omitempty,frequency"`
	Interval    *int              `json:"interval" binding:"omitempty,min=1,max=120"`
	AutoConvert *bool             `json:"auto_convert"`
}

// CreateUpcomingExpense handles scheduling a new upcoming expense.
// @Summary     Create an upcoming expense
// @Tags        upcoming-expenses
// @Accept      json
// @Produce     json
// @Param       request body CreateUpcomingExpenseRequest true "Schedule details"
// @Success     201 {object} models.UpcomingExpense "Upcoming expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /upcoming-expenses [post]
func (h *UpcomingExpenseHandler) CreateUpcomingExpense(c *gin.Context) {
	var req CreateUpcomingExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	due, err := parseTimeField("due_date", &req.DueDate, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	frequency := req.Frequency
	if frequency == "" {
		frequency = models.FrequencyOneTime
	}

	upcoming, err := h.upcomingService.CreateUpcomingExpense(c.Request.Context(), services.UpcomingExpenseInput{
		Title:       req.Title,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		Icon:        req.Icon,
		Color:       req.Color,
		DueDate:     *due,
		Frequency:   frequency,
		Interval:    req.Interval,
		AutoConvert: req.AutoConvert,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "CREATE_UPCOMING_EXPENSE", "upcoming_expense", upcoming.ID, c.ClientIP(),
		map[string]interface{}{
			"title":        upcoming.Title,
			"amount":       upcoming.Amount.String(),
			"frequency":    upcoming.Frequency,
			"auto_convert": upcoming.AutoConvert,
		})

	c.JSON(http.StatusCreated, gin.H{"upcoming_expense": upcoming})
}

// ListUpcomingExpenses handles listing scheduled expenses.
// @Summary     List upcoming expenses
// @Tags        upcoming-expenses
// @Produce     json
// @Param       frequency query string false "one_time, weekly, monthly, or yearly"
// @Param       status    query string false "pending, paid, or skipped"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.UpcomingExpense] "Paginated upcoming expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /upcoming-expenses [get]
func (h *UpcomingExpenseHandler) ListUpcomingExpenses(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var filter services.UpcomingExpenseFilter
	if v := c.Query("frequency"); v != "" {
		f := models.Frequency(v)
		filter.Frequency = &f
	}
	if v := c.Query("status"); v != "" {
		s := models.UpcomingStatus(v)
		filter.Status = &s
	}

	result, err := h.upcomingService.ListUpcomingExpenses(c.Request.Context(), filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListPendingInRange handles the calendar view of pending items.
// @Summary     Pending upcoming expenses in a range
// @Description A bare date for to includes the whole day
// @Tags        upcoming-expenses
// @Produce     json
// @Param       from query string true "Range start (YYYY-MM-DD or RFC 3339)"
// @Param       to   query string true "Range end (YYYY-MM-DD or RFC 3339)"
// @Success     200 {array} models.UpcomingExpense "Pending upcoming expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /upcoming-expenses/range [get]
func (h *UpcomingExpenseHandler) ListPendingInRange(c *gin.Context) {
	rawFrom, rawTo := c.Query("from"), c.Query("to")
	if rawFrom == "" || rawTo == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from and to are required"))
		return
	}

	from, err := parseTimeParam(c, "from", time.Time{}, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseTimeParam(c, "to", time.Time{}, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if len(rawTo) == len(dateLayout) {
		to = period.EndOfDay(to)
	}

	items, err := h.upcomingService.ListPendingInRange(c.Request.Context(), from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"upcoming_expenses": items})
}

// GetSummary handles the dashboard totals of pending items.
// @Summary     Upcoming expense summary
// @Tags        upcoming-expenses
// @Produce     json
// @Param       as_of query string false "Reference day (default today)"
// @Success     200 {object} services.UpcomingSummary "Weekly, monthly, and yearly totals with overdue count"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /upcoming-expenses/summary [get]
func (h *UpcomingExpenseHandler) GetSummary(c *gin.Context) {
	asOf, err := parseTimeParam(c, "as_of", h.now().In(h.loc), h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.upcomingService.Summarize(c.Request.Context(), asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetUpcomingExpenseByID handles the retrieval of a single upcoming expense.
// @Summary     Get upcoming expense by ID
// @Tags        upcoming-expenses
// @Produce     json
// @Param       id path string true "Upcoming expense ID"
// @Success     200 {object} models.UpcomingExpense "Upcoming expense details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Upcoming expense not found"
// @Router      /upcoming-expenses/{id} [get]
func (h *UpcomingExpenseHandler) GetUpcomingExpenseByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	upcoming, err := h.upcomingService.GetUpcomingExpenseByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"upcoming_expense": upcoming})
}

// UpdateUpcomingExpense handles a partial update of a schedule.
// @Summary     Update upcoming expense
// @Tags        upcoming-expenses
// @Accept      json
// @Produce     json
// @Param       id      path string                       true "Upcoming expense ID"
// @Param       request body UpdateUpcomingExpenseRequest true "Fields to change"
// @Success     200 {object} models.UpcomingExpense "Updated upcoming expense"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Upcoming expense or category not found"
// @Failure     409 {object} ErrorResponse "Modified concurrently"
// @Router      /upcoming-expenses/{id} [put]
func (h *UpcomingExpenseHandler) UpdateUpcomingExpense(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateUpcomingExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	due, err := parseTimeField("due_date", req.DueDate, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	upcoming, err := h.upcomingService.UpdateUpcomingExpense(c.Request.Context(), id, services.UpcomingExpenseUpdate{
		Title:       req.Title,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		Icon:        req.Icon,
		Color:       req.Color,
		DueDate:     due,
		Frequency:   req.Frequency,
		Interval:    req.Interval,
		AutoConvert: req.AutoConvert,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "UPDATE_UPCOMING_EXPENSE", "upcoming_expense", id, c.ClientIP(),
		map[string]interface{}{"version": upcoming.Version})

	c.JSON(http.StatusOK, gin.H{"upcoming_expense": upcoming})
}

// DeleteUpcomingExpense handles deleting one occurrence.
// @Summary     Delete upcoming expense
// @Tags        upcoming-expenses
// @Produce     json
// @Param       id path string true "Upcoming expense ID"
// @Success     200 {object} map[string]string "Upcoming expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Upcoming expense not found"
// @Router      /upcoming-expenses/{id} [delete]
func (h *UpcomingExpenseHandler) DeleteUpcomingExpense(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.upcomingService.DeleteUpcomingExpense(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "DELETE_UPCOMING_EXPENSE", "upcoming_expense", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Upcoming expense deleted successfully"})
}

// ConvertToExpense handles realizing a pending occurrence as an expense.
// Recurring items get their next occurrence scheduled in the same step.
// @Summary     Convert to expense
// @Tags        upcoming-expenses
// @Produce     json
// @Param       id path string true "Upcoming expense ID"
// @Success     201 {object} services.RealizedConversion "Conversion result"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Upcoming expense or category not found"
// @Failure     409 {object} ErrorResponse "Not pending or converted concurrently"
// @Router      /upcoming-expenses/{id}/convert [post]
func (h *UpcomingExpenseHandler) ConvertToExpense(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.conversionService.ConvertToExpense(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{"expense_id": result.Expense.ID}
	if result.Next != nil {
		changes["next_occurrence_id"] = result.Next.ID
	}
	h.auditService.Log(c.Request.Context(), "CONVERT_UPCOMING_EXPENSE", "upcoming_expense", id, c.ClientIP(), changes)

	c.JSON(http.StatusCreated, result)
}

// MarkPaid handles marking a pending occurrence as paid without recording an expense.
// @Summary     Mark as paid
// @Tags        upcoming-expenses
// @Produce     json
// @Param       id path string true "Upcoming expense ID"
// @Success     200 {object} models.UpcomingExpense "Updated upcoming expense"
// @Failure     404 {object} ErrorResponse "Upcoming expense not found"
// @Failure     409 {object} ErrorResponse "Status change not allowed"
// @Router      /upcoming-expenses/{id}/paid [post]
func (h *UpcomingExpenseHandler) MarkPaid(c *gin.Context) {
	h.markStatus(c, models.UpcomingStatusPaid, "MARK_UPCOMING_EXPENSE_PAID")
}

// MarkSkipped handles skipping a pending occurrence.
// @Summary     Skip occurrence
// @Tags        upcoming-expenses
// @Produce     json
// @Param       id path string true "Upcoming expense ID"
// @Success     200 {object} models.UpcomingExpense "Updated upcoming expense"
// @Failure     404 {object} ErrorResponse "Upcoming expense not found"
// @Failure     409 {object} ErrorResponse "Status change not allowed"
// @Router      /upcoming-expenses/{id}/skip [post]
func (h *UpcomingExpenseHandler) MarkSkipped(c *gin.Context) {
	h.markStatus(c, models.UpcomingStatusSkipped, "SKIP_UPCOMING_EXPENSE")
}

// ResetToPending handles returning a paid or skipped occurrence to pending.
// @Summary     Reset to pending
// @Tags        upcoming-expenses
// @Produce     json
// @Param       id path string true "Upcoming expense ID"
// @Success     200 {object} models.UpcomingExpense "Updated upcoming expense"
// @Failure     404 {object} ErrorResponse "Upcoming expense not found"
// @Failure     409 {object} ErrorResponse "Status change not allowed"
// @Router      /upcoming-expenses/{id}/reset [post]
func (h *UpcomingExpenseHandler) ResetToPending(c *gin.Context) {
	h.markStatus(c, models.UpcomingStatusPending, "RESET_UPCOMING_EXPENSE")
}

func (h *UpcomingExpenseHandler) markStatus(c *gin.Context, status models.UpcomingStatus, action string) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	upcoming, err := h.conversionService.MarkStatus(c.Request.Context(), id, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), action, "upcoming_expense", id, c.ClientIP(),
		map[string]interface{}{"status": upcoming.Status, "version": upcoming.Version})

	c.JSON(http.StatusOK, gin.H{"upcoming_expense": upcoming})
}
