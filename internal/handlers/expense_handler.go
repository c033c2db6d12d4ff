package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/period"
	"spendwise/internal/services"
	"spendwise/internal/uuid"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
	loc            *time.Location
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, auditService services.AuditServicer, loc *time.Location) *ExpenseHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ExpenseHandler{expenseService: expenseService, auditService: auditService, loc: loc}
}

// CreateExpenseRequest represents the request payload for creating an expense.
type CreateExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	Description string          `json:"description" binding:"max=500"`
	CategoryID  string          `json:"category_id" binding:"required,uuid"`
	Date        *string         `json:"date" example:"2024-03-15"`
}

// UpdateExpenseRequest represents the request payload for updating an expense.
// Omitted fields are left unchanged.
type UpdateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	CategoryID  *string          `json:"category_id" binding:"omitempty,uuid"`
	Date        *string          `json:"date" example:"2024-03-15"`
}

// CreateExpense handles recording a new expense.
// @Summary     Create an expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date, err := parseTimeField("date", req.Date, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), req.Amount, req.Description, req.CategoryID, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"amount": expense.Amount.String(), "category_id": expense.CategoryID})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// FilterExpenses handles listing expenses inside a calendar window.
// @Summary     Filter expenses
// @Description List expenses within the day, week, month, or year containing date
// @Tags        expenses
// @Produce     json
// @Param       period      query string false "day, week, month, or year (default month)"
// @Param       date        query string false "Reference day (default today)"
// @Param       category_id query string false "Category ID"
// @Param       search      query string false "Case-insensitive description search"
// @Success     200 {object} services.FilteredExpenses "Expenses and window total"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [get]
func (h *ExpenseHandler) FilterExpenses(c *gin.Context) {
	kind := period.Kind(c.DefaultQuery("period", string(period.Month)))
	if !kind.Valid() {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be day, week, month, or year"))
		return
	}

	ref, err := parseTimeParam(c, "date", time.Time{}, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID := c.Query("category_id")
	if categoryID != "" && !uuid.IsValid(categoryID) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid category_id"))
		return
	}

	result, err := h.expenseService.FilterExpenses(c.Request.Context(), services.ExpenseFilter{
		Period:     kind,
		Date:       ref,
		CategoryID: categoryID,
		Search:     c.Query("search"),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListRecentExpenses handles listing the newest expenses.
// @Summary     Recent expenses
// @Tags        expenses
// @Produce     json
// @Param       limit query int false "Number of expenses (default 5, max 100)"
// @Success     200 {array} models.Expense "Recent expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /expenses/recent [get]
func (h *ExpenseHandler) ListRecentExpenses(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	expenses, err := h.expenseService.ListRecentExpenses(c.Request.Context(), limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// GetTotalBalance handles the all-time spend total.
// @Summary     Total spent
// @Tags        expenses
// @Produce     json
// @Success     200 {object} map[string]string "Total"
// @Router      /expenses/total [get]
func (h *ExpenseHandler) GetTotalBalance(c *gin.Context) {
	total, err := h.expenseService.TotalBalance(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": total})
}

// GetExpenseByID handles the retrieval of a single expense.
// @Summary     Get expense by ID
// @Tags        expenses
// @Produce     json
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Expense details"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpenseByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense handles a partial update of an expense.
// @Summary     Update expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to change"
// @Success     200 {object} models.Expense "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Expense or category not found"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date, err := parseTimeField("date", req.Date, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), id, services.ExpenseUpdate{
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Date:        date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "UPDATE_EXPENSE", "expense", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense handles deleting an expense.
// @Summary     Delete expense
// @Tags        expenses
// @Produce     json
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]string "Expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "DELETE_EXPENSE", "expense", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}
