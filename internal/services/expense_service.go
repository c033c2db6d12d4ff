package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/period"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 100
)

// maxAmount is the first value a NUMERIC(12,2) column cannot hold.
var maxAmount = decimal.New(1, 10)

// expenseService handles expense-related business logic.
type expenseService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// NewExpenseService creates a new ExpenseServicer. Calendar windows are
// resolved in loc.
func NewExpenseService(db *gorm.DB, loc *time.Location) ExpenseServicer {
	if loc == nil {
		loc = time.UTC
	}
	return &expenseService{db: db, loc: loc, now: time.Now}
}

// CreateExpense records a spend. A nil date means now.
func (s *expenseService) CreateExpense(
	ctx context.Context,
	amount decimal.Decimal,
	description string,
	categoryID string,
	date *time.Time,
) (*models.Expense, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if categoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if err := s.requireCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	when := s.now()
	if date != nil {
		when = *date
	}

	expense := &models.Expense{
		Amount:      amount,
		Description: strings.TrimSpace(description),
		CategoryID:  categoryID,
		Date:        when.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetExpenseByID(ctx, expense.ID)
}

// GetExpenseByID retrieves an expense with its category.
func (s *expenseService) GetExpenseByID(ctx context.Context, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.WithContext(ctx).Preload("Category").Where("id = ?", expenseID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// UpdateExpense applies the non-nil fields of update.
func (s *expenseService) UpdateExpense(ctx context.Context, expenseID string, update ExpenseUpdate) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if update.Amount != nil {
		if err := checkAmount(*update.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *update.Amount
	}
	if update.Description != nil {
		updates["description"] = strings.TrimSpace(*update.Description)
	}
	if update.CategoryID != nil && *update.CategoryID != expense.CategoryID {
		if err := s.requireCategory(ctx, *update.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *update.CategoryID
	}
	if update.Date != nil {
		updates["date"] = update.Date.UTC()
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Expense{}).Where("id = ?", expense.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetExpenseByID(ctx, expenseID)
}

// DeleteExpense removes an expense.
func (s *expenseService) DeleteExpense(ctx context.Context, expenseID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", expenseID).Delete(&models.Expense{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrExpenseNotFound
	}
	return nil
}

// ListRecentExpenses returns the newest expenses first. limit defaults to 5.
func (s *expenseService) ListRecentExpenses(ctx context.Context, limit int) ([]models.Expense, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	var expenses []models.Expense
	err := s.db.WithContext(ctx).Preload("Category").
		Order("date DESC, id DESC").
		Limit(limit).
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	return expenses, nil
}

// ListExpensesByCategory returns a page of one category's expenses, newest first.
func (s *expenseService) ListExpensesByCategory(ctx context.Context, categoryID string, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	if err := s.requireCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	base := s.db.WithContext(ctx).Model(&models.Expense{}).Where("category_id = ?", categoryID)
	result, err := pagination.Find[models.Expense](base, page, func(tx *gorm.DB) *gorm.DB {
		return tx.Preload("Category").Order("date DESC, id DESC")
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// FilterExpenses lists expenses in the calendar window around filter.Date,
// optionally narrowed to a category and a case-insensitive description match.
func (s *expenseService) FilterExpenses(ctx context.Context, filter ExpenseFilter) (*FilteredExpenses, error) {
	ref := filter.Date
	if ref.IsZero() {
		ref = s.now()
	}

	window, err := period.Resolve(filter.Period, ref.In(s.loc))
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Model(&models.Expense{}).
		Where("date >= ? AND date <= ?", window.Start.UTC(), window.End.UTC())
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where("LOWER(description) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(search))+"%")
	}

	var expenses []models.Expense
	if err := q.Preload("Category").Order("date DESC, id DESC").Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}

	return &FilteredExpenses{
		Transactions: expenses,
		Total:        total,
		StartDate:    window.Start,
		EndDate:      window.End,
	}, nil
}

// TotalBalance is the sum of every expense ever recorded.
func (s *expenseService) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := s.db.WithContext(ctx).Model(&models.Expense{}).Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total.Round(2), nil
}

func (s *expenseService) requireCategory(ctx context.Context, categoryID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// checkAmount accepts positive money values that fit a NUMERIC(12,2) column
// without rounding.
func checkAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	case !amount.Equal(amount.Round(2)):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot have more than 2 decimal places")
	case amount.GreaterThanOrEqual(maxAmount):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount is too large")
	}
	return nil
}

// escapeLike neutralizes LIKE wildcards in user input. '!' is the escape
// character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
