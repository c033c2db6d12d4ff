package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/recurrence"
	"spendwise/internal/store"
)

// upcomingExpenseService manages the schedule of future payments. Status
// changes are not made here; see conversionService.
type upcomingExpenseService struct {
	db    *gorm.DB
	store store.Store
}

// NewUpcomingExpenseService creates a new UpcomingExpenseServicer.
func NewUpcomingExpenseService(db *gorm.DB) UpcomingExpenseServicer {
	return &upcomingExpenseService{db: db, store: store.New(db)}
}

// CreateUpcomingExpense schedules a new pending occurrence. Icon and color
// fall back to the category's when left empty.
func (s *upcomingExpenseService) CreateUpcomingExpense(ctx context.Context, input UpcomingExpenseInput) (*models.UpcomingExpense, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if err := checkAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.DueDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "due date is required")
	}
	frequency, err := recurrence.ParseFrequency(string(input.Frequency))
	if err != nil {
		return nil, err
	}
	if input.Interval < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "interval must be at least 1")
	}

	category, err := s.getCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	upcoming := &models.UpcomingExpense{
		Title:       title,
		Amount:      input.Amount,
		CategoryID:  category.ID,
		Icon:        firstNonEmpty(input.Icon, category.Icon),
		Color:       firstNonEmpty(input.Color, category.Color),
		DueDate:     input.DueDate,
		Frequency:   frequency,
		Interval:    recurrence.NormalizeInterval(frequency, input.Interval),
		AutoConvert: input.AutoConvert,
		Status:      models.UpcomingStatusPending,
		Version:     1,
	}
	if err := s.store.CreateUpcomingExpense(ctx, upcoming); err != nil {
		return nil, err
	}

	return s.GetUpcomingExpenseByID(ctx, upcoming.ID)
}

// GetUpcomingExpenseByID retrieves an upcoming expense with its category.
func (s *upcomingExpenseService) GetUpcomingExpenseByID(ctx context.Context, id string) (*models.UpcomingExpense, error) {
	var upcoming models.UpcomingExpense
	if err := s.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&upcoming).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUpcomingExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &upcoming, nil
}

// UpdateUpcomingExpense edits schedule fields of a pending occurrence. Paid
// and skipped rows are history and reject edits with INVALID_TRANSITION. The
// write is guarded by status and version; losing a race with a conversion
// yields CONFLICT.
func (s *upcomingExpenseService) UpdateUpcomingExpense(ctx context.Context, id string, update UpcomingExpenseUpdate) (*models.UpcomingExpense, error) {
	current, err := s.GetUpcomingExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.UpcomingStatusPending {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidTransition,
			"only pending upcoming expenses can be edited; reset it to pending first")
	}

	updates := make(map[string]interface{})
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title cannot be empty")
		}
		updates["title"] = title
	}
	if update.Amount != nil {
		if err := checkAmount(*update.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *update.Amount
	}
	if update.CategoryID != nil && *update.CategoryID != current.CategoryID {
		if _, err := s.getCategory(ctx, *update.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *update.CategoryID
	}
	if update.Icon != nil {
		updates["icon"] = *update.Icon
	}
	if update.Color != nil {
		updates["color"] = *update.Color
	}
	if update.DueDate != nil {
		updates["due_date"] = update.DueDate.UTC()
	}

	frequency := current.Frequency
	if update.Frequency != nil {
		frequency, err = recurrence.ParseFrequency(string(*update.Frequency))
		if err != nil {
			return nil, err
		}
		updates["frequency"] = frequency
	}
	interval := current.Interval
	if update.Interval != nil {
		if *update.Interval < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "interval must be at least 1")
		}
		interval = *update.Interval
	}
	if update.Frequency != nil || update.Interval != nil {
		updates["recurrence_interval"] = recurrence.NormalizeInterval(frequency, interval)
	}
	if update.AutoConvert != nil {
		updates["auto_convert"] = *update.AutoConvert
	}

	if len(updates) == 0 {
		return current, nil
	}
	updates["version"] = gorm.Expr("version + 1")

	res := s.db.WithContext(ctx).Model(&models.UpcomingExpense{}).
		Where("id = ? AND status = ? AND version = ?", id, models.UpcomingStatusPending, current.Version).
		Updates(updates)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrConflict, "upcoming expense was modified concurrently")
	}

	return s.GetUpcomingExpenseByID(ctx, id)
}

// DeleteUpcomingExpense removes a single occurrence. Other rows of the same
// series are unaffected.
func (s *upcomingExpenseService) DeleteUpcomingExpense(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.UpcomingExpense{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUpcomingExpenseNotFound
	}
	return nil
}

// ListUpcomingExpenses returns a page of upcoming expenses ordered by due date.
func (s *upcomingExpenseService) ListUpcomingExpenses(
	ctx context.Context,
	filter UpcomingExpenseFilter,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.UpcomingExpense], error) {
	base := s.db.WithContext(ctx).Model(&models.UpcomingExpense{})
	if filter.Frequency != nil {
		if !filter.Frequency.Valid() {
			return nil, apperrors.ErrInvalidFrequency
		}
		base = base.Where("frequency = ?", *filter.Frequency)
	}
	if filter.Status != nil {
		if !filter.Status.Valid() {
			return nil, apperrors.ErrInvalidStatus
		}
		base = base.Where("status = ?", *filter.Status)
	}

	result, err := pagination.Find[models.UpcomingExpense](base, page, func(tx *gorm.DB) *gorm.DB {
		return tx.Preload("Category").Order("due_date ASC, id ASC")
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// ListPendingInRange returns pending occurrences due within [from, to].
func (s *upcomingExpenseService) ListPendingInRange(ctx context.Context, from, to time.Time) ([]models.UpcomingExpense, error) {
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "range end must not be before its start")
	}
	items, err := s.store.ListPendingInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.UpcomingExpense{}
	}
	return items, nil
}

// Summarize computes the dashboard totals from a single read of pending rows.
func (s *upcomingExpenseService) Summarize(ctx context.Context, asOf time.Time) (*UpcomingSummary, error) {
	windows := recurrence.WindowsFor(asOf)

	items, err := s.store.ListPendingDueBy(ctx, windows.Horizon())
	if err != nil {
		return nil, err
	}

	return &UpcomingSummary{
		Summary: recurrence.Summarize(items, asOf),
		AsOf:    windows.Today,
	}, nil
}

func (s *upcomingExpenseService) getCategory(ctx context.Context, categoryID string) (*models.Category, error) {
	if categoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	var category models.Category
	if err := s.db.WithContext(ctx).Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
