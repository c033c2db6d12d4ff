// Package store is the persistence contract the conversion engine runs
// against, with a GORM implementation.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

// Store is the set of reads and writes needed to realize upcoming expenses.
// Every time bound is compared in UTC, which is how due dates are persisted.
type Store interface {
	GetUpcomingExpense(ctx context.Context, id string) (*models.UpcomingExpense, error)
	ListAutoConvertDue(ctx context.Context, dueBy time.Time) ([]models.UpcomingExpense, error)
	ListPendingInRange(ctx context.Context, from, to time.Time) ([]models.UpcomingExpense, error)
	ListPendingDueBy(ctx context.Context, dueBy time.Time) ([]models.UpcomingExpense, error)
	CountOverdue(ctx context.Context, before time.Time) (int64, error)
	CreateExpense(ctx context.Context, expense *models.Expense) error
	UpdateUpcomingExpenseStatus(ctx context.Context, id string, from models.UpcomingStatus, version int, to models.UpcomingStatus) error
	CreateUpcomingExpense(ctx context.Context, upcoming *models.UpcomingExpense) error
	CategoryExists(ctx context.Context, id string) (bool, error)

	// Transaction runs fn against a Store bound to a single database
	// transaction. A non-nil error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// New returns a Store backed by db.
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetUpcomingExpense(ctx context.Context, id string) (*models.UpcomingExpense, error) {
	var upcoming models.UpcomingExpense
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&upcoming).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUpcomingExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &upcoming, nil
}

// ListAutoConvertDue returns pending auto-convert rows due at or before dueBy,
// oldest first. Ties on due date are broken by id so sweeps are repeatable.
func (s *gormStore) ListAutoConvertDue(ctx context.Context, dueBy time.Time) ([]models.UpcomingExpense, error) {
	var items []models.UpcomingExpense
	err := s.db.WithContext(ctx).
		Where("status = ? AND auto_convert = ? AND due_date <= ?", models.UpcomingStatusPending, true, dueBy.UTC()).
		Order("due_date ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

func (s *gormStore) ListPendingInRange(ctx context.Context, from, to time.Time) ([]models.UpcomingExpense, error) {
	var items []models.UpcomingExpense
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("status = ? AND due_date >= ? AND due_date <= ?", models.UpcomingStatusPending, from.UTC(), to.UTC()).
		Order("due_date ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

func (s *gormStore) ListPendingDueBy(ctx context.Context, dueBy time.Time) ([]models.UpcomingExpense, error) {
	var items []models.UpcomingExpense
	err := s.db.WithContext(ctx).
		Where("status = ? AND due_date <= ?", models.UpcomingStatusPending, dueBy.UTC()).
		Order("due_date ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

func (s *gormStore) CountOverdue(ctx context.Context, before time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UpcomingExpense{}).
		Where("status = ? AND due_date < ?", models.UpcomingStatusPending, before.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

func (s *gormStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	expense.Date = expense.Date.UTC()
	if err := s.db.WithContext(ctx).Omit("Category").Create(expense).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// UpdateUpcomingExpenseStatus moves a row from one status to another only if
// it is still at the given version, bumping the version on success. A row
// that changed underneath the caller yields CONFLICT.
func (s *gormStore) UpdateUpcomingExpenseStatus(
	ctx context.Context,
	id string,
	from models.UpcomingStatus,
	version int,
	to models.UpcomingStatus,
) error {
	res := s.db.WithContext(ctx).Model(&models.UpcomingExpense{}).
		Where("id = ? AND status = ? AND version = ?", id, from, version).
		Updates(map[string]interface{}{
			"status":  to,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.WithMessage(apperrors.ErrConflict, "upcoming expense was modified concurrently")
	}
	return nil
}

func (s *gormStore) CreateUpcomingExpense(ctx context.Context, upcoming *models.UpcomingExpense) error {
	upcoming.DueDate = upcoming.DueDate.UTC()
	if err := s.db.WithContext(ctx).Omit("Category").Create(upcoming).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *gormStore) CategoryExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
