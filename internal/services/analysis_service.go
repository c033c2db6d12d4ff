package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/period"
)

const categoryDetailRecent = 10

// analysisService computes spending reports. Calendar bucketing is done in
// Go, in loc, not in SQL.
type analysisService struct {
	db  *gorm.DB
	loc *time.Location
}

// NewAnalysisService creates a new AnalysisServicer bucketing dates in loc.
func NewAnalysisService(db *gorm.DB, loc *time.Location) AnalysisServicer {
	if loc == nil {
		loc = time.UTC
	}
	return &analysisService{db: db, loc: loc}
}

type categoryTotalRow struct {
	CategoryID string
	Total      decimal.Decimal
}

// GetCategorySpending breaks total spend down by category, largest first.
// Categories without spend are left out.
func (s *analysisService) GetCategorySpending(ctx context.Context) ([]CategorySpending, error) {
	var rows []categoryTotalRow
	err := s.db.WithContext(ctx).Model(&models.Expense{}).
		Select("category_id, SUM(amount) AS total").
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := s.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	grand := decimal.Zero
	for _, r := range rows {
		grand = grand.Add(r.Total)
	}
	if !grand.IsPositive() {
		return []CategorySpending{}, nil
	}

	result := make([]CategorySpending, 0, len(rows))
	for _, r := range rows {
		amount := r.Total.Round(2)
		if !amount.IsPositive() {
			continue
		}
		c := byID[r.CategoryID]
		pct, _ := r.Total.Div(grand).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		result = append(result, CategorySpending{
			CategoryID: r.CategoryID,
			Category:   c.Name,
			Color:      c.Color,
			Amount:     amount,
			Percentage: pct,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if cmp := result[i].Amount.Cmp(result[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return result[i].Category < result[j].Category
	})
	return result, nil
}

type datedAmount struct {
	Date   time.Time
	Amount decimal.Decimal
}

func (s *analysisService) amountsBetween(ctx context.Context, w period.Window, categoryID string) ([]datedAmount, error) {
	q := s.db.WithContext(ctx).Model(&models.Expense{}).
		Select("date, amount").
		Where("date >= ? AND date <= ?", w.Start.UTC(), w.End.UTC())
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}

	var rows []datedAmount
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// GetMonthlyTotals returns twelve buckets, January first, for year.
func (s *analysisService) GetMonthlyTotals(ctx context.Context, year int) ([]MonthlyTotal, error) {
	if year < 1 || year > 9999 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year is out of range")
	}

	w, err := period.Resolve(period.Year, time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc))
	if err != nil {
		return nil, err
	}
	rows, err := s.amountsBetween(ctx, w, "")
	if err != nil {
		return nil, err
	}

	totals := make([]MonthlyTotal, 12)
	for i := range totals {
		m := time.Month(i + 1)
		totals[i] = MonthlyTotal{Month: int(m), Name: m.String()[:3], Amount: decimal.Zero}
	}
	for _, r := range rows {
		i := int(r.Date.In(s.loc).Month()) - 1
		totals[i].Amount = totals[i].Amount.Add(r.Amount)
	}
	for i := range totals {
		totals[i].Amount = totals[i].Amount.Round(2)
	}
	return totals, nil
}

// GetCategoryDetail reports a category's all-time total, its spend in the
// month containing asOf with a per-day breakdown, and its latest expenses.
func (s *analysisService) GetCategoryDetail(ctx context.Context, categoryID string, asOf time.Time) (*CategoryDetail, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var total decimal.Decimal
	row := s.db.WithContext(ctx).Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("category_id = ?", categoryID).
		Row()
	if err := row.Scan(&total); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	month, err := period.Resolve(period.Month, asOf.In(s.loc))
	if err != nil {
		return nil, err
	}
	rows, err := s.amountsBetween(ctx, month, categoryID)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]decimal.Decimal)
	monthTotal := decimal.Zero
	for _, r := range rows {
		key := r.Date.In(s.loc).Format(time.DateOnly)
		byDay[key] = byDay[key].Add(r.Amount)
		monthTotal = monthTotal.Add(r.Amount)
	}
	daily := make([]DailyTotal, 0, len(byDay))
	for day, amount := range byDay {
		daily = append(daily, DailyTotal{Date: day, Amount: amount.Round(2)})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	var recent []models.Expense
	if err := s.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("date DESC, id DESC").
		Limit(categoryDetailRecent).
		Find(&recent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if recent == nil {
		recent = []models.Expense{}
	}

	return &CategoryDetail{
		Category:   category,
		Total:      total.Round(2),
		MonthTotal: monthTotal.Round(2),
		Daily:      daily,
		Recent:     recent,
	}, nil
}
