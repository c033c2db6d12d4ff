package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
)

// DefaultCategories is the starter set created by SeedDefaults.
var DefaultCategories = []models.Category{
	{Name: "Groceries", Icon: "ShoppingCart", Color: "#8B5CF6"},
	{Name: "Transport", Icon: "Car", Color: "#3B82F6"},
	{Name: "Entertainment", Icon: "Film", Color: "#10B981"},
	{Name: "Rent & Utilities", Icon: "Home", Color: "#F97316"},
	{Name: "Food & Dining", Icon: "UtensilsCrossed", Color: "#EF4444"},
	{Name: "Shopping", Icon: "ShoppingBag", Color: "#EC4899"},
	{Name: "Health & Fitness", Icon: "Heart", Color: "#06B6D4"},
	{Name: "Education", Icon: "GraduationCap", Color: "#8B5CF6"},
	{Name: "Travel", Icon: "Plane", Color: "#14B8A6"},
	{Name: "Bills & EMI", Icon: "Receipt", Color: "#F59E0B"},
}

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(ctx context.Context, name, icon, color string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:  name,
		Icon:  icon,
		Color: color,
	}

	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// ListCategories retrieves a paginated list of categories ordered by name.
func (s *categoryService) ListCategories(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	base := s.db.WithContext(ctx).Model(&models.Category{})
	result, err := pagination.Find[models.Category](base, page, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("name ASC")
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(ctx context.Context, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category. Empty arguments leave the
// corresponding field unchanged.
func (s *categoryService) UpdateCategory(ctx context.Context, categoryID, name, icon, color string) (*models.Category, error) {
	category, err := s.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name = strings.TrimSpace(name); name != "" && name != category.Name {
		if err := s.ensureNameFree(ctx, name, categoryID); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if color != "" {
		updates["color"] = color
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory hard-deletes a category that nothing references.
func (s *categoryService) DeleteCategory(ctx context.Context, categoryID string) error {
	category, err := s.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)

	var expenseCount, upcomingCount int64
	if err := db.Model(&models.Expense{}).Where("category_id = ?", categoryID).Count(&expenseCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.Model(&models.UpcomingExpense{}).Where("category_id = ?", categoryID).Count(&upcomingCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if expenseCount > 0 || upcomingCount > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SeedDefaults inserts any DefaultCategories whose name is not taken yet and
// returns how many were created. Running it twice is harmless.
func (s *categoryService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range DefaultCategories {
			var count int64
			if err := tx.Model(&models.Category{}).Where("name = ?", def.Name).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			category := def
			if err := tx.Create(&category).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("seeded default categories", "created", created, "total", len(DefaultCategories))
	return created, nil
}

func (s *categoryService) ensureNameFree(ctx context.Context, name, exceptID string) error {
	q := s.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}
