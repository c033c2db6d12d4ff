package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/services"
	"spendwise/internal/validator"
)

const (
	testCategoryID = "0192a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"
	testExpenseID  = "0192a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5c"
	testUpcomingID = "0192a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5d"
)

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn  func(ctx context.Context, name, icon, color string) (*models.Category, error)
	listCategoriesFn  func(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	getCategoryByIDFn func(ctx context.Context, id string) (*models.Category, error)
	updateCategoryFn  func(ctx context.Context, id, name, icon, color string) (*models.Category, error)
	deleteCategoryFn  func(ctx context.Context, id string) error
}

func (m *mockCategoryService) CreateCategory(ctx context.Context, name, icon, color string) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(ctx, name, icon, color)
	}
	return &models.Category{Base: models.Base{ID: testCategoryID}, Name: name}, nil
}

func (m *mockCategoryService) ListCategories(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(ctx, page)
	}
	resp := pagination.NewPageResponse([]models.Category{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(ctx, id)
	}
	return &models.Category{Base: models.Base{ID: id}}, nil
}

func (m *mockCategoryService) UpdateCategory(ctx context.Context, id, name, icon, color string) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(ctx, id, name, icon, color)
	}
	return &models.Category{Base: models.Base{ID: id}, Name: name}, nil
}

func (m *mockCategoryService) DeleteCategory(ctx context.Context, id string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(ctx, id)
	}
	return nil
}

func (m *mockCategoryService) SeedDefaults(context.Context) (int, error) { return 0, nil }

var _ services.CategoryServicer = (*mockCategoryService)(nil)

// --- mock expense service ---

type mockExpenseService struct {
	createExpenseFn  func(ctx context.Context, amount decimal.Decimal, description, categoryID string, date *time.Time) (*models.Expense, error)
	getExpenseByIDFn func(ctx context.Context, id string) (*models.Expense, error)
	updateExpenseFn  func(ctx context.Context, id string, update services.ExpenseUpdate) (*models.Expense, error)
	deleteExpenseFn  func(ctx context.Context, id string) error
	listRecentFn     func(ctx context.Context, limit int) ([]models.Expense, error)
	listByCategoryFn func(ctx context.Context, categoryID string, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	filterFn         func(ctx context.Context, filter services.ExpenseFilter) (*services.FilteredExpenses, error)
	totalFn          func(ctx context.Context) (decimal.Decimal, error)
}

func (m *mockExpenseService) CreateExpense(ctx context.Context, amount decimal.Decimal, description, categoryID string, date *time.Time) (*models.Expense, error) {
	if m.createExpenseFn != nil {
		return m.createExpenseFn(ctx, amount, description, categoryID, date)
	}
	return &models.Expense{Base: models.Base{ID: testExpenseID}, Amount: amount, CategoryID: categoryID}, nil
}

func (m *mockExpenseService) GetExpenseByID(ctx context.Context, id string) (*models.Expense, error) {
	if m.getExpenseByIDFn != nil {
		return m.getExpenseByIDFn(ctx, id)
	}
	return &models.Expense{Base: models.Base{ID: id}}, nil
}

func (m *mockExpenseService) UpdateExpense(ctx context.Context, id string, update services.ExpenseUpdate) (*models.Expense, error) {
	if m.updateExpenseFn != nil {
		return m.updateExpenseFn(ctx, id, update)
	}
	return &models.Expense{Base: models.Base{ID: id}}, nil
}

func (m *mockExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(ctx, id)
	}
	return nil
}

func (m *mockExpenseService) ListRecentExpenses(ctx context.Context, limit int) ([]models.Expense, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return []models.Expense{}, nil
}

func (m *mockExpenseService) ListExpensesByCategory(ctx context.Context, categoryID string, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	if m.listByCategoryFn != nil {
		return m.listByCategoryFn(ctx, categoryID, page)
	}
	resp := pagination.NewPageResponse([]models.Expense{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockExpenseService) FilterExpenses(ctx context.Context, filter services.ExpenseFilter) (*services.FilteredExpenses, error) {
	if m.filterFn != nil {
		return m.filterFn(ctx, filter)
	}
	return &services.FilteredExpenses{Transactions: []models.Expense{}}, nil
}

func (m *mockExpenseService) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	if m.totalFn != nil {
		return m.totalFn(ctx)
	}
	return decimal.Zero, nil
}

var _ services.ExpenseServicer = (*mockExpenseService)(nil)

// --- mock upcoming expense service ---

type mockUpcomingService struct {
	createFn    func(ctx context.Context, input services.UpcomingExpenseInput) (*models.UpcomingExpense, error)
	getFn       func(ctx context.Context, id string) (*models.UpcomingExpense, error)
	updateFn    func(ctx context.Context, id string, update services.UpcomingExpenseUpdate) (*models.UpcomingExpense, error)
	deleteFn    func(ctx context.Context, id string) error
	listFn      func(ctx context.Context, filter services.UpcomingExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.UpcomingExpense], error)
	rangeFn     func(ctx context.Context, from, to time.Time) ([]models.UpcomingExpense, error)
	summarizeFn func(ctx context.Context, asOf time.Time) (*services.UpcomingSummary, error)
}

func (m *mockUpcomingService) CreateUpcomingExpense(ctx context.Context, input services.UpcomingExpenseInput) (*models.UpcomingExpense, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return &models.UpcomingExpense{Base: models.Base{ID: testUpcomingID}, Title: input.Title}, nil
}

func (m *mockUpcomingService) GetUpcomingExpenseByID(ctx context.Context, id string) (*models.UpcomingExpense, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &models.UpcomingExpense{Base: models.Base{ID: id}}, nil
}

func (m *mockUpcomingService) UpdateUpcomingExpense(ctx context.Context, id string, update services.UpcomingExpenseUpdate) (*models.UpcomingExpense, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, update)
	}
	return &models.UpcomingExpense{Base: models.Base{ID: id}, Version: 2}, nil
}

func (m *mockUpcomingService) DeleteUpcomingExpense(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockUpcomingService) ListUpcomingExpenses(ctx context.Context, filter services.UpcomingExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.UpcomingExpense], error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter, page)
	}
	resp := pagination.NewPageResponse([]models.UpcomingExpense{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockUpcomingService) ListPendingInRange(ctx context.Context, from, to time.Time) ([]models.UpcomingExpense, error) {
	if m.rangeFn != nil {
		return m.rangeFn(ctx, from, to)
	}
	return []models.UpcomingExpense{}, nil
}

func (m *mockUpcomingService) Summarize(ctx context.Context, asOf time.Time) (*services.UpcomingSummary, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, asOf)
	}
	return &services.UpcomingSummary{AsOf: asOf}, nil
}

var _ services.UpcomingExpenseServicer = (*mockUpcomingService)(nil)

// --- mock conversion service ---

type mockConversionService struct {
	convertFn    func(ctx context.Context, id string) (*services.RealizedConversion, error)
	processDueFn func(ctx context.Context, asOf time.Time) (*services.SweepResult, error)
	markStatusFn func(ctx context.Context, id string, status models.UpcomingStatus) (*models.UpcomingExpense, error)
}

func (m *mockConversionService) ConvertToExpense(ctx context.Context, id string) (*services.RealizedConversion, error) {
	if m.convertFn != nil {
		return m.convertFn(ctx, id)
	}
	return &services.RealizedConversion{
		Upcoming: &models.UpcomingExpense{Base: models.Base{ID: id}, Status: models.UpcomingStatusPaid},
		Expense:  &models.Expense{Base: models.Base{ID: testExpenseID}},
	}, nil
}

func (m *mockConversionService) ProcessAutoConvertDue(ctx context.Context, asOf time.Time) (*services.SweepResult, error) {
	if m.processDueFn != nil {
		return m.processDueFn(ctx, asOf)
	}
	return &services.SweepResult{AsOf: asOf, Converted: []services.RealizedConversion{}, Failed: []services.SweepFailure{}}, nil
}

func (m *mockConversionService) MarkStatus(ctx context.Context, id string, status models.UpcomingStatus) (*models.UpcomingExpense, error) {
	if m.markStatusFn != nil {
		return m.markStatusFn(ctx, id, status)
	}
	return &models.UpcomingExpense{Base: models.Base{ID: id}, Status: status, Version: 2}, nil
}

var _ services.ConversionServicer = (*mockConversionService)(nil)

// --- mock analysis service ---

type mockAnalysisService struct {
	spendingFn func(ctx context.Context) ([]services.CategorySpending, error)
	monthlyFn  func(ctx context.Context, year int) ([]services.MonthlyTotal, error)
	detailFn   func(ctx context.Context, categoryID string, asOf time.Time) (*services.CategoryDetail, error)
}

func (m *mockAnalysisService) GetCategorySpending(ctx context.Context) ([]services.CategorySpending, error) {
	if m.spendingFn != nil {
		return m.spendingFn(ctx)
	}
	return []services.CategorySpending{}, nil
}

func (m *mockAnalysisService) GetMonthlyTotals(ctx context.Context, year int) ([]services.MonthlyTotal, error) {
	if m.monthlyFn != nil {
		return m.monthlyFn(ctx, year)
	}
	return []services.MonthlyTotal{}, nil
}

func (m *mockAnalysisService) GetCategoryDetail(ctx context.Context, categoryID string, asOf time.Time) (*services.CategoryDetail, error) {
	if m.detailFn != nil {
		return m.detailFn(ctx, categoryID, asOf)
	}
	return &services.CategoryDetail{}, nil
}

var _ services.AnalysisServicer = (*mockAnalysisService)(nil)

// --- mock audit service ---

type auditEntry struct {
	Action     string
	Resource   string
	ResourceID string
	Changes    map[string]interface{}
}

type mockAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAuditService) Log(_ context.Context, action, resourceType, resourceID, _ string, changes map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{Action: action, Resource: resourceType, ResourceID: resourceID, Changes: changes})
}

func (m *mockAuditService) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
