package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/services"
)

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	r.POST("/categories", handler.CreateCategory)
	r.GET("/categories", handler.ListCategories)
	r.GET("/categories/:id", handler.GetCategoryByID)
	r.PUT("/categories/:id", handler.UpdateCategory)
	r.DELETE("/categories/:id", handler.DeleteCategory)
	r.GET("/categories/:id/expenses", handler.GetCategoryExpenses)
	r.GET("/categories/:id/detail", handler.GetCategoryDetail)
	return r
}

func newCategoryHandler(cat *mockCategoryService, audit *mockAuditService) *CategoryHandler {
	return NewCategoryHandler(cat, &mockExpenseService{}, &mockAnalysisService{}, audit, time.UTC)
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201 and audits on success", func(t *testing.T) {
		audit := &mockAuditService{}
		catSvc := &mockCategoryService{
			createCategoryFn: func(_ context.Context, name, icon, color string) (*models.Category, error) {
				return &models.Category{Base: models.Base{ID: testCategoryID}, Name: name, Icon: icon, Color: color}, nil
			},
		}
		r := setupCategoryRouter(newCategoryHandler(catSvc, audit))

		rec := doRequest(r, http.MethodPost, "/categories", `{"name":"Food","icon":"Utensils","color":"#FF5733"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		cat := parseJSON(t, rec)["category"].(map[string]interface{})
		if cat["name"] != "Food" {
			t.Errorf("expected Food, got %v", cat["name"])
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "CREATE_CATEGORY" {
			t.Errorf("expected CREATE_CATEGORY audit, got %v", got)
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupCategoryRouter(newCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/categories", `{"icon":"Tag"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on invalid color format", func(t *testing.T) {
		r := setupCategoryRouter(newCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/categories", `{"name":"Food","color":"red"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate name", func(t *testing.T) {
		audit := &mockAuditService{}
		catSvc := &mockCategoryService{
			createCategoryFn: func(context.Context, string, string, string) (*models.Category, error) {
				return nil, apperrors.ErrDuplicateCategory
			},
		}
		r := setupCategoryRouter(newCategoryHandler(catSvc, audit))

		rec := doRequest(r, http.MethodPost, "/categories", `{"name":"Food"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_CATEGORY")
		if len(audit.actions()) != 0 {
			t.Error("expected no audit entry on failure")
		}
	})
}

func TestCategoryHandler_ListCategories(t *testing.T) {
	t.Run("passes pagination through", func(t *testing.T) {
		var gotPage pagination.PageRequest
		catSvc := &mockCategoryService{
			listCategoriesFn: func(_ context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
				gotPage = page
				resp := pagination.NewPageResponse([]models.Category{{Name: "Bills"}}, 2, 5, 6)
				return &resp, nil
			},
		}
		r := setupCategoryRouter(newCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, http.MethodGet, "/categories?page=2&page_size=5", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("unexpected page request %+v", gotPage)
		}
		if total := parseJSON(t, rec)["total_pages"]; total != float64(2) {
			t.Errorf("expected 2 total pages, got %v", total)
		}
	})

	t.Run("returns 400 on oversized page", func(t *testing.T) {
		r := setupCategoryRouter(newCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodGet, "/categories?page_size=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCategoryHandler_GetCategoryByID(t *testing.T) {
	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupCategoryRouter(newCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodGet, "/categories/42", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		catSvc := &mockCategoryService{
			getCategoryByIDFn: func(context.Context, string) (*models.Category, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		r := setupCategoryRouter(newCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, http.MethodGet, "/categories/"+testCategoryID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")
	})
}

func TestCategoryHandler_UpdateCategory(t *testing.T) {
	var gotName string
	audit := &mockAuditService{}
	catSvc := &mockCategoryService{
		updateCategoryFn: func(_ context.Context, id, name, _, _ string) (*models.Category, error) {
			gotName = name
			return &models.Category{Base: models.Base{ID: id}, Name: name}, nil
		},
	}
	r := setupCategoryRouter(newCategoryHandler(catSvc, audit))

	rec := doRequest(r, http.MethodPut, "/categories/"+testCategoryID, `{"name":"Groceries"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotName != "Groceries" {
		t.Errorf("expected Groceries, got %q", gotName)
	}
	if got := audit.actions(); len(got) != 1 || got[0] != "UPDATE_CATEGORY" {
		t.Errorf("expected UPDATE_CATEGORY audit, got %v", got)
	}
}

func TestCategoryHandler_DeleteCategory(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupCategoryRouter(newCategoryHandler(&mockCategoryService{}, audit))

		rec := doRequest(r, http.MethodDelete, "/categories/"+testCategoryID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "DELETE_CATEGORY" {
			t.Errorf("expected DELETE_CATEGORY audit, got %v", got)
		}
	})

	t.Run("returns 409 when in use", func(t *testing.T) {
		catSvc := &mockCategoryService{
			deleteCategoryFn: func(context.Context, string) error { return apperrors.ErrCategoryInUse },
		}
		r := setupCategoryRouter(newCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, http.MethodDelete, "/categories/"+testCategoryID, "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_IN_USE")
	})
}

func TestCategoryHandler_GetCategoryExpenses(t *testing.T) {
	var gotID string
	expSvc := &mockExpenseService{
		listByCategoryFn: func(_ context.Context, categoryID string, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
			gotID = categoryID
			resp := pagination.NewPageResponse([]models.Expense{}, 1, 20, 0)
			return &resp, nil
		},
	}
	h := NewCategoryHandler(&mockCategoryService{}, expSvc, &mockAnalysisService{}, &mockAuditService{}, time.UTC)
	r := setupCategoryRouter(h)

	rec := doRequest(r, http.MethodGet, "/categories/"+testCategoryID+"/expenses", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != testCategoryID {
		t.Errorf("expected category %s, got %s", testCategoryID, gotID)
	}
}

func TestCategoryHandler_GetCategoryDetail(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kuala_Lumpur")
	if err != nil {
		t.Skipf("time zone database unavailable: %v", err)
	}

	t.Run("defaults as_of to now in the configured zone", func(t *testing.T) {
		var gotAsOf time.Time
		analysis := &mockAnalysisService{
			detailFn: func(_ context.Context, _ string, asOf time.Time) (*services.CategoryDetail, error) {
				gotAsOf = asOf
				return &services.CategoryDetail{}, nil
			},
		}
		h := NewCategoryHandler(&mockCategoryService{}, &mockExpenseService{}, analysis, &mockAuditService{}, loc)
		h.now = fixedNow(time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC))
		r := setupCategoryRouter(h)

		rec := doRequest(r, http.MethodGet, "/categories/"+testCategoryID+"/detail", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotAsOf.Location() != loc || gotAsOf.Month() != time.April || gotAsOf.Day() != 1 {
			t.Errorf("expected April 1 in %s, got %v", loc, gotAsOf)
		}
	})

	t.Run("parses as_of date", func(t *testing.T) {
		var gotAsOf time.Time
		analysis := &mockAnalysisService{
			detailFn: func(_ context.Context, _ string, asOf time.Time) (*services.CategoryDetail, error) {
				gotAsOf = asOf
				return &services.CategoryDetail{}, nil
			},
		}
		h := NewCategoryHandler(&mockCategoryService{}, &mockExpenseService{}, analysis, &mockAuditService{}, loc)
		r := setupCategoryRouter(h)

		rec := doRequest(r, http.MethodGet, "/categories/"+testCategoryID+"/detail?as_of=2024-02-10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		want := time.Date(2024, 2, 10, 0, 0, 0, 0, loc)
		if !gotAsOf.Equal(want) {
			t.Errorf("expected %v, got %v", want, gotAsOf)
		}
	})

	t.Run("returns 400 on bad as_of", func(t *testing.T) {
		r := setupCategoryRouter(newCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodGet, "/categories/"+testCategoryID+"/detail?as_of=yesterday", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
