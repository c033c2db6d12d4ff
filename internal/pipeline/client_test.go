package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProcessDue_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != processDuePath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("as_of"); got != "2024-02-01" {
			t.Errorf("expected as_of 2024-02-01, got %q", got)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing or wrong API key header")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("expected a request id")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"as_of": "2024-02-01T00:00:00Z",
			"converted": []map[string]any{
				{
					"upcoming_expense": map[string]any{"id": "up-1"},
					"expense":          map[string]any{"id": "exp-1"},
					"next_occurrence":  map[string]any{"id": "up-2"},
				},
				{
					"upcoming_expense": map[string]any{"id": "up-3"},
					"expense":          map[string]any{"id": "exp-2"},
				},
			},
			"failed": []map[string]any{
				{"id": "up-4", "code": "CATEGORY_NOT_FOUND", "message": "Category not found"},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "test-key", server.Client())
	report, err := c.ProcessDue(context.Background(), "2024-02-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.AsOf.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected as_of %v", report.AsOf)
	}
	if len(report.Converted) != 2 {
		t.Fatalf("expected 2 conversions, got %d", len(report.Converted))
	}
	if report.Converted[0] != (ConvertedItem{UpcomingID: "up-1", ExpenseID: "exp-1", NextID: "up-2"}) {
		t.Errorf("first conversion mismatch: %+v", report.Converted[0])
	}
	if report.Converted[1].NextID != "" {
		t.Errorf("expected no next occurrence for one-time item, got %q", report.Converted[1].NextID)
	}
	if len(report.Failed) != 1 || report.Failed[0].Code != "CATEGORY_NOT_FOUND" {
		t.Errorf("unexpected failures: %+v", report.Failed)
	}
}

func TestProcessDue_NoAsOf(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query, got %q", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"as_of": "2024-02-01T00:00:00Z", "converted": []any{}, "failed": []any{}})
	}))
	defer server.Close()

	report, err := NewClient(server.URL, "k", server.Client()).ProcessDue(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Converted) != 0 || len(report.Failed) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestProcessDue_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "INVALID_API_KEY", "message": "Invalid or missing API key"},
		})
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "bad-key", server.Client()).ProcessDue(context.Background(), "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code != "INVALID_API_KEY" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestProcessDue_ServerErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k", server.Client()).ProcessDue(context.Background(), "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Code != "" {
		t.Fatalf("expected bare 502 APIError, got %v", err)
	}
}

func TestProcessDue_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, "k", server.Client()).ProcessDue(context.Background(), ""); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestProcessDue_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL, "k", server.Client()).ProcessDue(ctx, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
