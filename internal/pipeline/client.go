// Package pipeline triggers the API's machine-to-machine endpoints. It backs
// the sweeper command, which runs the auto-convert sweep on a schedule.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"spendwise/internal/uuid"
)

const processDuePath = "/api/v1/pipeline/upcoming-expenses/process-due"

// ConvertedItem identifies the rows written for one converted occurrence.
type ConvertedItem struct {
	UpcomingID string
	ExpenseID  string
	NextID     string
}

// FailedItem is an occurrence the sweep could not convert.
type FailedItem struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SweepReport is the API's answer to one process-due call.
type SweepReport struct {
	AsOf      time.Time
	Converted []ConvertedItem
	Failed    []FailedItem
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status %d", e.Status)
	}
	return fmt.Sprintf("unexpected status %d: %s: %s", e.Status, e.Code, e.Message)
}

// Client communicates with the spendwise pipeline API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new pipeline API client.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type sweepResponse struct {
	AsOf      time.Time `json:"as_of"`
	Converted []struct {
		Upcoming struct {
			ID string `json:"id"`
		} `json:"upcoming_expense"`
		Expense struct {
			ID string `json:"id"`
		} `json:"expense"`
		Next *struct {
			ID string `json:"id"`
		} `json:"next_occurrence"`
	} `json:"converted"`
	Failed []FailedItem `json:"failed"`
}

// ProcessDue asks the API to convert every auto-convert occurrence due on or
// before asOf, a calendar day or RFC 3339 timestamp interpreted in the
// server's time zone. An empty asOf lets the server use its own clock.
func (c *Client) ProcessDue(ctx context.Context, asOf string) (*SweepReport, error) {
	endpoint := c.baseURL + processDuePath
	if asOf != "" {
		endpoint += "?" + url.Values{"as_of": {asOf}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Request-ID", uuid.New())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("processing due expenses: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("processing due expenses: %w", decodeAPIError(resp))
	}

	var body sweepResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding sweep response: %w", err)
	}

	report := &SweepReport{AsOf: body.AsOf, Failed: body.Failed}
	for _, item := range body.Converted {
		converted := ConvertedItem{UpcomingID: item.Upcoming.ID, ExpenseID: item.Expense.ID}
		if item.Next != nil {
			converted.NextID = item.Next.ID
		}
		report.Converted = append(report.Converted, converted)
	}
	return report, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(raw, &body) == nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	return apiErr
}
