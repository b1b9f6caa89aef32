package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"examguard/store"
	"examguard/types"
)

// ReportsClient is a thin HTTP client for the report history API.
type ReportsClient struct {
	baseURL string
	client  *http.Client
}

func NewReportsClient(baseURL string) *ReportsClient {
	return &ReportsClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ListReports fetches the newest summary rows, optionally for one quiz.
func (c *ReportsClient) ListReports(quizID string, limit int) ([]store.Record, error) {
	q := url.Values{}
	if quizID != "" {
		q.Set("quiz_id", quizID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	endpoint := c.baseURL + "/api/reports"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var body struct {
		Reports []store.Record `json:"reports"`
	}
	if err := c.getJSON(endpoint, &body); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return body.Reports, nil
}

// GetReport fetches one stored report by id.
func (c *ReportsClient) GetReport(id string) (*types.AnalysisReport, error) {
	var report types.AnalysisReport
	if err := c.getJSON(c.baseURL+"/api/reports/"+url.PathEscape(id), &report); err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return &report, nil
}

func (c *ReportsClient) getJSON(endpoint string, v any) error {
	resp, err := c.client.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
