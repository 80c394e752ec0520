package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/retail-vision/dashboard/pkg/logger"
)

// Client talks to the computer-vision analytics service. The service is an
// opaque HTTP collaborator; only the endpoints below are consumed.
type Client struct {
	baseURL    string
	streamPath string
	httpClient *http.Client
}

func NewClient(baseURL, streamPath string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		streamPath: streamPath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchKPIs returns the most recent limit KPI samples for the branch in
// chronological order. The upstream returns newest-first; callers always want
// oldest-first for charting, so the reversal happens here.
func (c *Client) FetchKPIs(ctx context.Context, branchID string, limit int) ([]KPISample, error) {
	url := fmt.Sprintf("%s/kpis/branch/%s?limit=%d", c.baseURL, branchID, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch kpis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kpis endpoint returned status %d", resp.StatusCode)
	}

	var samples []KPISample
	if err := json.NewDecoder(resp.Body).Decode(&samples); err != nil {
		return nil, fmt.Errorf("failed to parse kpis response: %w", err)
	}

	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}

	logger.Debug("KPIs fetched",
		zap.String("branch", branchID),
		zap.Int("samples", len(samples)),
	)

	return samples, nil
}

// FetchSituation returns the current situation and its recommendations for
// the branch.
func (c *Client) FetchSituation(ctx context.Context, branchID string) (*SituationReport, error) {
	url := fmt.Sprintf("%s/recommendations/%s", c.baseURL, branchID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch situation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recommendations endpoint returned status %d", resp.StatusCode)
	}

	var report SituationReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to parse recommendations response: %w", err)
	}

	logger.Debug("Situation fetched",
		zap.String("branch", branchID),
		zap.String("situation", report.Situation.Situation),
		zap.Int("recommendations", len(report.Recommendations)),
	)

	return &report, nil
}

// CreateTask submits an approved recommendation as an operational task. Only
// the HTTP status is consumed; the body is not inspected. No retry.
func (c *Client) CreateTask(ctx context.Context, task TaskRequest) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	url := fmt.Sprintf("%s/tasks/from-recommendation", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("task endpoint returned status %d", resp.StatusCode)
	}

	logger.Info("Task created from recommendation",
		zap.String("branch", task.BranchID),
		zap.String("action", task.Action),
		zap.String("priority", task.Priority),
	)

	return nil
}

// StreamURL is the absolute URL of the branch's live camera stream. The
// stream is proxied byte-for-byte; no processing happens client-side.
func (c *Client) StreamURL() string {
	return c.baseURL + c.streamPath
}
