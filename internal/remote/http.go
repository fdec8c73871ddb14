package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	triggerPath = "/groups/{groupId}/sources/{subSourceId}/jobs"
	statusPath  = "/groups/{groupId}/sources/{subSourceId}/jobs/{jobId}"
)

// HTTPConfig holds configuration for a JSON ingestion gateway.
type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPClient implements Client against a JSON ingestion gateway:
//
//	POST {base}/groups/{groupId}/sources/{subSourceId}/jobs          -> {"job_id": "..."}
//	GET  {base}/groups/{groupId}/sources/{subSourceId}/jobs/{jobId}  -> {"status": "..."}
type HTTPClient struct {
	client *resty.Client
}

type triggerResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPClient creates a gateway client.
// Parameters:
//   - cfg: gateway base URL, optional bearer token and request timeout.
//
// Returns:
//   - *HTTPClient: client safe for concurrent use.
//   - error: ErrBaseURLRequired when cfg.BaseURL is empty.
func NewHTTPClient(cfg *HTTPConfig) (*HTTPClient, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/"))
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &HTTPClient{client: client}, nil
}

// Trigger starts a job through the gateway.
func (c *HTTPClient) Trigger(ctx context.Context, groupID, subSourceID string) (string, error) {
	var result triggerResponse
	var apiErr errorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"groupId":     groupID,
			"subSourceId": subSourceID,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post(triggerPath)
	if err != nil {
		return "", fmt.Errorf("failed to call trigger endpoint: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		return "", statusError("trigger", resp.StatusCode(), apiErr.Error)
	}

	if result.JobID == "" {
		return "", fmt.Errorf("trigger: %w: missing job_id", ErrUnexpectedResponse)
	}
	return result.JobID, nil
}

// GetStatus fetches the job status through the gateway.
func (c *HTTPClient) GetStatus(ctx context.Context, groupID, subSourceID, jobID string) (string, error) {
	var result statusResponse
	var apiErr errorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"groupId":     groupID,
			"subSourceId": subSourceID,
			"jobId":       jobID,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Get(statusPath)
	if err != nil {
		return "", fmt.Errorf("failed to call status endpoint: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", statusError("status", resp.StatusCode(), apiErr.Error)
	}

	if result.Status == "" {
		return "", fmt.Errorf("status: %w: missing status", ErrUnexpectedResponse)
	}
	return result.Status, nil
}

func statusError(op string, code int, detail string) error {
	if detail != "" {
		return fmt.Errorf("%s endpoint error: status %d: %s", op, code, detail)
	}
	return fmt.Errorf("%s endpoint error: status %d", op, code)
}
