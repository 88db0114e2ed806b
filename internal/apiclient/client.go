package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"streamwatch/internal/api"
)

// Client talks to the daemon HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// StatusError is returned for non-2xx API responses. It carries the HTTP
// status code and the error message from the response body.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Code)
	}
	return fmt.Sprintf("api request failed with status %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	statusErr, ok := err.(*StatusError)
	return ok && statusErr.Code == http.StatusNotFound
}

// IsConflict reports whether err is an API 409.
func IsConflict(err error) bool {
	statusErr, ok := err.(*StatusError)
	return ok && statusErr.Code == http.StatusConflict
}

// New constructs a client for the given base URL. The URL may omit the
// scheme, in which case http is assumed. Token is the optional bearer token.
func New(baseURL, token string) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL != "" && !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Status retrieves daemon runtime information.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var resp api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health retrieves aggregate and database diagnostics.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Enqueue reports a candidate stream for processing.
func (c *Client) Enqueue(ctx context.Context, req api.CandidateRequest) (*api.CandidateResponse, error) {
	var resp api.CandidateResponse
	if err := c.do(ctx, http.MethodPost, "/api/candidates", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListDetections returns detections, optionally filtered by status.
func (c *Client) ListDetections(ctx context.Context, statuses ...string) ([]api.Detection, error) {
	path := "/api/detections"
	if len(statuses) > 0 {
		query := url.Values{}
		for _, status := range statuses {
			query.Add("status", status)
		}
		path += "?" + query.Encode()
	}
	var resp api.DetectionListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Describe fetches a detection with its evidence, matches, and enforcement
// history.
func (c *Client) Describe(ctx context.Context, id int64) (*api.DetectionDetail, error) {
	var resp api.DetectionResponse
	if err := c.do(ctx, http.MethodGet, detectionPath(id, ""), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// RunStage triggers a pipeline stage (capture, match, enforce, or retry) for
// one detection and returns the refreshed detail.
func (c *Client) RunStage(ctx context.Context, id int64, action string) (*api.DetectionDetail, error) {
	var resp api.DetectionResponse
	if err := c.do(ctx, http.MethodPost, detectionPath(id, action), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// RemoveDetection deletes one detection.
func (c *Client) RemoveDetection(ctx context.Context, id int64) error {
	var resp api.RemoveResponse
	return c.do(ctx, http.MethodDelete, detectionPath(id, ""), nil, &resp)
}

// ClearDetections bulk-removes detections. Scope is all, enforced, or
// errored; empty means all.
func (c *Client) ClearDetections(ctx context.Context, scope string) (int64, error) {
	path := "/api/detections"
	if scope != "" {
		path += "?scope=" + url.QueryEscape(scope)
	}
	var resp api.ClearResponse
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// ListReferences returns catalog entries, optionally filtered by platform.
func (c *Client) ListReferences(ctx context.Context, platform string) ([]api.Reference, error) {
	path := "/api/references"
	if platform != "" {
		path += "?platform=" + url.QueryEscape(platform)
	}
	var resp api.ReferenceListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// UpsertReference loads or refreshes a catalog entry.
func (c *Client) UpsertReference(ctx context.Context, req api.ReferenceRequest) (*api.Reference, error) {
	var resp api.ReferenceResponse
	if err := c.do(ctx, http.MethodPost, "/api/references", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// RemoveReference deletes a catalog entry.
func (c *Client) RemoveReference(ctx context.Context, id int64) error {
	var resp api.RemoveResponse
	return c.do(ctx, http.MethodDelete, "/api/references/"+strconv.FormatInt(id, 10), nil, &resp)
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification(ctx context.Context) (*api.TestNotificationResponse, error) {
	var resp api.TestNotificationResponse
	if err := c.do(ctx, http.MethodPost, "/api/test-notification", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func detectionPath(id int64, action string) string {
	path := "/api/detections/" + strconv.FormatInt(id, 10)
	if action != "" {
		path += "/" + action
	}
	return path
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Message: decodeErrorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeErrorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Error
}
