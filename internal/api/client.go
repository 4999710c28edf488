package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Change is one outbox entry on the wire
type Change struct {
	Table    string          `json:"table"`
	RecordID int64           `json:"recordId"`
	Action   string          `json:"action"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// PushRequest is the body of POST /sync/push
type PushRequest struct {
	Changes []Change `json:"changes"`
}

// PullResponse is the body of GET /sync/pull and GET /sync/full: the
// changed (or, for full, all) records per table, plus the server cursor
// describing the snapshot
type PullResponse struct {
	Changes   map[string][]json.RawMessage `json:"changes"`
	Watermark int64                        `json:"watermark"`
}

// HTTPError is a non-2xx response from the sync server
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sync server returned %d: %s", e.StatusCode, e.Body)
}

// IsUnauthorized reports whether the error means the session expired.
// Unauthorized is not retryable: the outbox stays put until the user
// signs in again.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized
}

// IsRetryable reports whether the failure is worth retrying with
// backoff: transport errors and any server response other than 401
func IsRetryable(err error) bool {
	return err != nil && !IsUnauthorized(err)
}

// Client talks the HTTP+JSON sync protocol
type Client struct {
	httpClient *http.Client
	baseURL    string
	deviceID   string
	logger     *slog.Logger
}

// NewClient creates a sync client for the given server
func NewClient(baseURL, deviceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		deviceID:   deviceID,
		logger:     logger,
	}
}

// BaseURL returns the server address the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Push delivers outbox entries as one batch, in enqueue order. The
// server upserts idempotently by primary key, so redelivery after a
// lost response is harmless.
func (c *Client) Push(ctx context.Context, token string, changes []Change) error {
	body, err := json.Marshal(PushRequest{Changes: changes})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/sync/push", token, bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Pull requests everything changed since the watermark
func (c *Client) Pull(ctx context.Context, token string, since int64) (*PullResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/sync/pull?since="+strconv.FormatInt(since, 10), token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var pull PullResponse
	if err := json.NewDecoder(resp.Body).Decode(&pull); err != nil {
		return nil, fmt.Errorf("failed to decode pull response: %w", err)
	}
	return &pull, nil
}

// Full fetches the server's complete snapshot for the user
func (c *Client) Full(ctx context.Context, token string) (*PullResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/sync/full", token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var full PullResponse
	if err := json.NewDecoder(resp.Body).Decode(&full); err != nil {
		return nil, fmt.Errorf("failed to decode full sync response: %w", err)
	}
	return &full, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Device-ID", c.deviceID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("sync request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("sync request failed: %w", err)
	}

	c.logger.Debug("sync_request", "method", method, "path", path, "status", resp.StatusCode, "duration_ms", duration.Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}
	return resp, nil
}
