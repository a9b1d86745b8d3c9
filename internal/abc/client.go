// Package abc is the HTTP client for the ABC operational system. It covers
// the system's five read endpoints and can run any subset of them
// concurrently with per-call timeout, bounded retry and partial-failure
// tolerance.
package abc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"opscheck/internal/check"
	"opscheck/pkg/logging"

	"github.com/cenkalti/backoff/v5"
)

// Config holds the connection settings for the ABC system.
type Config struct {
	BaseURL string
	APIKey  string

	// Timeout bounds each individual call attempt.
	Timeout time.Duration

	// MaxRetries is the number of attempts per call, including the first.
	MaxRetries int

	// RetryBackoff is the initial delay between attempts; it doubles per
	// attempt, capped at maxBackoffInterval.
	RetryBackoff time.Duration
}

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRetries   = 3
	defaultRetryBackoff = 1 * time.Second
	maxBackoffInterval  = 10 * time.Second
)

// Client talks to the ABC system. It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client for the ABC system. Zero config fields fall
// back to defaults.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logging.Info("ABCClient", "ABC system client initialized for %s", cfg.BaseURL)

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			// Per-attempt deadlines come from the request context; the
			// client-level timeout is a backstop only.
			Timeout: cfg.Timeout + 5*time.Second,
		},
	}
}

// request performs one HTTP call with retry. Connection and timeout errors
// are retried with exponential backoff; HTTP error statuses and undecodable
// bodies are permanent failures.
func (c *Client) request(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body for %s: %w", endpoint, err)
		}
	}

	url := c.cfg.BaseURL + endpoint

	operation := func() ([]byte, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		var reader io.Reader
		if reqBody != nil {
			reader = bytes.NewReader(reqBody)
		}

		req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "opscheck/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logging.Warn("ABCClient", "%s %s failed, will retry: %v", method, url, err)
			return nil, err // network or timeout, retryable
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			logging.Warn("ABCClient", "reading %s %s response failed, will retry: %v", method, url, err)
			return nil, err
		}

		if resp.StatusCode >= 400 {
			return nil, backoff.Permanent(&APIError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("request failed: %s", http.StatusText(resp.StatusCode)),
			})
		}

		logging.Debug("ABCClient", "%s %s -> %d", method, url, resp.StatusCode)
		return data, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.cfg.RetryBackoff
	expo.Multiplier = 2
	expo.MaxInterval = maxBackoffInterval

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries)),
	)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	data, err := c.request(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &MalformedResponseError{Endpoint: endpoint, Cause: err}
	}
	return nil
}

// CheckHealth calls GET /api/system/health.
func (c *Client) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	var hs HealthStatus
	if err := c.getJSON(ctx, "/api/system/health", &hs); err != nil {
		return nil, err
	}
	if hs.Timestamp.IsZero() {
		hs.Timestamp = time.Now().UTC()
	}
	return &hs, nil
}

// GetUserStatus calls GET /api/users/status.
func (c *Client) GetUserStatus(ctx context.Context) ([]UserStatus, error) {
	var resp usersResponse
	if err := c.getJSON(ctx, "/api/users/status", &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// GetServices calls GET /api/services/list.
func (c *Client) GetServices(ctx context.Context) ([]ServiceInfo, error) {
	var resp servicesResponse
	if err := c.getJSON(ctx, "/api/services/list", &resp); err != nil {
		return nil, err
	}
	return resp.Services, nil
}

// QueryLogs calls POST /api/logs/query with the given timeframe and filters.
func (c *Client) QueryLogs(ctx context.Context, q check.LogQuery) ([]LogEntry, error) {
	if q.Timeframe == "" {
		q = check.DefaultLogQuery()
	}
	if q.Limit <= 0 {
		q.Limit = check.DefaultLogQuery().Limit
	}

	data, err := c.request(ctx, http.MethodPost, "/api/logs/query", q)
	if err != nil {
		return nil, err
	}
	var resp logsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &MalformedResponseError{Endpoint: "/api/logs/query", Cause: err}
	}
	return resp.Logs, nil
}

// GetMetrics calls GET /api/metrics/current.
func (c *Client) GetMetrics(ctx context.Context) (*SystemMetrics, error) {
	var sm SystemMetrics
	if err := c.getJSON(ctx, "/api/metrics/current", &sm); err != nil {
		return nil, err
	}
	if sm.Timestamp.IsZero() {
		sm.Timestamp = time.Now().UTC()
	}
	return &sm, nil
}
