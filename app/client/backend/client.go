package backend

import (
	"bronebot/app/config"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/do"
	"github.com/samber/oops"
)

const maxRawDetails = 500

// Client talks to the booking backend. It carries no per-call state and is
// safe for concurrent use.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	baseURL    string

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.Backend.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Backend.RequestTimeout.Std(),
		},
		sleep: sleepCtx,
	}, nil
}

// Health probes the backend without a body.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	return c.Query(ctx, http.MethodGet, c.cfg.Backend.BridgePath, nil)
}

// FindRooms runs a room search.
func (c *Client) FindRooms(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return c.Query(ctx, http.MethodPost, c.cfg.Backend.BridgePath, payload)
}

// CancelBooking asks the backend to release a previously reported room.
func (c *Client) CancelBooking(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return c.Query(ctx, http.MethodPost, c.cfg.Backend.CancelPath, payload)
}

// Query performs a single logical call with retries. Transport failures and
// retriable statuses (429, 5xx overload codes) are retried with exponential
// backoff; any other status ≥400 fails immediately. The parsed body is
// returned verbatim, content validation is the caller's job.
func (c *Client) Query(ctx context.Context, method, path string, payload map[string]any) (map[string]any, error) {
	retries := c.cfg.Backend.MaxRetries

	var lastErr error

	for attempt := 1; attempt <= retries; attempt++ {
		slog.Info("Backend request",
			"method", method,
			"path", path,
			"attempt", attempt,
		)

		result, err := c.attempt(ctx, method, path, payload)
		if err == nil {
			return result, nil
		}

		if !retriable(err) {
			slog.Error("Backend request failed",
				"method", method,
				"path", path,
				"error", err,
			)
			return nil, err
		}

		lastErr = err

		if attempt == retries {
			break
		}

		backoff := c.cfg.Backend.RetryBackoffBase.Std() * (1 << (attempt - 1))
		slog.Warn("Backend request will be retried",
			"method", method,
			"path", path,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		if err := c.sleep(ctx, backoff); err != nil {
			return nil, &TransportError{Err: err}
		}
	}

	slog.Error("Backend unavailable after retries",
		"method", method,
		"path", path,
		"retries", retries,
		"error", lastErr,
	)

	return nil, &RetriesExhaustedError{Attempts: retries, Last: lastErr}
}

func (c *Client) attempt(ctx context.Context, method, path string, payload map[string]any) (map[string]any, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, oops.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, oops.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode >= 400 {
		var details any
		if err := json.Unmarshal(raw, &details); err != nil {
			details = truncate(string(raw), maxRawDetails)
		}

		return nil, &StatusError{Code: resp.StatusCode, Details: details}
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &MalformedResponseError{Code: resp.StatusCode, Body: truncate(string(raw), maxRawDetails)}
	}

	object, ok := parsed.(map[string]any)
	if !ok {
		return nil, &MalformedResponseError{Code: resp.StatusCode, Body: truncate(string(raw), maxRawDetails)}
	}

	return object, nil
}

func (c *Client) applyAuth(req *http.Request) {
	secret := c.cfg.Backend.AuthSecret
	if secret == "" {
		return
	}

	switch c.cfg.Backend.AuthScheme {
	case "api_key":
		req.Header.Set(c.cfg.Backend.APIKeyHeader, secret)
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+secret)
	case "basic":
		req.Header.Set("Authorization", "Basic "+secret)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}
