package backend

import (
	"bronebot/app/config"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBackoffBase = 10 * time.Millisecond

func newTestClient(baseURL string, retries int) (*Client, *[]time.Duration) {
	cfg := &config.Config{
		Backend: config.Backend{
			BaseURL:          baseURL,
			BridgePath:       "/api/bridge",
			CancelPath:       "/api/bridge/cancel",
			AuthScheme:       "none",
			APIKeyHeader:     "X-API-Key",
			RequestTimeout:   config.Duration(time.Second),
			MaxRetries:       retries,
			RetryBackoffBase: config.Duration(testBackoffBase),
		},
	}

	var sleeps []time.Duration

	client := &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Backend.RequestTimeout.Std(),
		},
		sleep: func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	}

	return client, &sleeps
}

func TestQuery_TransportFailuresThenSuccess(t *testing.T) {
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			// Drop the connection to simulate a network-level failure.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer srv.Close()

	client, sleeps := newTestClient(srv.URL, 3)

	result, err := client.FindRooms(context.Background(), map[string]any{"location_id": "a"})
	require.NoError(t, err)
	assert.Equal(t, "ok", result["result"])
	assert.Equal(t, 3, attempts)

	// Backoff doubles: base, base*2.
	require.Equal(t, []time.Duration{testBackoffBase, 2 * testBackoffBase}, *sleeps)
}

func TestQuery_TerminalStatusFailsImmediately(t *testing.T) {
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such path"}`))
	}))
	defer srv.Close()

	client, sleeps := newTestClient(srv.URL, 3)

	_, err := client.Health(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.False(t, statusErr.Retriable())

	assert.Equal(t, 1, attempts)
	assert.Empty(t, *sleeps)
}

func TestQuery_RetriableStatusExhaustsRetries(t *testing.T) {
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, sleeps := newTestClient(srv.URL, 3)

	_, err := client.Health(context.Background())
	require.Error(t, err)

	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)

	var statusErr *StatusError
	require.ErrorAs(t, exhausted.Last, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)

	assert.Equal(t, 3, attempts)
	assert.Len(t, *sleeps, 2)
}

func TestQuery_MalformedBodyIsTerminal(t *testing.T) {
	attempts := 0

	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"json array", "[1,2,3]"},
		{"json scalar", "42"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			attempts = 0

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client, _ := newTestClient(srv.URL, 3)

			_, err := client.Health(context.Background())

			var malformed *MalformedResponseError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, 1, attempts)
		})
	}
}

func TestQuery_SuccessBodyPassedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/bridge/cancel", r.URL.Path)
		w.Write([]byte(`{"free_rooms":[{"name":"R1"}],"extra":{"nested":true}}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL, 1)

	result, err := client.CancelBooking(context.Background(), map[string]any{"telegram_user_id": 1})
	require.NoError(t, err)

	assert.Len(t, FreeRooms(result), 1)
	assert.Equal(t, map[string]any{"nested": true}, result["extra"])
}

func TestQuery_AuthSchemes(t *testing.T) {
	tests := []struct {
		scheme string
		header string
		want   string
	}{
		{"api_key", "X-API-Key", "s3cret"},
		{"bearer", "Authorization", "Bearer s3cret"},
		{"basic", "Authorization", "Basic s3cret"},
	}

	for _, tc := range tests {
		t.Run(tc.scheme, func(t *testing.T) {
			var got string

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get(tc.header)
				w.Write([]byte(`{}`))
			}))
			defer srv.Close()

			client, _ := newTestClient(srv.URL, 1)
			client.cfg.Backend.AuthScheme = tc.scheme
			client.cfg.Backend.AuthSecret = "s3cret"

			_, err := client.Health(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestQuery_NoAuthWithoutSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL, 1)
	client.cfg.Backend.AuthScheme = "bearer"

	_, err := client.Health(context.Background())
	require.NoError(t, err)
}

func TestQuery_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL, 3)
	client.sleep = sleepCtx

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Health(ctx)
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, errors.Is(transportErr.Err, context.Canceled))
}
