package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/flight-kiosk/internal/geo"
	"github.com/yegors/flight-kiosk/pkg/logger"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestFetchBoundsSendsBoundsAndHeaders(t *testing.T) {
	var gotBounds, gotUA, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBounds = r.URL.Query().Get("bounds")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Retry: fastRetry()}, logger.NewNop())
	box := geo.Box{LatMin: 40.07, LatMax: 41.43, LonMin: -74.88, LonMax: -73.09}

	resp, err := c.FetchBounds(context.Background(), box)
	require.NoError(t, err)

	assert.Equal(t, "/zones/fcgi/feed.js", gotPath)
	assert.Equal(t, "41.43,40.07,-74.88,-73.09", gotBounds)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Len(t, resp.Records, 3)
}

func TestFetchGlobalRequestsWholeWorld(t *testing.T) {
	var gotBounds string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBounds = r.URL.Query().Get("bounds")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Retry: fastRetry()}, logger.NewNop())
	resp, err := c.FetchGlobal(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "90.00,-90.00,-180.00,180.00", gotBounds)
	assert.Len(t, resp.Records, 3)
}

func TestFetchBoundsZeroRetriesMakesOneAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	retry := fastRetry()
	retry.MaxRetries = 0
	c := NewClient(ClientConfig{BaseURL: server.URL, Retry: retry}, logger.NewNop())

	_, err := c.FetchBounds(context.Background(), geo.World)
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchBoundsRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Retry: fastRetry()}, logger.NewNop())
	resp, err := c.FetchBounds(context.Background(), geo.World)
	require.NoError(t, err)
	assert.Len(t, resp.Records, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchBoundsDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Retry: fastRetry()}, logger.NewNop())
	_, err := c.FetchBounds(context.Background(), geo.World)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchBoundsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond, Retry: fastRetry()}, logger.NewNop())

	start := time.Now()
	_, err := c.FetchBounds(context.Background(), geo.World)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetchBoundsUnparseableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Retry: fastRetry()}, logger.NewNop())
	_, err := c.FetchBounds(context.Background(), geo.World)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 3*time.Second, parseRetryAfter("3", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))
	assert.Equal(t, 30*time.Second, parseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now))
}
