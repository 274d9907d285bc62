package fuelfinder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client against a test server with near-zero backoff.
func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBackoff(time.Millisecond, 0)}, opts...)
	return New(baseURL, zerolog.Nop(), opts...)
}

func TestRequestJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	body, err := c.requestJSON(context.Background(), http.MethodGet, "/", nil, nil, nil, 5)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRequestJSONHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0.01")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	start := time.Now()
	_, err := c.requestJSON(context.Background(), http.MethodGet, "/", nil, nil, nil, 3)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRequestJSONFailsAuthImmediately(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.requestJSON(context.Background(), http.MethodGet, "/", nil, nil, nil, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Equal(t, int32(1), calls.Load(), "401 must not consume the retry budget")
}

func TestRequestJSONExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.requestJSON(context.Background(), http.MethodGet, "/", nil, nil, nil, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Equal(t, int32(4), calls.Load())
}

func TestRequestJSONRejectsInvalidJSON(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.requestJSON(context.Background(), http.MethodGet, "/", nil, nil, nil, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAPI)
	assert.Equal(t, int32(1), calls.Load(), "a malformed 2xx body is not retryable")
}

func TestRequestJSONNonRetryableStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.requestJSON(context.Background(), http.MethodGet, "/", nil, nil, nil, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAPI)
}

func TestRetryAfterHint(t *testing.T) {
	assert.Equal(t, time.Duration(0), retryAfterHint(""))
	assert.Equal(t, time.Duration(0), retryAfterHint("soon"))
	assert.Equal(t, time.Duration(0), retryAfterHint("-1"))
	assert.Equal(t, 1500*time.Millisecond, retryAfterHint("1.5"))
	assert.Equal(t, 2*time.Second, retryAfterHint("2"))
}
