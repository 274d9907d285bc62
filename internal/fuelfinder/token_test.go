package fuelfinder

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelwatch/fuelwatch/internal/config"
	"github.com/fuelwatch/fuelwatch/internal/models"
)

func tokenConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ClientID = "client"
	cfg.ClientSecret = "secret"
	return cfg
}

func TestGetTokenReusesCachedToken(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"access_token":"fresh"}`))
	}))
	defer server.Close()

	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	c := newTestClient(t, server.URL, WithClock(clock))

	cached := &models.TokenState{
		AccessToken: "cached",
		ExpiresAt:   now.Add(time.Hour).Format(time.RFC3339),
	}
	token, state, err := c.GetToken(context.Background(), tokenConfig(), cached)
	require.NoError(t, err)
	assert.Equal(t, "cached", token)
	assert.Same(t, cached, state)
	assert.Zero(t, calls.Load(), "a live cached token must not hit the network")
}

func TestGetTokenRefreshesNearExpiry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"fresh","expires_in":7200,"refresh_token":"r2"}`))
	}))
	defer server.Close()

	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	c := newTestClient(t, server.URL, WithClock(clock))

	// 20 seconds of life left is inside the expiry buffer.
	cached := &models.TokenState{
		AccessToken: "stale",
		ExpiresAt:   now.Add(20 * time.Second).Format(time.RFC3339),
	}
	token, state, err := c.GetToken(context.Background(), tokenConfig(), cached)
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, "r2", state.RefreshToken)
	assert.Equal(t, now.Add(2*time.Hour).Format(time.RFC3339), state.ExpiresAt)
}

func TestGetTokenFallsThroughVariants(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path != "/api/v2/oauth/generate_access_token" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"data":{"access_token":"v2-token","expires_in":3600}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	token, state, err := c.GetToken(context.Background(), tokenConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "v2-token", token)
	assert.Equal(t, "v2-token", state.AccessToken)
	assert.Equal(t, []string{
		"/api/v1/oauth/generate_access_token",
		"/api/v2/oauth/generate_access_token",
	}, paths)
}

func TestGetTokenPrefersRefreshVariants(t *testing.T) {
	var bodies []map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Errorf("decoding token request body: %v", err)
		}
		bodies = append(bodies, payload)

		if len(bodies) < 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"access_token":"renewed"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	cached := &models.TokenState{RefreshToken: "r1"}
	token, state, err := c.GetToken(context.Background(), tokenConfig(), cached)
	require.NoError(t, err)
	assert.Equal(t, "renewed", token)

	// Refresh token missing from the response keeps the previous one.
	assert.Equal(t, "r1", state.RefreshToken)

	// First variant carries the full credential set, the second omits the secret.
	require.Len(t, bodies, 2)
	assert.Equal(t, "r1", bodies[0]["refresh_token"])
	assert.Equal(t, "secret", bodies[0]["client_secret"])
	assert.NotContains(t, bodies[1], "client_secret")
}

func TestGetTokenMissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"expires_in":3600}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, _, err := c.GetToken(context.Background(), tokenConfig(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestGetTokenAllVariantsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, _, err := c.GetToken(context.Background(), tokenConfig(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)
}
