package fuelfinder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/fuelwatch/fuelwatch/internal/config"
	"github.com/fuelwatch/fuelwatch/internal/models"
)

// tokenAttempt is one endpoint/payload variant for token acquisition. The
// provider's OAuth API has drifted across versions, so regeneration is tried
// with several variants and the first success wins.
type tokenAttempt struct {
	path    string
	payload map[string]string
}

// GetToken returns a valid bearer token, reusing the cached one when it has
// more than 30 seconds of life left. Otherwise it regenerates via the refresh
// token when one is cached, or generates a fresh token from the client
// credentials. The returned state replaces the cached state wholesale.
func (c *Client) GetToken(ctx context.Context, cfg *config.Config, cached *models.TokenState) (string, *models.TokenState, error) {
	if cached != nil && cached.AccessToken != "" && cached.ExpiresAt != "" {
		if exp, err := time.Parse(time.RFC3339, cached.ExpiresAt); err == nil {
			if c.clock.Now().Before(exp.Add(-tokenExpiryBuffer)) {
				return cached.AccessToken, cached, nil
			}
		}
	}

	var prevRefresh string
	if cached != nil {
		prevRefresh = cached.RefreshToken
	}

	var attempts []tokenAttempt
	if prevRefresh != "" {
		attempts = []tokenAttempt{
			{refreshPathV1, map[string]string{
				"client_id":     cfg.ClientID,
				"client_secret": cfg.ClientSecret,
				"refresh_token": prevRefresh,
			}},
			{refreshPathV1, map[string]string{
				"client_id":     cfg.ClientID,
				"refresh_token": prevRefresh,
			}},
			{refreshPathV2, map[string]string{
				"client_id":     cfg.ClientID,
				"client_secret": cfg.ClientSecret,
				"refresh_token": prevRefresh,
			}},
			{refreshPathV2, map[string]string{
				"client_id":     cfg.ClientID,
				"refresh_token": prevRefresh,
			}},
		}
	} else {
		attempts = []tokenAttempt{
			{tokenPathV1, map[string]string{
				"client_id":     cfg.ClientID,
				"client_secret": cfg.ClientSecret,
			}},
			{tokenPathV2, map[string]string{
				"client_id":     cfg.ClientID,
				"client_secret": cfg.ClientSecret,
			}},
		}
	}

	var body []byte
	var lastErr error
	for _, a := range attempts {
		data, err := c.requestJSON(ctx, http.MethodPost, a.path, nil, nil, a.payload, tokenRetries)
		if err == nil {
			body = data
			break
		}
		lastErr = err
		c.logger.Debug().Err(err).Str("path", a.path).Msg("token attempt failed")
	}
	if body == nil {
		return "", nil, fmt.Errorf("%w: failed to obtain access token: %v", ErrAuthentication, lastErr)
	}

	payload := tokenPayload(body)

	access := payload.Get("access_token").String()
	if access == "" {
		return "", nil, fmt.Errorf("%w: no access token in response", ErrAuthentication)
	}

	expiresIn := int64(3600)
	if v := payload.Get("expires_in"); v.Exists() && v.Int() > 0 {
		expiresIn = v.Int()
	}

	refresh := payload.Get("refresh_token").String()
	if refresh == "" {
		refresh = prevRefresh
	}

	state := &models.TokenState{
		AccessToken:  access,
		ExpiresAt:    c.clock.Now().UTC().Add(time.Duration(expiresIn) * time.Second).Format(time.RFC3339),
		RefreshToken: refresh,
	}
	return access, state, nil
}

// tokenPayload unwraps a token response that may be enveloped in {"data": {...}}
// or flat.
func tokenPayload(body []byte) gjson.Result {
	root := gjson.ParseBytes(body)
	if data := root.Get("data"); data.IsObject() {
		return data
	}
	return root
}
