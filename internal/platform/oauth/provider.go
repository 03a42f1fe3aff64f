package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadflow/internal/pkg/errors"
)

const (
	ProviderSlack  = "slack"
	ProviderGoogle = "google"
	ProviderZoho   = "zoho"
)

// Token is the result of a code exchange or refresh.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	// ProviderUserID is the provider-side identity when the provider
	// reports one (Slack's authed_user.id). Empty otherwise.
	ProviderUserID string
}

// Provider abstracts one OAuth integration: consent URL, authorization-code
// exchange and token refresh. Implementations share the same form-encoded
// token endpoint shape, so the per-provider code is mostly field mapping.
type Provider interface {
	Name() string
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Token, error)
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
}

var httpClient = &http.Client{Timeout: 15 * time.Second}

// postForm posts url-encoded params and decodes the JSON body into out.
// Non-2xx responses become upstream errors carrying the provider body.
func postForm(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return errors.Wrap(errors.KindInternal, "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.KindUpstream, "token endpoint unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.KindUpstream, "read token response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(errors.KindUpstream, "token endpoint returned "+resp.Status+": "+string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(errors.KindUpstream, "malformed token response", err)
	}
	return nil
}

func expiryFromSeconds(expiresIn int64) int64 {
	if expiresIn <= 0 {
		return 0
	}
	return time.Now().Add(time.Duration(expiresIn) * time.Second).Unix()
}
