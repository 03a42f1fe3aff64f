package oauth

import (
	"context"
	"net/url"

	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/config"
)

type SlackProvider struct {
	cfg      config.ProviderConfig
	AuthBase string
	TokenURL string
}

func NewSlackProvider(cfg config.ProviderConfig) *SlackProvider {
	return &SlackProvider{
		cfg:      cfg,
		AuthBase: "https://slack.com/oauth/v2/authorize",
		TokenURL: "https://slack.com/api/oauth.v2.access",
	}
}

func (p *SlackProvider) Name() string {
	return ProviderSlack
}

func (p *SlackProvider) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("scope", p.cfg.Scopes)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("state", state)
	return p.AuthBase + "?" + q.Encode()
}

// slackTokenResponse covers both success and failure: Slack signals errors
// with {ok:false, error:"..."} and HTTP 200.
type slackTokenResponse struct {
	OK           bool   `json:"ok"`
	Error        string `json:"error"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	AuthedUser   struct {
		ID string `json:"id"`
	} `json:"authed_user"`
}

func (p *SlackProvider) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	params := url.Values{}
	params.Set("client_id", p.cfg.ClientID)
	params.Set("client_secret", p.cfg.ClientSecret)
	params.Set("code", code)
	params.Set("redirect_uri", p.cfg.RedirectURI)

	var resp slackTokenResponse
	if err := postForm(ctx, p.TokenURL, params, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, errors.New(errors.KindUpstream, "slack oauth failed: "+resp.Error)
	}

	return &Token{
		AccessToken:    resp.AccessToken,
		RefreshToken:   resp.RefreshToken,
		ExpiresAt:      expiryFromSeconds(resp.ExpiresIn),
		ProviderUserID: resp.AuthedUser.ID,
	}, nil
}

func (p *SlackProvider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	params := url.Values{}
	params.Set("client_id", p.cfg.ClientID)
	params.Set("client_secret", p.cfg.ClientSecret)
	params.Set("grant_type", "refresh_token")
	params.Set("refresh_token", refreshToken)

	var resp slackTokenResponse
	if err := postForm(ctx, p.TokenURL, params, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, errors.New(errors.KindUpstream, "slack token refresh failed: "+resp.Error)
	}

	return &Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiryFromSeconds(resp.ExpiresIn),
	}, nil
}
