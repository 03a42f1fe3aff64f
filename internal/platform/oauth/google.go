package oauth

import (
	"context"
	"net/url"

	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/config"
)

type GoogleProvider struct {
	cfg      config.ProviderConfig
	AuthBase string
	TokenURL string
}

func NewGoogleProvider(cfg config.ProviderConfig) *GoogleProvider {
	return &GoogleProvider{
		cfg:      cfg,
		AuthBase: "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	}
}

func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

func (p *GoogleProvider) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", p.cfg.Scopes)
	// Offline access so Google issues a refresh token.
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	q.Set("state", state)
	return p.AuthBase + "?" + q.Encode()
}

type googleTokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	params := url.Values{}
	params.Set("client_id", p.cfg.ClientID)
	params.Set("client_secret", p.cfg.ClientSecret)
	params.Set("code", code)
	params.Set("grant_type", "authorization_code")
	params.Set("redirect_uri", p.cfg.RedirectURI)

	var resp googleTokenResponse
	if err := postForm(ctx, p.TokenURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(errors.KindUpstream, "google oauth failed: "+googleErrText(resp))
	}

	return &Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiryFromSeconds(resp.ExpiresIn),
	}, nil
}

func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	params := url.Values{}
	params.Set("client_id", p.cfg.ClientID)
	params.Set("client_secret", p.cfg.ClientSecret)
	params.Set("grant_type", "refresh_token")
	params.Set("refresh_token", refreshToken)

	var resp googleTokenResponse
	if err := postForm(ctx, p.TokenURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(errors.KindUpstream, "google token refresh failed: "+googleErrText(resp))
	}

	return &Token{
		AccessToken: resp.AccessToken,
		ExpiresAt:   expiryFromSeconds(resp.ExpiresIn),
	}, nil
}

func googleErrText(resp googleTokenResponse) string {
	if resp.ErrorDescription != "" {
		return resp.ErrorDescription
	}
	return resp.Error
}
