package oauth

import (
	"context"
	"net/url"

	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/config"
)

type ZohoProvider struct {
	cfg      config.ProviderConfig
	AuthBase string
	TokenURL string
}

func NewZohoProvider(cfg config.ProviderConfig) *ZohoProvider {
	return &ZohoProvider{
		cfg:      cfg,
		AuthBase: "https://accounts.zoho.com/oauth/v2/auth",
		TokenURL: "https://accounts.zoho.com/oauth/v2/token",
	}
}

func (p *ZohoProvider) Name() string {
	return ProviderZoho
}

func (p *ZohoProvider) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", p.cfg.Scopes)
	q.Set("access_type", "offline")
	q.Set("state", state)
	return p.AuthBase + "?" + q.Encode()
}

type zohoTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Error        string `json:"error"`
}

func (p *ZohoProvider) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	params := url.Values{}
	params.Set("client_id", p.cfg.ClientID)
	params.Set("client_secret", p.cfg.ClientSecret)
	params.Set("code", code)
	params.Set("grant_type", "authorization_code")
	params.Set("redirect_uri", p.cfg.RedirectURI)

	var resp zohoTokenResponse
	if err := postForm(ctx, p.TokenURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(errors.KindUpstream, "zoho oauth failed: "+resp.Error)
	}

	return &Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiryFromSeconds(resp.ExpiresIn),
	}, nil
}

func (p *ZohoProvider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	params := url.Values{}
	params.Set("client_id", p.cfg.ClientID)
	params.Set("client_secret", p.cfg.ClientSecret)
	params.Set("grant_type", "refresh_token")
	params.Set("refresh_token", refreshToken)

	var resp zohoTokenResponse
	if err := postForm(ctx, p.TokenURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(errors.KindUpstream, "zoho token refresh failed: "+resp.Error)
	}

	return &Token{
		AccessToken: resp.AccessToken,
		ExpiresAt:   expiryFromSeconds(resp.ExpiresIn),
	}, nil
}
