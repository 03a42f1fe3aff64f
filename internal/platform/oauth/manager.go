package oauth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/models"
)

// refreshSkew refreshes tokens slightly before their stated expiry so a
// token does not lapse mid-call.
const refreshSkew = 5 * time.Minute

type TokenStore interface {
	Get(userID, provider string) (*models.OAuthToken, error)
	Upsert(token *models.OAuthToken) error
	UpdateAccessToken(id, accessToken string, expiresAt int64) error
}

// Manager owns stored credentials and keeps them fresh. Token freshness is
// the caller-facing contract: downstream clients never refresh themselves.
type Manager struct {
	store     TokenStore
	providers map[string]Provider
	now       func() time.Time
}

func NewManager(store TokenStore, providers ...Provider) *Manager {
	m := &Manager{
		store:     store,
		providers: make(map[string]Provider, len(providers)),
		now:       time.Now,
	}
	for _, p := range providers {
		m.providers[p.Name()] = p
	}
	return m
}

func (m *Manager) Provider(name string) (Provider, bool) {
	p, ok := m.providers[name]
	return p, ok
}

// SaveExchanged persists a freshly exchanged credential for the user,
// overwriting any previous connection to the same provider.
func (m *Manager) SaveExchanged(userID, provider string, tok *Token) (*models.OAuthToken, error) {
	record := &models.OAuthToken{
		UserID:       userID,
		Provider:     provider,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.ExpiresAt,
	}
	if err := m.store.Upsert(record); err != nil {
		return nil, errors.Wrap(errors.KindPersistence, "store "+provider+" credential", err)
	}
	return record, nil
}

// EnsureValid returns a usable access token for (userID, provider). A token
// expiring more than refreshSkew in the future is returned as-is; an expired
// or near-expired one is refreshed exactly once and persisted in place.
// Tokens with no recorded expiry never refresh.
func (m *Manager) EnsureValid(ctx context.Context, userID, provider string) (string, error) {
	stored, err := m.store.Get(userID, provider)
	if err != nil {
		return "", errors.Wrap(errors.KindPersistence, "load "+provider+" credential", err)
	}
	if stored == nil {
		return "", errors.New(errors.KindAuth, provider+" not connected")
	}

	if stored.ExpiresAt == 0 || stored.ExpiresAt > m.now().Add(refreshSkew).Unix() {
		return stored.AccessToken, nil
	}

	p, ok := m.providers[provider]
	if !ok {
		return "", errors.New(errors.KindInternal, "unknown provider: "+provider)
	}
	if stored.RefreshToken == "" {
		return "", errors.New(errors.KindAuth, provider+" token expired and no refresh token stored")
	}

	refreshed, err := p.Refresh(ctx, stored.RefreshToken)
	if err != nil {
		return "", errors.Wrap(errors.KindAuth, "refresh "+provider+" token", err)
	}

	if err := m.store.UpdateAccessToken(stored.ID, refreshed.AccessToken, refreshed.ExpiresAt); err != nil {
		// The refreshed token is still usable for this call.
		log.Error().Err(err).Str("user_id", userID).Str("provider", provider).
			Msg("failed to persist refreshed token")
	}

	log.Debug().Str("user_id", userID).Str("provider", provider).Msg("access token refreshed")
	return refreshed.AccessToken, nil
}
