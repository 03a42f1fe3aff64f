package handlers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "leadflow/internal/api/context"
	"leadflow/internal/pkg/response"
	"leadflow/internal/platform/auth"
	"leadflow/internal/platform/config"
	"leadflow/internal/platform/oauth"
	"leadflow/internal/platform/repositories"
)

type OAuthHandler struct {
	manager  *oauth.Manager
	userRepo *repositories.UserRepository
	frontend config.FrontendConfig
}

func NewOAuthHandler(manager *oauth.Manager, userRepo *repositories.UserRepository, frontend config.FrontendConfig) *OAuthHandler {
	return &OAuthHandler{manager: manager, userRepo: userRepo, frontend: frontend}
}

// Connect redirects the authenticated user to the provider's consent
// screen. The user id rides along as OAuth state so the callback can link
// the credential back.
func (h *OAuthHandler) Connect(w http.ResponseWriter, r *http.Request) {
	providerName := paramsFrom(r).ByName("provider")
	provider, ok := h.manager.Provider(providerName)
	if !ok {
		response.Fail(w, http.StatusNotFound, "Unknown provider")
		return
	}

	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	http.Redirect(w, r, provider.AuthURL(claims.UserID), http.StatusFound)
}

// Callback exchanges the authorization code, persists the credential keyed
// by (user, provider), and bounces back to the front end.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	providerName := paramsFrom(r).ByName("provider")
	provider, ok := h.manager.Provider(providerName)
	if !ok {
		response.Fail(w, http.StatusNotFound, "Unknown provider")
		return
	}

	code := r.URL.Query().Get("code")
	userID := r.URL.Query().Get("state")
	if code == "" || userID == "" {
		response.Fail(w, http.StatusBadRequest, "Missing code or state")
		return
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil || user == nil {
		log.Error().Err(err).Str("user_id", userID).Msg("oauth callback for unknown user")
		http.Redirect(w, r, h.frontend.BaseURL+"/oauth/error?provider="+providerName, http.StatusFound)
		return
	}

	tok, err := provider.ExchangeCode(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("provider", providerName).Str("user_id", userID).
			Msg("authorization code exchange failed")
		http.Redirect(w, r, h.frontend.BaseURL+"/oauth/error?provider="+providerName, http.StatusFound)
		return
	}

	if _, err := h.manager.SaveExchanged(userID, providerName, tok); err != nil {
		log.Error().Err(err).Str("provider", providerName).Str("user_id", userID).
			Msg("failed to store credential")
		http.Redirect(w, r, h.frontend.BaseURL+"/oauth/error?provider="+providerName, http.StatusFound)
		return
	}

	// Slack reports the workspace identity; remember it so inbound events
	// can be routed to this user.
	if tok.ProviderUserID != "" {
		if err := h.userRepo.UpdateSlackUserID(userID, tok.ProviderUserID); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("failed to link slack user id")
		}
	}

	log.Info().Str("provider", providerName).Str("user_id", userID).Msg("provider connected")
	http.Redirect(w, r, h.frontend.BaseURL+"/oauth/success?provider="+providerName, http.StatusFound)
}

func paramsFrom(r *http.Request) httprouter.Params {
	if ps, ok := r.Context().Value(apiContext.Params).(httprouter.Params); ok {
		return ps
	}
	return nil
}
