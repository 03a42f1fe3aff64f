package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"leadflow/internal/engine/notify"
	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/auth"
)

// WSHandler upgrades clients into the notification hub. Browsers cannot set
// an Authorization header on the websocket handshake, so the JWT rides in
// the query string.
type WSHandler struct {
	tokenSvc *auth.TokenService
	hub      *notify.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(tokenSvc *auth.TokenService, hub *notify.Hub) *WSHandler {
	return &WSHandler{
		tokenSvc: tokenSvc,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing token", nil)
		return
	}

	claims, err := h.tokenSvc.ValidateToken(token)
	if err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or expired token", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	// Each session joins a room named by the user id; Broadcast targets
	// that room. Blocks until the client disconnects.
	h.hub.Join(claims.UserID, conn)
}
