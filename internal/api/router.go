package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "leadflow/internal/api/context"
	"leadflow/internal/api/handlers"
	"leadflow/internal/api/middleware"
)

type Dependencies struct {
	AuthHandler    *handlers.AuthHandler
	OAuthHandler   *handlers.OAuthHandler
	EventHandler   *handlers.EventHandler
	LogHandler     *handlers.LogHandler
	TriggerHandler *handlers.TriggerHandler
	WSHandler      *handlers.WSHandler
	HealthHandler  *handlers.HealthHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Handle))

	// Inbound provider webhooks
	router.POST("/events", wrap(deps.EventHandler.Handle))

	// Realtime push
	router.GET("/ws", wrap(deps.WSHandler.Handle))

	// Authentication
	router.POST("/api/v1/auth/signup", wrap(deps.AuthHandler.Signup))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))

	authMid := deps.AuthMiddleware

	router.GET("/api/v1/users/me", chain(deps.AuthHandler.Me, authMid.Handle))

	// Provider OAuth connect + callback. The callback is hit by the
	// provider's redirect, so it carries no bearer token.
	router.GET("/auth/:provider", chain(deps.OAuthHandler.Connect, authMid.Handle))
	router.GET("/auth/:provider/callback", wrap(deps.OAuthHandler.Callback))

	// Logs
	router.GET("/api/v1/leads", chain(deps.LogHandler.ListLeads, authMid.Handle))
	router.GET("/api/v1/crm-logs", chain(deps.LogHandler.ListCRMLogs, authMid.Handle))

	// Trigger configuration
	router.POST("/api/v1/triggers", chain(deps.TriggerHandler.Create, authMid.Handle))
	router.GET("/api/v1/triggers", chain(deps.TriggerHandler.List, authMid.Handle))
	router.PATCH("/api/v1/triggers/:trigger_id", chain(deps.TriggerHandler.Update, authMid.Handle))
	router.DELETE("/api/v1/triggers/:trigger_id", chain(deps.TriggerHandler.Delete, authMid.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
