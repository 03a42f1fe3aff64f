package main

import (
	"fmt"
	"log"
	"net/http"

	"leadflow/internal/api"
	"leadflow/internal/api/handlers"
	"leadflow/internal/api/middleware"
	"leadflow/internal/engine/crm"
	"leadflow/internal/engine/dedup"
	"leadflow/internal/engine/extract"
	"leadflow/internal/engine/notify"
	"leadflow/internal/engine/pipeline"
	"leadflow/internal/pkg/logger"
	"leadflow/internal/platform/auth"
	"leadflow/internal/platform/config"
	"leadflow/internal/platform/database"
	"leadflow/internal/platform/oauth"
	"leadflow/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	leadRepo := repositories.NewLeadLogRepository(db)
	crmLogRepo := repositories.NewCRMLogRepository(db)
	triggerRepo := repositories.NewTriggerRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	oauthManager := oauth.NewManager(tokenRepo,
		oauth.NewSlackProvider(cfg.OAuth.Slack),
		oauth.NewGoogleProvider(cfg.OAuth.Google),
		oauth.NewZohoProvider(cfg.OAuth.Zoho),
	)

	var extractor extract.Extractor
	if cfg.Extractor.Mode == "llm" {
		extractor = extract.NewLLMExtractor(cfg.Extractor)
	} else {
		extractor = extract.NewHeuristicExtractor()
	}

	crmClient := crm.NewClient(cfg.CRM)
	hub := notify.NewHub()
	gmailSender := notify.NewGmailSender(oauthManager)
	emailSender := notify.NewEmailSender(cfg.Email.SMTP)
	notifier := notify.NewNotifier(userRepo, gmailSender, emailSender, hub)

	pipe := pipeline.New(extractor, crmClient, oauthManager, crmLogRepo, notifier,
		cfg.Pipeline.RetryAttempts, cfg.Pipeline.RetryDelay)

	seen := dedup.NewBoundedSet(cfg.Pipeline.DedupCapacity)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, tokenSvc)
	oauthHandler := handlers.NewOAuthHandler(oauthManager, userRepo, cfg.Frontend)
	eventHandler := handlers.NewEventHandler(userRepo, leadRepo, seen, pipe)
	logHandler := handlers.NewLogHandler(leadRepo, crmLogRepo)
	triggerHandler := handlers.NewTriggerHandler(triggerRepo)
	wsHandler := handlers.NewWSHandler(tokenSvc, hub)
	healthHandler := handlers.NewHealthHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)

	deps := &api.Dependencies{
		AuthHandler:    authHandler,
		OAuthHandler:   oauthHandler,
		EventHandler:   eventHandler,
		LogHandler:     logHandler,
		TriggerHandler: triggerHandler,
		WSHandler:      wsHandler,
		HealthHandler:  healthHandler,
		AuthMiddleware: authMiddleware,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
