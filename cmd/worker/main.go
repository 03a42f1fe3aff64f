package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadflow/internal/engine/crm"
	"leadflow/internal/engine/dedup"
	"leadflow/internal/engine/extract"
	"leadflow/internal/engine/notify"
	"leadflow/internal/engine/pipeline"
	"leadflow/internal/pkg/logger"
	"leadflow/internal/platform/config"
	"leadflow/internal/platform/database"
	"leadflow/internal/platform/oauth"
	"leadflow/internal/platform/repositories"
	"leadflow/internal/workers"
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

	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	leadRepo := repositories.NewLeadLogRepository(db)
	crmLogRepo := repositories.NewCRMLogRepository(db)
	triggerRepo := repositories.NewTriggerRepository(db)

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
	gmailSender := notify.NewGmailSender(oauthManager)
	emailSender := notify.NewEmailSender(cfg.Email.SMTP)
	// No websocket hub in the worker process; pushes come from the server.
	notifier := notify.NewNotifier(userRepo, gmailSender, emailSender, nil)

	pipe := pipeline.New(extractor, crmClient, oauthManager, crmLogRepo, notifier,
		cfg.Pipeline.RetryAttempts, cfg.Pipeline.RetryDelay)

	seen := dedup.NewBoundedSet(cfg.Pipeline.DedupCapacity)
	poller := workers.NewPoller(triggerRepo, leadRepo, oauthManager, pipe, seen)

	interval := cfg.Worker.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Starting leadflow background worker...")
	poller.Run(ctx, interval)
}
