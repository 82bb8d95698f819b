package main

import (
	"io"
	"log"
	"os"

	api "replydesk/cmd/api"
	maildomain "replydesk/internal/mail/domain"
	mailrepo "replydesk/internal/mail/repository"
	mailusecase "replydesk/internal/mail/usecase"
	"replydesk/internal/poller"
	"replydesk/pkg/ai"
	"replydesk/pkg/config"
	"replydesk/pkg/database"
	"replydesk/pkg/smtpout"
	"replydesk/pkg/templates"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Tee logs to the service log file so /api/logs can serve them
	if logFile, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err != nil {
		log.Printf("[WARN] Cannot open log file %s: %v", cfg.LogFile, err)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schema
	if err := db.AutoMigrate(&maildomain.Email{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repository and usecase (dependency injection)
	emailRepository := mailrepo.NewGormEmailRepository(db)
	emailUsecase := mailusecase.NewEmailUsecase(emailRepository, cfg.MergeLimit)

	// Initialize reply generation: templates always back the AI provider
	tpls := templates.Load(cfg.TemplatesPath)
	replyService := ai.NewReplyService(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	}, tpls)
	log.Printf("Reply service initialized with provider: %s", cfg.AIProvider)

	// Initialize SMTP sender and start the IMAP poller
	sender := smtpout.NewSender(cfg.SMTPServer, cfg.SMTPPort, cfg.Email, cfg.Password)
	pollerService := poller.NewService(cfg, emailUsecase, replyService, sender)
	pollerService.Start()
	defer pollerService.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(emailUsecase, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
