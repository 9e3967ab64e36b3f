package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"leadpilot/config"
	controller "leadpilot/controllers"
	"leadpilot/middleware"
	"leadpilot/repository"
	"leadpilot/routes"
	"leadpilot/store"
	"leadpilot/utils"
	"leadpilot/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "LEADPILOT: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Sentry when a DSN is configured
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Wire stores, recorder and repository
	leadStore := store.NewMongoLeadStore(config.DB)
	activityStore := store.NewMongoActivityStore(config.DB)

	feed := controller.NewActivityBroadcaster(log.New(os.Stdout, "FEED: ", log.LstdFlags))
	recorder := repository.NewActivityRecorder(activityStore, log.New(os.Stdout, "ACTIVITY: ", log.LstdFlags))
	recorder.Notify = feed.Publish
	leadRepo := repository.NewLeadRepository(leadStore, recorder, log.New(os.Stdout, "LEAD: ", log.LstdFlags))

	suggester := utils.NewSuggester(
		config.AppConfig.AI.BaseURL,
		config.AppConfig.AI.APIKey,
		config.AppConfig.AI.Model,
		config.AppConfig.AI.EnrichProfile,
		log.New(os.Stdout, "AI: ", log.LstdFlags),
	)

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Initialize and start the follow-up digest worker
	digestMailer := &utils.DigestMailer{
		Host:      config.AppConfig.SMTP.Host,
		Port:      config.AppConfig.SMTP.Port,
		Username:  config.AppConfig.SMTP.Username,
		Password:  config.AppConfig.SMTP.Password,
		FromEmail: config.AppConfig.SMTP.FromEmail,
		Recipient: config.AppConfig.DigestRecipient,
	}
	digestWorker := worker.NewDigestWorker(leadStore, digestMailer, log.New(os.Stdout, "DIGEST: ", log.LstdFlags))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go digestWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, routes.Dependencies{
		Leads:      leadRepo,
		Activities: recorder,
		Suggester:  suggester,
		Feed:       feed,
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
