package routes

import (
	"bgclub-bot/internal/adapters/http/handlers"
	"bgclub-bot/internal/adapters/http/middleware"
	"bgclub-bot/internal/adapters/line"
	"bgclub-bot/internal/adapters/persistence/repositories"
	"bgclub-bot/internal/adapters/persistence/sheets"
	"bgclub-bot/internal/config"
	"bgclub-bot/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// Setup wires repositories, services and handlers and mounts all routes.
// It returns the reminder service so main can start and stop its schedule.
func Setup(app *fiber.App, cfg *config.Config, logger *zap.Logger) (*services.ReminderService, error) {
	// Backing store
	sheetsClient, err := sheets.NewClient(sheets.Config{
		ServiceAccountEmail: cfg.Sheets.ServiceAccountEmail,
		PrivateKeyPEM:       cfg.Sheets.PrivateKeyPEM,
	}, logger)
	if err != nil {
		return nil, err
	}

	assetRepo := repositories.NewAssetRepository(sheetsClient, cfg.Sheets.SpreadsheetID, cfg.AssetSheetName())
	memberRepo := repositories.NewMemberRepository(sheetsClient, cfg.Sheets.SpreadsheetID, cfg.MemberSheetName())

	// Messaging
	lineClient := line.NewClient(line.Config{
		ChannelSecret:      cfg.LINE.ChannelSecret,
		ChannelAccessToken: cfg.LINE.ChannelAccessToken,
	})

	// Core services
	registry := services.NewSessionRegistry()
	flag := services.NewFeatureSwitch()
	intake := services.NewIntakeService(services.IntakeConfig{
		SignInFormID:     cfg.Forms.SignInFormID,
		SuggestionFormID: cfg.Forms.SuggestionFormID,
	}, logger)
	conversation := services.NewConversationService(registry, assetRepo, memberRepo, flag, intake, logger)
	reminder := services.NewReminderService(assetRepo, memberRepo, lineClient, logger)

	// Handlers
	healthHandler := handlers.NewHealthHandler(cfg)
	webhookHandler := handlers.NewWebhookHandler(conversation, lineClient, logger)
	assetHandler := handlers.NewAssetHandler(assetRepo)
	adminHandler := handlers.NewAdminHandler(memberRepo, registry, flag, logger)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// LINE webhook
	app.Post("/webhook", webhookHandler.Receive)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	assetsGroup := apiV1.Group("/assets")
	assetsGroup.Get("/", assetHandler.List)
	assetsGroup.Get("/search", assetHandler.Search)
	assetsGroup.Get("/:id", assetHandler.Get)

	adminGroup := apiV1.Group("/admin",
		middleware.AdminRateLimiter(),
		middleware.AdminAuth(cfg.Admin.TokenHash))
	adminGroup.Post("/register-keys", adminHandler.IssueKeys)
	adminGroup.Get("/status", adminHandler.Status)

	return reminder, nil
}
