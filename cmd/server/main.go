package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"bgclub-bot/internal/adapters/http/middleware"
	"bgclub-bot/internal/adapters/http/routes"
	"bgclub-bot/internal/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	_ "bgclub-bot/docs" // Swagger docs
)

// @title Board Game Club Bot API
// @version 1.0
// @description LINE chatbot backend for the board game club's lending desk

// @contact.name Club Dev Team

// @host localhost:3000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the admin token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Board Game Club Bot v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (wires repositories, services and handlers)
	reminder, err := routes.Setup(app, cfg, logger)
	if err != nil {
		logger.Fatal("❌ Failed to set up routes", zap.Error(err))
	}

	// Daily borrow reminder (08:30)
	if err := reminder.Start(); err != nil {
		logger.Fatal("❌ Failed to start reminder schedule", zap.Error(err))
	}
	defer reminder.Stop()

	// Graceful shutdown
	go gracefulShutdown(app, logger)

	// Start server
	logger.Info("🚀 Server starting",
		zap.String("port", cfg.Port), zap.String("mode", cfg.AppMode))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("❌ Failed to start server", zap.Error(err))
	}
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		logger.Error("❌ Error during shutdown", zap.Error(err))
	}
	logger.Info("✅ Server stopped gracefully")
}
