package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"loanportal/internal/adapters/http/middleware"
	"loanportal/internal/adapters/http/routes"
	"loanportal/internal/bootstrap"
	"loanportal/internal/config"
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	_ "loanportal/docs" // Swagger docs
)

// @title Lending Portal API
// @version 1.0
// @description Consumer lending: registration, onboarding, loan applications and withdrawals.

// @contact.name API Support

// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("❌ Failed to load configuration: %v", err)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, JSON: cfg.IsProd()})
	if !cfg.EnvFileLoaded {
		log.Warn("⚠️ No .env file found, using environment variables")
	}

	rt, err := bootstrap.Open(cfg, log)
	if err != nil {
		log.Fatalf("❌ Failed to open storage: %v", err)
	}
	defer rt.Close()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.Site.OrgDisplayName + " API",
		ErrorHandler: middleware.CustomErrorHandler(log),
	})

	// Setup middlewares
	middleware.Setup(app, cfg, log)

	// Setup routes
	svc := routes.Setup(app, routes.Deps{
		Config:   cfg,
		Repos:    rt.Repos,
		Mailer:   rt.Mailer,
		Fallback: rt.Fallback,
		Log:      log,
		DB:       rt.DB,
	})

	// Seed the dev staff account
	if err := config.NewSeeder(cfg, svc.Auth, log).Run(context.Background()); err != nil {
		log.WithError(err).Warn("⚠️ Seeding failed")
	}

	// Purge expired sessions on a schedule
	cronService := services.NewCronService(rt.Repos.Sessions, cfg.Jobs.SessionCleanupCron, log)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Invalid SESSION_CLEANUP_CRON: %v", err)
	}
	defer cronService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app, log)

	// Start server
	log.Infof("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Errorf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, log logrus.FieldLogger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("❌ Error during shutdown")
	}
	log.Info("✅ Server stopped gracefully")
}
