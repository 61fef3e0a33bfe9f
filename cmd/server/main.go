// Package main is the API server entry point: it connects the databases,
// starts the outbox dispatcher and serves HTTP until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalyst/internal/config"
	"catalyst/internal/repositories"
	"catalyst/internal/routes"
	"catalyst/internal/services/notification"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	if config.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.WithError(err).Fatal("database initialization failed")
	}
	defer closeConnections(log)

	store := repositories.NewGormStore(repositories.DB)

	// Outbox dispatcher delivers queued emails in the background.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := notification.NewDispatcher(store, buildMailer(log), log)
	go dispatcher.Run(ctx)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	for _, path := range []string{"/api/register", "/api/login", "/api/forgot-password"} {
		app.Use(path, limiter.New(limiter.Config{
			Max:        5,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"success": false,
					"message": "too many requests, please try again later",
				})
			},
		}))
	}

	routes.SetupRoutes(app, store, log)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Warn("shutdown did not finish cleanly")
		}
	}()

	if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// buildMailer returns an SMTP mailer when SMTP_HOST is configured; otherwise
// emails land in the log, which is what development wants.
func buildMailer(log *logrus.Logger) notification.Mailer {
	host := config.GetEnv("SMTP_HOST", "")
	if host == "" {
		log.Warn("SMTP_HOST not set, emails will be logged instead of sent")
		return &notification.LogMailer{Log: log}
	}
	return notification.NewSMTPMailer(
		host,
		config.GetEnv("SMTP_PORT", "587"),
		config.GetEnv("SMTP_FROM", "no-reply@catalyst.local"),
		config.GetEnv("SMTP_USERNAME", ""),
		config.GetEnv("SMTP_PASSWORD", ""),
	)
}

func closeConnections(log *logrus.Logger) {
	if repositories.DB != nil {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.WithError(err).Warn("failed to close database connection")
			}
		}
	}
	if repositories.CacheService != nil {
		if err := repositories.CacheService.Close(); err != nil {
			log.WithError(err).Warn("failed to close redis connection")
		}
	}
}
