// Package routes wires services to HTTP endpoints. All construction happens
// here so main stays small and handlers receive fully-built services.
package routes

import (
	"catalyst/internal/config"
	"catalyst/internal/handlers"
	"catalyst/internal/middleware"
	"catalyst/internal/repositories"
	"catalyst/internal/services/auth"
	"catalyst/internal/services/campaign"
	"catalyst/internal/services/export"
	"catalyst/internal/services/fees"
	"catalyst/internal/services/follow"
	"catalyst/internal/services/grants"
	"catalyst/internal/services/ledger"
	"catalyst/internal/services/payment"
	"catalyst/internal/services/recommendation"
	"catalyst/internal/services/returns"
	"catalyst/internal/services/user"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// SetupRoutes builds the service graph on top of the shared DataStore and
// registers every endpoint.
func SetupRoutes(app *fiber.App, store repositories.DataStore, log *logrus.Logger) {
	feeCalc := fees.NewCalculator()
	ledgerService := ledger.NewService(store)
	userService := user.NewService(store, ledgerService, repositories.CacheService)
	authService := auth.NewService(store, log)
	recommendationService := recommendation.NewService(store, ledgerService)
	campaignService := campaign.NewService(store)
	returnsService := returns.NewService(store, ledgerService)
	followService := follow.NewService(store)
	exportService := export.NewService(store)

	adminEmail := config.GetEnv("ADMIN_ALERT_EMAIL", "operations@catalyst.local")
	grantService := grants.NewService(store, ledgerService, recommendationService, feeCalc, userService, adminEmail)

	var gateway payment.Gateway
	if key := config.GetEnv("STRIPE_SECRET_KEY", ""); key != "" {
		gateway = payment.NewStripeGateway(key)
	}
	paymentService := payment.NewService(store, ledgerService, feeCalc, gateway)

	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService, ledgerService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)
	grantHandler := handlers.NewGrantHandler(grantService)
	campaignHandler := handlers.NewCampaignHandler(campaignService)
	returnsHandler := handlers.NewReturnsHandler(returnsService)
	followHandler := handlers.NewFollowHandler(followService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	adminHandler := handlers.NewAdminHandler(userService, exportService)
	healthHandler := handlers.NewHealthHandler(repositories.CacheService)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")

	// Public endpoints
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Post("/refresh", authHandler.Refresh)
	api.Post("/forgot-password", authHandler.ForgotPassword)
	api.Post("/reset-password", authHandler.ResetPassword)

	api.Get("/campaigns", campaignHandler.List)
	api.Get("/campaigns/:id", campaignHandler.Get)

	// Grant intake is public: DAF donors usually have no account yet.
	api.Post("/grants", grantHandler.Create)
	api.Get("/grants/providers", grantHandler.ListProviders)

	// Gateway callbacks
	api.Post("/payments/webhook", paymentHandler.Webhook)

	// Authenticated endpoints
	protected := api.Group("", middleware.Auth)
	protected.Get("/me", userHandler.Me)
	protected.Get("/me/history", userHandler.BalanceHistory)
	protected.Post("/change-password", authHandler.ChangePassword)

	protected.Post("/payments/deposit", paymentHandler.Deposit)

	protected.Post("/follow/:id", followHandler.Request)
	protected.Get("/follow/requests", followHandler.Incoming)
	protected.Post("/follow/requests/:id/accept", followHandler.Accept)
	protected.Post("/follow/requests/:id/decline", followHandler.Decline)

	protected.Post("/recommendations", recommendationHandler.Create)
	protected.Get("/recommendations/:id", recommendationHandler.Get)

	// Admin endpoints
	admin := api.Group("/admin", middleware.Auth, middleware.AdminOnly)
	admin.Post("/campaigns", campaignHandler.Create)

	admin.Get("/recommendations", recommendationHandler.List)
	admin.Post("/recommendations/:id/approve", recommendationHandler.Approve)
	admin.Post("/recommendations/:id/reject", recommendationHandler.Reject)

	admin.Get("/grants", grantHandler.List)
	admin.Get("/grants/:id", grantHandler.Get)
	admin.Post("/grants/:id/in-transit", grantHandler.SetInTransit)
	admin.Post("/grants/:id/reject", grantHandler.Reject)
	admin.Post("/grants/:id/received", grantHandler.MarkReceived)

	admin.Post("/returns", returnsHandler.Distribute)
	admin.Get("/returns", returnsHandler.History)

	admin.Post("/balance/adjust", adminHandler.AdjustBalance)
	admin.Post("/balance/group-allocate", adminHandler.AllocateGroupBalance)

	admin.Get("/exports/recommendations", adminHandler.ExportRecommendations)
	admin.Get("/exports/grants", adminHandler.ExportGrants)
	admin.Get("/exports/ledger", adminHandler.ExportLedger)
	admin.Get("/exports/returns", adminHandler.ExportReturns)
}
