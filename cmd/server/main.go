package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pexl-backend/internal/config"
	"pexl-backend/internal/database"
	"pexl-backend/internal/handlers"
	"pexl-backend/internal/middleware"
	"pexl-backend/internal/payment"
	"pexl-backend/internal/services"
	"pexl-backend/internal/supabase"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	dbURL := cfg.DatabaseURL
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required; set it to your Supabase PostgreSQL connection string")
	}

	// Run migrations before anything touches the schema
	migrator, err := database.NewMigrator(dbURL)
	if err != nil {
		logger.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		logger.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()
	logger.Info("Migrations completed successfully")

	// Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		logger.Fatalf("Failed to initialize storage client: %v", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	dbClient, err := supabase.NewDatabaseClient(dbURL)
	if err != nil {
		logger.Fatalf("Failed to initialize database client: %v", err)
	}
	defer dbClient.Close()

	// Payment processor
	paymentClient := payment.NewClient(cfg.PaymentAPIBaseURL, cfg.PaymentAPIKey)
	coordinator := payment.NewCoordinator(paymentClient, cfg.PaymentConfirmTimeout)

	checkoutService := services.NewCheckoutService(dbClient, coordinator, realtimeClient, cfg.PaymentCurrency, logger)

	// Handlers
	uploadHandler := handlers.NewUploadHandler(dbClient, storageClient, realtimeClient, logger)
	filesHandler := handlers.NewFilesHandler(dbClient, storageClient, logger)
	shopsHandler := handlers.NewShopsHandler(dbClient)
	draftsHandler := handlers.NewDraftsHandler(dbClient, checkoutService, logger)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	paymentsHandler := handlers.NewPaymentsHandler(coordinator, cfg.PaymentCurrency)
	ordersHandler := handlers.NewOrdersHandler(dbClient, realtimeClient, checkoutService, logger)
	usersHandler := handlers.NewUsersHandler(dbClient)
	webhookHandler := handlers.NewWebhookHandler(cfg, checkoutService, logger)

	// Setup router
	router := gin.Default()
	router.Use(gin.Recovery())

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Files
	api.POST("/files", uploadHandler.Upload)
	api.GET("/files/:file_id", filesHandler.Download)
	api.DELETE("/files/:file_id", filesHandler.Delete)
	api.DELETE("/files", filesHandler.PurgeAll)

	// Shops
	api.GET("/shops", shopsHandler.List)
	api.GET("/shops/:shop_id", shopsHandler.Get)

	// Draft order
	api.GET("/draft", draftsHandler.Get)
	api.POST("/draft/files", draftsHandler.RegisterFile)
	api.PATCH("/draft/files/:file_id/settings", draftsHandler.UpdateSetting)
	api.PUT("/draft/shop", draftsHandler.SelectShop)
	api.PUT("/draft/instructions", draftsHandler.SetInstructions)
	api.DELETE("/draft", draftsHandler.Clear)

	// Checkout and payments
	api.POST("/checkout/intent", checkoutHandler.CreateIntent)
	api.POST("/payments/intents", paymentsHandler.CreateIntent)

	// Orders
	api.POST("/orders", ordersHandler.Create)
	api.GET("/orders/check/:order_ref", ordersHandler.Check)

	// Users
	api.GET("/users/role", usersHandler.Role)

	// Owner area: redirects instead of JSON errors
	owner := router.Group("/api/v1/owner")
	owner.Use(middleware.OwnerGate(cfg, dbClient.GetRole))
	owner.GET("/orders", ordersHandler.List)
	owner.POST("/orders/complete", ordersHandler.Complete)
	owner.GET("/shop", shopsHandler.GetOwned)
	owner.PATCH("/shop", shopsHandler.UpdateOwned)

	// Webhook (no JWT, shared token)
	router.POST("/api/v1/webhooks/payment", webhookHandler.HandlePayment)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Infof("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
