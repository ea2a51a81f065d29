package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/app"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/metrics"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/upload"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/handlers"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/services"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/config"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/utils"

	_ "github.com/MuhamadAgungGumelar/stock-delivery-be/docs"
)

// @title Stock & Delivery API
// @version 1.0
// @description Inventory, customers, delivery persons and the order delivery lifecycle.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load config
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid configuration")
	}
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("🚀 Starting stock-delivery API")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init database
	db, err := app.OpenDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to connect to database")
	}
	defer db.Close()

	// Token blocklist: Redis when configured, memory otherwise
	var blocklist auth.TokenBlocklist = auth.NewMemoryBlocklist()
	if cfg.RedisURL != "" {
		redisBlocklist, err := auth.NewRedisBlocklist(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Failed to connect to Redis")
		}
		defer redisBlocklist.Close()
		blocklist = redisBlocklist
	} else {
		log.Warn().Msg("⚠️ REDIS_URL not set, revoked tokens are kept in memory")
	}

	m := metrics.New()
	auditService := audit.NewService(db.GORM)
	authService := auth.NewService(db.GORM, cfg.JWTSecret, blocklist)

	seed := app.AdminSeed(cfg)
	if cfg.BootstrapAdmin {
		if _, err := authService.EnsureDefaultAdmin(ctx, seed); err != nil {
			log.Fatal().Err(err).Msg("❌ Failed to bootstrap admin")
		}
	}

	storage, err := upload.NewServiceFromOptions(ctx, upload.Options{
		LocalDir:     cfg.UploadDir,
		LocalBaseURL: cfg.UploadBaseURL,
		S3: upload.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to init file storage")
	}

	// Init repositories
	productRepo := repositories.NewProductRepo(db.GORM)
	customerRepo := repositories.NewCustomerRepo(db.GORM)
	personRepo := repositories.NewDeliveryPersonRepo(db.GORM)
	orderRepo := repositories.NewOrderRepo(db.GORM)
	dashboardRepo := repositories.NewDashboardRepo(db.GORM)

	// Init services
	productService := services.NewProductService(productRepo, auditService)
	customerService := services.NewCustomerService(customerRepo, auditService)
	personService := services.NewDeliveryPersonService(personRepo, authService, auditService)
	orderService := services.NewOrderService(orderRepo, productRepo, customerRepo, personRepo, auditService, m,
		services.OrderOptions{DecrementStock: cfg.DecrementStock})
	dashboardService := services.NewDashboardService(dashboardRepo, cfg.LowStockThreshold)
	reportService := services.NewReportService(orderRepo, export.NewService(), storage)

	routes := &handlers.Routes{
		AuthService:     authService,
		Metrics:         m,
		Auth:            auth.NewHandler(authService, auditService, auth.SetupOptions{Key: cfg.SetupKey, Seed: seed}),
		Audit:           audit.NewHandler(auditService),
		Health:          handlers.NewHealthHandler(db.DB, storage.ProviderName()),
		Products:        handlers.NewProductHandler(productService),
		Customers:       handlers.NewCustomerHandler(customerService),
		DeliveryPersons: handlers.NewDeliveryPersonHandler(personService),
		Orders:          handlers.NewOrderHandler(orderService),
		Dashboard:       handlers.NewDashboardHandler(dashboardService),
		Reports:         handlers.NewReportHandler(reportService),
	}

	// Init Fiber app
	server := fiber.New(fiber.Config{
		AppName:      "Stock & Delivery API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	// Middleware
	server.Use(recover.New())
	server.Use(cors.New())
	server.Use(utils.RequestLogger())
	server.Use(m.Middleware())

	// Swagger
	server.Get("/swagger/*", swagger.HandlerDefault)

	// Stored reports when kept on local disk
	if storage.ProviderName() == "local" {
		server.Static(cfg.UploadBaseURL, cfg.UploadDir)
	}

	routes.Register(server)

	go func() {
		<-ctx.Done()
		log.Info().Msg("🛑 Shutting down API...")
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("❌ Shutdown failed")
		}
	}()

	log.Info().Msgf("✅ API running at :%s", cfg.Port)
	log.Info().Msgf("📄 Swagger UI: http://localhost:%s/swagger/", cfg.Port)
	if err := server.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("❌ Server stopped")
	}
}
