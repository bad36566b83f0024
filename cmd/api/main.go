package main

import (
	"invoicegen/internal/config"
	"invoicegen/internal/database"
	"invoicegen/internal/handler"
	"invoicegen/internal/logger"
	"invoicegen/internal/middleware"
	"invoicegen/internal/repository"
	"invoicegen/internal/service"
	"invoicegen/internal/storage"
	"invoicegen/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Invoice Generator API
// @version         1.0
// @description     Client-facing invoice drafting API with a first-party analytics collector.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info().Msg("no configs/.env file found, using environment")
	}

	if err := logger.Setup(logger.FromEnv()); err != nil {
		log.Fatal().Err(err).Msg("logger setup failed")
	}

	cfg := config.Load()

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Draft persistence on local disk
	draftStore, err := storage.NewDraftStore(cfg.DataDir, storage.DefaultDebounce)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("draft store init failed")
	}
	defer draftStore.Flush()

	jwtSecret := middleware.GetJWTSecret()

	// Set up dependencies (Repository -> Service -> Handler)
	eventRepo := repository.NewEventRepository(db)
	analyticsService := service.NewAnalyticsService(eventRepo, wsHub, service.AnalyticsConfig{
		IPHashSalt:      cfg.IPHashSalt,
		RateLimitPerMin: cfg.RateLimitPerMin,
		UAMaxLen:        cfg.UAMaxLen,
		PathMaxLen:      cfg.PathMaxLen,
		RefMaxLen:       cfg.RefMaxLen,
		VIDMaxLen:       cfg.VIDMaxLen,
		MetaMaxLen:      cfg.MetaMaxLen,
		RetentionDays:   cfg.RetentionDays,
	})
	invoiceService := service.NewInvoiceService(draftStore)

	// Initialize Handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, analyticsService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, wsHub, jwtSecret, cfg.AdminPasswordHash, cfg.SiteHosts)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Visitor-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Register API Routes
	invoiceHandler.RegisterRoutes(router.Group(""))
	analyticsHandler.RegisterRoutes(router.Group(""))

	log.Info().Str("port", cfg.Port).Msg("server listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
