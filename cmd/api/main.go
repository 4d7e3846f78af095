package main

import (
	"fmt"
	"log"

	"fieldexpense/internal/config"
	"fieldexpense/internal/database"
	"fieldexpense/internal/handler"
	"fieldexpense/internal/middleware"
	"fieldexpense/internal/repository"
	"fieldexpense/internal/service"
	"fieldexpense/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := buildLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer logger.Sync()

	// Single source for the signing secret: the loaded configuration.
	middleware.SetJWTSecret(cfg.JWT.Secret)

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	reportRepo := repository.NewReportRepository(db)
	eventRepo := repository.NewApprovalEventRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	mileageRate, err := cfg.Reimbursement.MileageRateDecimal()
	if err != nil {
		logger.Fatal("invalid mileage rate", zap.Error(err))
	}

	locks := service.NewPeriodLocks()
	aggregator := service.NewAggregator(entryRepo, mileageRate)
	engine := service.NewRuleEngine(cfg.Reimbursement.UnconfiguredPolicy)
	notifier := service.NewHubNotifier(wsHub, logger)

	userService := service.NewUserService(userRepo, auditRepo, txManager, cfg.JWT.Secret)
	entryService := service.NewEntryService(entryRepo, reportRepo, auditRepo, txManager, locks)
	ruleService := service.NewRuleService(ruleRepo, auditRepo, txManager)
	reportService := service.NewReportService(
		reportRepo, ruleRepo, eventRepo, auditRepo, userRepo,
		txManager, aggregator, engine, locks, notifier, logger,
	)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statsRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	entryHandler := handler.NewEntryHandler(entryService)
	ruleHandler := handler.NewRuleHandler(ruleService)
	reportHandler := handler.NewReportHandler(reportService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	entryHandler.RegisterRoutes(router.Group(""))
	ruleHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func buildLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if err := zcfg.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	return zcfg.Build()
}
