package main

import (
	"log"
	"net/http"

	_ "kbine/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"kbine/internal/auth"
	"kbine/internal/cache"
	"kbine/internal/config"
	"kbine/internal/db"
	"kbine/internal/handler"
	"kbine/internal/logger"
	"kbine/internal/model"
	"kbine/internal/notify"
	"kbine/internal/provider"
	"kbine/internal/repository"
	"kbine/internal/router"
	"kbine/internal/service"
)

// @title Kbine API
// @version 1.0
// @description Airtime and data-bundle ordering API with Wave and TouchPoint mobile-money payments.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.Env); err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Operator{},
		&model.Plan{},
		&model.Order{},
		&model.Payment{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	operatorRepo := repository.NewOperatorRepository(gormDB)
	planRepo := repository.NewPlanRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)
	paymentRepo := repository.NewPaymentRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize provider adapters with the shared retry policy
	retryPolicy := provider.NewRetryPolicy(cfg.Retry)
	adapters := []provider.Adapter{
		provider.NewWaveAdapter(cfg.Wave, nil, retryPolicy),
		provider.NewTouchPointAdapter(cfg.TouchPoint, nil, retryPolicy),
	}

	// Staff notifications are fire-and-forget
	dispatcher := notify.NewDispatcher(notify.NewLogNotifier())
	defer dispatcher.Close()

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	catalogService := service.NewCatalogService(operatorRepo, planRepo, cacheClient)
	orderService := service.NewOrderService(orderRepo, planRepo)
	paymentService := service.NewPaymentService(orderRepo, paymentRepo, adapters, dispatcher)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	orderHandler := handler.NewOrderHandler(orderService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	webhookHandler := handler.NewWebhookHandler(paymentService)

	// Register routes
	router.Register(
		e,
		cfg,
		authHandler,
		catalogHandler,
		orderHandler,
		paymentHandler,
		webhookHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
