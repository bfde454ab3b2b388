package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/taskledger/taskledger-api/internal/config"
	"github.com/taskledger/taskledger-api/internal/database"
	"github.com/taskledger/taskledger-api/internal/handler"
	"github.com/taskledger/taskledger-api/internal/middleware"
	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/repository"
	"github.com/taskledger/taskledger-api/internal/router"
	"github.com/taskledger/taskledger-api/internal/security"
	"github.com/taskledger/taskledger-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Task{}, &models.AuditLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	hasher, err := security.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatalf("failed to create password hasher: %v", err)
	}
	tokens := security.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditRepo, redisClient, cfg.StatsCacheTTL, cfg.AuditDefaultPageSize, cfg.AuditMaxPageSize, logger)
	authService := service.NewAuthService(userRepo, hasher, tokens, auditService, validate, logger)
	taskService := service.NewTaskService(db, taskRepo, auditRepo, auditService, validate, cfg.AuditDefaultPageSize, cfg.AuditMaxPageSize, logger)
	userService := service.NewUserService(userRepo, cfg.AuditDefaultPageSize, cfg.AuditMaxPageSize, logger)
	identityService := service.NewIdentityService(tokens, userRepo, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	auditHandler := handler.NewAuditHandler(auditService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:  authHandler,
		TaskHandler:  taskHandler,
		UserHandler:  userHandler,
		AuditHandler: auditHandler,
		AuthRequired: middleware.RequireAuth(identityService),
		LoginLimiter: middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
