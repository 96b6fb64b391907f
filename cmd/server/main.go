package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/teamproxima/proxima/internal/config"
	"github.com/teamproxima/proxima/internal/database"
	"github.com/teamproxima/proxima/internal/repositories"
	"github.com/teamproxima/proxima/internal/services"
	"github.com/teamproxima/proxima/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting proxima server...")

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	// Run GORM auto-migration
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Wire the service graph. Auth endpoints are mounted by the deployment
	// that carries the provider verifier integrations.
	userRepo := repositories.NewUserRepository(db)
	friendRepo := repositories.NewFriendshipRepository(db)

	gateway := NewGateway(
		services.NewFriendService(userRepo, friendRepo, cfg),
		services.NewUserService(userRepo),
		cfg.JWTSecret,
	)
	if err := gateway.Start(cfg.AppPort); err != nil {
		logger.Fatal("Failed to start gateway", err)
	}

	logger.Info("Server started successfully", "env", cfg.AppEnv, "port", cfg.AppPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	gateway.Stop()
}
