package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mesh2A/digitduel/internal/api"
	"github.com/Mesh2A/digitduel/internal/config"
	"github.com/Mesh2A/digitduel/internal/database"
	"github.com/Mesh2A/digitduel/internal/repositories"
	"github.com/Mesh2A/digitduel/internal/services"
	"github.com/Mesh2A/digitduel/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize logger
	logger.Init()
	defer logger.Sync()

	logger.Info("Starting DigitDuel engine...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

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

	// Connect redis for lobby broadcast. Gameplay runs without it.
	rdb := connectRedis(cfg)

	// Wire repositories and services
	walletRepo := repositories.NewWalletRepository(db)
	queueRepo := repositories.NewQueueRepository(db)
	roomRepo := repositories.NewRoomRepository(db)
	matchRepo := repositories.NewMatchRepository(db)
	connRepo := repositories.NewConnectionRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)

	connSvc := services.NewConnectionService(db, connRepo, cfg)
	matchSvc := services.NewMatchService(db, matchRepo, walletRepo, connSvc, cfg)
	lobbySvc := services.NewLobbyService(rdb, queueRepo)
	queueSvc := services.NewQueueService(db, queueRepo, roomRepo, matchRepo, walletRepo, settingsRepo, matchSvc, connSvc, lobbySvc, cfg)
	roomSvc := services.NewRoomService(db, roomRepo, queueRepo, matchRepo, walletRepo, settingsRepo, matchSvc, connSvc, cfg)
	adminSvc := services.NewAdminService(db, settingsRepo, queueRepo, roomRepo, matchRepo, walletRepo, matchSvc)

	router := api.NewRouter(api.Deps{
		Config:     cfg,
		WalletRepo: walletRepo,
		ConnSvc:    connSvc,
		QueueSvc:   queueSvc,
		RoomSvc:    roomSvc,
		MatchSvc:   matchSvc,
		AdminSvc:   adminSvc,
		LobbySvc:   lobbySvc,
	})

	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Engine listening", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	logger.Info("Engine stopped")
}

// connectRedis opens the lobby broadcast client, or nil when redis is
// unreachable or unconfigured.
func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("Invalid REDIS_URL, lobby broadcast disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, lobby broadcast disabled", "error", err)
		_ = client.Close()
		return nil
	}

	logger.Info("Redis connected")
	return client
}
