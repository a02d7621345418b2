package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/handybob/callops/internal/config"
	"github.com/handybob/callops/internal/handler"
	"github.com/handybob/callops/internal/repository"
	"github.com/handybob/callops/pkg/logger"
	"github.com/handybob/callops/pkg/redis"
)

// Server represents the call operations server
type Server struct {
	config         *config.Config
	router         *mux.Router
	handlerManager *handler.HandlerManager
}

// NewServer wires the database, optional redis, and all handlers.
func NewServer(cfg *config.Config) *Server {
	// Initialize zap logger and redirect stdlib log to it
	if _, err := logger.Init(os.Getenv("LOG_ENV")); err != nil {
		logger.Base().Error("Failed to initialize zap logger, falling back to std log")
	}

	db, err := repository.NewDatabaseConnection(repository.LoadDatabaseConfigFromEnv())
	if err != nil {
		logger.Base().Error("Failed to connect to database", zap.Error(err))
		return nil
	}
	if err := repository.AutoMigrate(db); err != nil {
		logger.Base().Error("Failed to run database migrations", zap.Error(err))
		return nil
	}
	repoManager := repository.NewGormRepositoryManager(db)

	// Redis is optional; without it call lifecycle events are simply
	// not broadcast.
	var redisService redis.RedisServiceInterface
	if cfg.RedisEnabled {
		svc, err := redis.NewRedisService(&redis.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Base().Warn("Failed to connect to redis, call events disabled", zap.Error(err))
		} else {
			redisService = svc
		}
	}

	router := mux.NewRouter()
	handlerManager := handler.NewHandlerManager(cfg, repoManager, redisService)
	handlerManager.SetupAllRoutes(router)

	return &Server{
		config:         cfg,
		router:         router,
		handlerManager: handlerManager,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Base().Info("Starting server", zap.String("addr", addr))
	return server.ListenAndServe()
}

func main() {
	// Load .env file for local development if it exists.
	// This will not override environment variables set by the deployment.
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: .env file not found or skipped (expected in production): %v", err)
	}

	cfg := config.LoadFromEnv()

	server := NewServer(cfg)
	if server == nil {
		log.Fatal("Failed to create server")
	}
	defer logger.Sync()

	logger.Base().Info("Server initialized successfully", zap.String("port", cfg.Port))

	if err := server.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
