package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/auth"
	"github.com/BerylCAtieno/loanmitra/internal/config"
	"github.com/BerylCAtieno/loanmitra/internal/db"
	"github.com/BerylCAtieno/loanmitra/internal/llm"
	"github.com/BerylCAtieno/loanmitra/internal/repository"
	"github.com/BerylCAtieno/loanmitra/internal/router"
	"github.com/BerylCAtieno/loanmitra/internal/services"
	"github.com/BerylCAtieno/loanmitra/internal/storage"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Initialize database
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	// Run migrations
	if err := db.RunMigrations(database, cfg.DatabaseURL); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	ctx := context.Background()

	// Content store
	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "driver", cfg.StorageDriver, "error", err)
	}

	completer, err := llm.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize LLM client", "provider", cfg.LLMProvider, "error", err)
	}

	// OAuth state lives in redis when configured so replicas can share it
	states := auth.NewMemoryStateStore()
	if cfg.RedisAddr != "" {
		states, err = auth.NewRedisStateStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
	}

	google := auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	if google == nil {
		logger.Warn("Google sign-in disabled; GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}
	authService := auth.NewService(auth.NewSigner(cfg.JWTSecret, cfg.TokenTTL), states, cfg.UIRedirectURL, google)

	docRepo := repository.NewRepository(database)

	// Setup HTTP router
	handler := router.NewRouter(router.Deps{
		Documents:       services.NewDocumentService(docRepo, store, cfg.MaxFileSize, logger),
		Functions:       services.NewFunctionService(completer, logger),
		Auth:            authService,
		MaxFileSize:     cfg.MaxFileSize,
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		Logger:          logger,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "storage", cfg.StorageDriver, "llm_provider", cfg.LLMProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
