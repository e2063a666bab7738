package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yukikurage/faculty-feedback-api/internal/config"
	"github.com/yukikurage/faculty-feedback-api/internal/database"
	"github.com/yukikurage/faculty-feedback-api/internal/logger"
	"github.com/yukikurage/faculty-feedback-api/internal/middleware"
	"github.com/yukikurage/faculty-feedback-api/internal/ratelimit"
	"github.com/yukikurage/faculty-feedback-api/internal/router"
	"github.com/yukikurage/faculty-feedback-api/internal/services"
	"github.com/yukikurage/faculty-feedback-api/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	gin.SetMode(cfg.Server.Mode)

	// Connect to database
	db, err := database.Connect(cfg.Database, zlog)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.Migrate(db, zlog); err != nil {
		return err
	}

	store, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.MaxFileSize, cfg.Upload.MaxFiles)
	if err != nil {
		return err
	}

	// Rate limiting is skipped when Redis is not configured or unreachable
	var limiter middleware.Limiter
	if cfg.Redis.Addr != "" {
		rdb, err := ratelimit.NewClient(cfg.Redis, zlog)
		if err != nil {
			zlog.Warn("Rate limiting disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			limiter = ratelimit.NewLimiter(rdb)
		}
	}

	// Initialize AI service
	var drafter services.ResponseDrafter
	if cfg.OpenAI.APIKey != "" {
		drafter = services.NewAIService(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	engine, err := router.New(router.Dependencies{
		Config:  cfg,
		DB:      db,
		Store:   store,
		Limiter: limiter,
		Drafter: drafter,
		Logger:  zlog,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		zlog.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
