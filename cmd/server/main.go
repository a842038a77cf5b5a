package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poshaakwala/storefront-backend/config"
	"github.com/poshaakwala/storefront-backend/internal/app/controller"
	"github.com/poshaakwala/storefront-backend/internal/app/repository"
	"github.com/poshaakwala/storefront-backend/internal/app/service"
	"github.com/poshaakwala/storefront-backend/internal/db"
	"github.com/poshaakwala/storefront-backend/internal/middleware"
	"github.com/poshaakwala/storefront-backend/internal/router"
	"github.com/poshaakwala/storefront-backend/internal/scheduler"
	"github.com/poshaakwala/storefront-backend/internal/storage"
	ws "github.com/poshaakwala/storefront-backend/internal/websocket"
	"github.com/poshaakwala/storefront-backend/pkg/clerk"
	"github.com/poshaakwala/storefront-backend/pkg/logger"
	redisclient "github.com/poshaakwala/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	logger.Info("Starting storefront backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	gdb, err := db.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(gdb); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Object storage
	images := storage.NewS3Storage(ctx, storage.Options{
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		BaseURL:         cfg.S3.BaseURL,
		Folder:          cfg.S3.Folder,
	})

	// Upload intent log; without redis uploads are not tracked and nothing is swept
	var intents service.UploadIntentLog
	var sweeper *scheduler.OrphanImageScheduler
	rdb, err := redisclient.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, orphan image sweeping disabled", map[string]interface{}{
			"addr":  cfg.Redis.Addr(),
			"error": err.Error(),
		})
	} else {
		defer rdb.Close()
		intentLog := redisclient.NewUploadIntentLog(rdb)
		intents = intentLog
		sweeper = scheduler.NewOrphanImageScheduler(cfg.Sweeper.Schedule, cfg.Sweeper.Grace, intentLog, images)
		if err := sweeper.Start(); err != nil {
			logger.Fatal("Failed to start orphan image scheduler", err)
		}
		defer sweeper.Stop()
	}

	// Identity provider
	var identity service.IdentityProvider
	if cfg.Clerk.SecretKey != "" {
		clerkClient, err := clerk.NewClient(clerk.Config{
			SecretKey: cfg.Clerk.SecretKey,
			BaseURL:   cfg.Clerk.APIURL,
		})
		if err != nil {
			logger.Fatal("Failed to initialize identity provider client", err)
		}
		identity = clerkClient
	} else {
		logger.Warn("CLERK_SECRET_KEY not set, admin user endpoints will fail")
	}

	// Catalog event hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	productRepo := repository.NewProductRepository(gdb)
	cartRepo := repository.NewCartRepository(gdb)
	themeRepo := repository.NewThemeRepository(cfg.Theme.FilePath)

	// Initialize services
	productService := service.NewProductService(productRepo, images, intents, hub)
	cartService := service.NewCartService(cartRepo, productRepo)
	categoryService := service.NewCategoryService(productRepo)
	themeService := service.NewThemeService(themeRepo)
	adminService := service.NewAdminService(identity, productRepo, nil)

	// Initialize middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Clerk.JWTKey, cfg.Clerk.AuthorizedParties...)
	if err != nil {
		logger.Fatal("Failed to initialize auth middleware", err)
	}

	// Setup router
	r := router.NewRouter(
		controller.NewProductController(productService),
		controller.NewCartController(cartService),
		controller.NewCategoryController(categoryService),
		controller.NewThemeController(themeService),
		controller.NewAdminController(adminService),
		controller.NewCatalogWSController(hub, cfg.CORS.AllowedOrigins),
		authMiddleware,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown did not complete", err)
	}
	logger.Info("Server stopped successfully")
}
