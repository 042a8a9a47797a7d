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

	"github.com/pasteldream/pastel-backend/config"
	"github.com/pasteldream/pastel-backend/internal/app/controller"
	"github.com/pasteldream/pastel-backend/internal/backend"
	"github.com/pasteldream/pastel-backend/internal/middleware"
	"github.com/pasteldream/pastel-backend/internal/router"
	"github.com/pasteldream/pastel-backend/internal/scheduler"
	"github.com/pasteldream/pastel-backend/internal/websocket"
	"github.com/pasteldream/pastel-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting Pastel Dream backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := backend.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize backend client", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close backend client", err)
		}
	}()

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	cleanup := scheduler.NewCleanupScheduler(cfg.Scheduler.CleanupSchedule, map[string]scheduler.Expirer{
		"auth_sessions": client.Repos.Sessions,
		"auth_tokens":   client.Repos.Tokens,
		"oauth_states":  client.Repos.OAuthStates,
	})
	if err := cleanup.Start(); err != nil {
		logger.Fatal("Failed to start cleanup scheduler", err)
	}
	defer cleanup.Stop()

	svc := client.Services
	controllers := router.Controllers{
		Auth:          controller.NewAuthController(svc.Auth, svc.Profiles, svc.Admin),
		Products:      controller.NewProductController(svc.Products),
		Cart:          controller.NewCartController(svc.Carts),
		Wishlist:      controller.NewWishlistController(svc.Wishlists),
		Orders:        controller.NewOrderController(svc.Orders),
		Notifications: controller.NewNotificationController(svc.Notifications),
		Profile:       controller.NewProfileController(svc.Profiles),
		Addresses:     controller.NewAddressController(svc.Profiles),
		Admin:         controller.NewAdminController(svc.Admin, svc.Products),
		Upload:        controller.NewUploadController(client.Storage),
		Contact:       controller.NewContactController(client.WhatsApp, svc.Products),
		Realtime: controller.NewRealtimeController(
			svc.Auth,
			client.Repos.Admins,
			client.Repos.Notifications,
			client.Feed,
			hub,
			cfg.Auth.RefreshMargin,
			cfg.CORS.AllowedOrigins,
		),
	}
	authMiddleware := middleware.NewAuthMiddleware(svc.Auth, client.Repos.Admins)
	engine := router.NewRouter(controllers, authMiddleware, cfg).Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
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
