package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carryconnect/internal/api"
	"carryconnect/internal/config"
	"carryconnect/internal/modules/chat"
	"carryconnect/internal/modules/deliveries"
	"carryconnect/internal/modules/notifications"
	"carryconnect/internal/modules/reviews"
	"carryconnect/internal/modules/users"
	"carryconnect/pkg/email"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()

	// 2. --- Middleware ---
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database configuration: %v", err)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	e.Logger.Info("Successfully connected to the database!")

	// 4. --- Email Transport ---
	// The SES sender is optional: without an AWS region the notifier still
	// records notifications in the log.
	var emailSender email.ServiceInterface
	if cfg.AWSRegion != "" && cfg.EmailFrom != "" {
		sender, err := email.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.EmailFrom)
		if err != nil {
			log.Printf("Email transport unavailable: %v", err)
		} else {
			emailSender = sender
		}
	}
	templates, err := email.NewTemplateManager()
	if err != nil {
		log.Fatalf("Failed to parse email templates: %v", err)
	}

	// 5. --- Dependency Injection ---
	// --- Users Module ---
	userRepo := users.NewRepository(dbPool)
	userService := users.NewService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	userHandler := users.NewHandler(userService)

	// --- Notifications Module ---
	notificationRepo := notifications.NewRepository(dbPool)
	notifier := notifications.NewNotifier(userRepo, emailSender, templates)
	notificationHandler := notifications.NewHandler(notificationRepo)

	// --- Deliveries Module ---
	deliveryRepo := deliveries.NewRepository(dbPool)
	deliveryService := deliveries.NewService(deliveryRepo, notifier)
	deliveryHandler := deliveries.NewHandler(deliveryService)

	locationRepo := deliveries.NewLocationRepository(dbPool)
	locationService := deliveries.NewLocationService(locationRepo, deliveryRepo)
	locationHandler := deliveries.NewLocationHandler(locationService)

	// --- Chat Module ---
	hub := chat.NewHub()
	go hub.Run()
	chatRepo := chat.NewRepository(dbPool)
	chatService := chat.NewService(chatRepo, deliveryRepo, hub)
	chatHandler := chat.NewHandler(chatService, hub, cfg.UploadDir)

	// --- Reviews Module ---
	reviewRepo := reviews.NewRepository(dbPool)
	reviewService := reviews.NewService(reviewRepo, deliveryRepo)
	reviewHandler := reviews.NewHandler(reviewService)

	// 6. --- Initialize Router ---
	api.SetupRoutes(e,
		userHandler,
		deliveryHandler,
		locationHandler,
		chatHandler,
		reviewHandler,
		notificationHandler,
		cfg.JWTSecret,
		cfg.UploadDir,
	)

	// 7. --- Start Server with graceful shutdown ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server, an error occurred:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Server exiting")
}
