package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"wifisub_app/internal/app"
	"wifisub_app/internal/config"
	"wifisub_app/internal/handlers"
	appMiddleware "wifisub_app/internal/middleware"
	"wifisub_app/internal/services"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	if err := services.AutoMigrate(a.DB); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	verifier, err := services.NewTokenVerifier(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize authentication: %v", err)
	}
	verifier = services.NewAccountService(a.Users).Verifier(verifier)
	limiter := services.NewRateLimiter(cfg.RedisURL)

	payments := services.NewPaymentService(a.Payments, a.Notifier, cfg.ReminderWindow)
	plans := services.NewPlanService(a.DB)

	router := &handlers.Router{
		Verifier:         verifier,
		Limiter:          limiter,
		PaymentRateLimit: cfg.PaymentRateLimit,
		ContactRateLimit: cfg.ContactRateLimit,

		Auth:          handlers.NewAuthHandler(a.Users),
		Health:        handlers.NewHealthHandler(a.DB),
		Payments:      handlers.NewPaymentHandler(payments, a.Blobs, plans),
		Notifications: handlers.NewNotificationHandler(a.Notifier, a.Users),
		Admin:         handlers.NewAdminHandler(services.NewAdminService(a.DB, a.Users, a.Notifier), payments, a.Cleaner()),
		Support:       handlers.NewSupportHandler(services.NewTicketService(a.DB, a.Notifier), services.NewContactService(a.DB, a.Notifier)),
		Plans:         handlers.NewPlanHandler(plans),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit("6M"))

	router.Register(e)

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
	if closer, ok := limiter.(interface{ Close() error }); ok {
		closer.Close()
	}
}
