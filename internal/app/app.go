// Package app wires configuration into the shared services used by the
// server, the worker and jobctl.
package app

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"wifisub_app/internal/config"
	"wifisub_app/internal/repository"
	"wifisub_app/internal/services"
	"wifisub_app/internal/tasks"
)

type App struct {
	Config *config.Config
	DB     *gorm.DB

	Users         repository.UserRepository
	Payments      repository.PaymentRepository
	Notifications repository.NotificationRepository

	Email    services.EmailSender
	Blobs    services.BlobStore
	Notifier *services.NotificationService
	Cleanup  *services.CleanupService
}

// New connects to the database and builds the core services. Blob storage is
// optional; without R2 credentials uploads and cleanup report an error.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return NewWithDB(ctx, cfg, db), nil
}

// NewWithDB builds the services over an existing connection
func NewWithDB(ctx context.Context, cfg *config.Config, db *gorm.DB) *App {
	a := &App{
		Config:        cfg,
		DB:            db,
		Users:         repository.NewUserRepository(db),
		Payments:      repository.NewPaymentRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Email:         services.NewEmailService(cfg),
	}
	a.Notifier = services.NewNotificationService(a.Notifications, a.Users, a.Email, cfg.FrontendURL)

	if cfg.R2AccountID != "" && cfg.R2Bucket != "" {
		store, err := services.NewR2Store(ctx, cfg)
		if err != nil {
			log.Printf("Warning: screenshot storage disabled: %v", err)
		} else {
			a.Blobs = store
			a.Cleanup = services.NewCleanupService(a.Payments, store, cfg.ScreenshotRetention)
		}
	} else {
		log.Println("Warning: R2 not configured, screenshot upload and cleanup disabled")
	}
	return a
}

// Cleaner returns the cleanup service, or nil when storage is disabled
func (a *App) Cleaner() tasks.ScreenshotCleaner {
	if a.Cleanup == nil {
		return nil
	}
	return a.Cleanup
}

// Tasks builds a registry with every task handler
func (a *App) Tasks() *tasks.Registry {
	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry, tasks.Deps{
		DB:      a.DB,
		Config:  a.Config,
		Email:   a.Email,
		Cleaner: a.Cleaner(),
	})
	return registry
}
