package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wifisub_app/internal/app"
	"wifisub_app/internal/config"
	"wifisub_app/internal/services"
	"wifisub_app/internal/tasks"
)

func main() {
	cfg := config.Load()

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	if err := services.AutoMigrate(a.DB); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	runner := tasks.NewRunner(a.DB, a.Tasks(), cfg.WorkerPollInterval)
	if err := runner.EnsureRecurring(ctx, tasks.DailyJobs(cfg)); err != nil {
		log.Fatalf("Failed to schedule daily jobs: %v", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down worker...")
		cancel()
	}()

	log.Printf("Worker started, polling every %s", cfg.WorkerPollInterval)
	runner.Run(ctx)
}
