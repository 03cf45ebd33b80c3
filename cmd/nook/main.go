package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nook/nook/internal/api"
	"github.com/nook/nook/internal/collector"
	"github.com/nook/nook/internal/config"
	"github.com/nook/nook/internal/digest"
	"github.com/nook/nook/internal/docstore"
	"github.com/nook/nook/internal/notifications"
	"github.com/nook/nook/internal/scheduler"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting nook")

	storeCfg := cfg.DocStore()

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := docstore.Open(initCtx, storeCfg)
	initCancel()
	if err != nil {
		logrus.Fatalf("Failed to initialize document store: %v", err)
	}
	logrus.Infof("Document store ready (backend %s, bucket %q)", cfg.StorageBackend, store.Bucket())

	collectors := []collector.Collector{
		collector.NewRedditCollector(cfg.RedditClientID, cfg.RedditClientSecret, cfg.Subreddits),
		collector.NewHackerNewsCollector(cfg.HackerNewsLimit),
	}

	var notifier notifications.NotificationInterface
	if cfg.NotificationEmail != "" {
		notifier = notifications.NewEmailService(cfg)
		logrus.Infof("Run reports will be emailed to %s", cfg.NotificationEmail)
	}

	digestService := digest.NewService(store, collectors, notifier, storeCfg.Location)

	schedulerService := scheduler.NewService(cfg.CollectSchedule, storeCfg.Location, digestService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewHandler(store, digestService).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
