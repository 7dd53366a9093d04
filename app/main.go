package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contentops/review-cycle/app/api"
	"github.com/contentops/review-cycle/app/cfg"
	"github.com/contentops/review-cycle/app/database"
	"github.com/contentops/review-cycle/app/notification"
	"github.com/contentops/review-cycle/app/review"
	"github.com/contentops/review-cycle/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	log.Printf("Starting Review Cycle server (version %s)...", appCfg.Version)

	// Database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	log.Printf("Connected to database successfully")

	// Run database migrations
	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database schema at version %d (dirty: %t)", version, dirty)

	// Load site settings
	log.Printf("Loading site settings from %s...", appCfg.SitesDir)
	settingsCache := review.NewSettingsCache(appCfg.SitesDir)
	if err := settingsCache.Run(); err != nil {
		log.Fatal("Failed to load site settings:", err)
	}
	log.Printf("Loaded settings for %d sites", settingsCache.GetSiteCount())

	// Initialize repositories
	siteRepo := database.NewSiteRepository(db)
	contentRepo := database.NewContentRepository(db)
	notificationRepo := database.NewNotificationRepository(db)

	// Initialize notification pipeline
	notifier := notification.NewNotifier(notificationRepo, notification.NewLogPublisher())

	// Initialize and start scheduler. Startup syncs every site row and
	// recomputes stored review dates where settings changed.
	log.Printf("Starting scan scheduler with %d workers...", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(settingsCache, siteRepo, contentRepo, notifier)
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}
	defer scheduler.Stop()

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(settingsCache, siteRepo, contentRepo, notificationRepo,
		scheduler, appCfg.CMSBaseUrl)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("Endpoints available:")
		log.Printf("  Review state:   http://localhost:%s/contents/<id>/review", appCfg.Port)
		log.Printf("  Dismiss review: http://localhost:%s/dismiss-review?recordid=<id>", appCfg.Port)
		log.Printf("  Start review:   http://localhost:%s/start-review?recordid=<id>", appCfg.Port)
		log.Printf("  Publish hook:   http://localhost:%s/contents (POST)", appCfg.Port)
		log.Printf("  Health check:   http://localhost:%s/health", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  List sites:     http://localhost:%s/api/sites (requires API key)", appCfg.Port)
			log.Printf("  Notifications:  http://localhost:%s/api/sites/<name>/notifications (requires API key)", appCfg.Port)
			log.Printf("  Trigger scan:   http://localhost:%s/api/sites/<name>/scan (POST, requires API key)", appCfg.Port)
		} else {
			log.Printf("  API endpoints:  DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Review Cycle server started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("Scan scheduler stopped")

	log.Println("Review Cycle server shutdown complete")
}
