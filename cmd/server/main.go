// Package main is the entry point for the HostEase property management server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Nyx-1992/hostease-backend/internal/api"
	"github.com/Nyx-1992/hostease-backend/internal/calendar"
	"github.com/Nyx-1992/hostease-backend/internal/config"
	"github.com/Nyx-1992/hostease-backend/internal/storage"
	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
	"github.com/Nyx-1992/hostease-backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	addr := flag.String("addr", "", "Listen address (overrides PORT)")
	dataDir := flag.String("data", "", "Data directory (overrides DATA_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.Addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	log.Printf("Starting HostEase server (version: %s)...", version)

	db, err := storage.NewDB(cfg.DataDir + "/hostease.db")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize repositories
	userRepo := storage.NewUserRepository(db)
	propertyRepo := storage.NewPropertyRepository(db)
	bookingRepo := storage.NewBookingRepository(db)
	syncRunRepo := storage.NewSyncRunRepository(db)
	feedCacheRepo := storage.NewFeedCacheRepository(db)

	if err := seedAdminUser(db, userRepo, cfg); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	broadcaster := websocket.NewEventBroadcaster(hub)

	// Initialize sync engine and scheduler
	fetcher := calendar.NewHTTPFetcher(cfg.FetchTimeout, cfg.UserAgent)
	engine := calendar.NewEngine(bookingRepo, propertyRepo, feedCacheRepo, syncRunRepo, fetcher, calendar.Options{
		FetchConcurrency: cfg.FetchConcurrency,
		DegradedFallback: cfg.DegradedFallback,
	})

	scheduler := calendar.NewScheduler(engine, broadcaster, cfg.SyncInterval)
	if err := scheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start sync scheduler: %v", err)
	}

	router := api.NewRouter(api.Deps{
		DB:            db,
		Users:         userRepo,
		Properties:    propertyRepo,
		Bookings:      bookingRepo,
		SyncRuns:      syncRunRepo,
		Engine:        engine,
		Scheduler:     scheduler,
		Hub:           hub,
		Broadcaster:   broadcaster,
		JWTSecret:     cfg.JWTSecret,
		TokenLifetime: cfg.TokenLifetime,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// seedAdminUser creates the initial admin account on a fresh database.
func seedAdminUser(db *storage.DB, users *storage.UserRepository, cfg *config.Config) error {
	ctx := context.Background()

	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := cfg.AdminPassword
	if password == "" {
		log.Println("ADMIN_PASSWORD not set; skipping admin user seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:           storage.GenerateID(),
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		FirstName:    "Admin",
		LastName:     "User",
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("Seeded admin user %s", cfg.AdminEmail)
	return nil
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
