// Command icsimport runs a one-shot iCal feed import against the database.
// It is intended for initial backfills and cron-driven environments where
// the long-running server is not deployed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Nyx-1992/hostease-backend/internal/calendar"
	"github.com/Nyx-1992/hostease-backend/internal/storage"
	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

func main() {
	dataDir := flag.String("data", "./data", "Data directory for SQLite database")
	propertyName := flag.String("property", "", "Import a single property by name or id")
	platformFlag := flag.String("platform", "", "Restrict the import to one platform feed")
	all := flag.Bool("all", false, "Import every active property")
	concurrency := flag.Int("concurrency", 4, "Concurrent feed fetches")
	timeout := flag.Duration("timeout", 30*time.Second, "HTTP fetch timeout")
	degraded := flag.Bool("degraded", false, "Replay cached feed bodies when a fetch fails")
	flag.Parse()

	_ = godotenv.Load()

	if !*all && *propertyName == "" {
		fmt.Fprintln(os.Stderr, "usage: icsimport -all | -property <name or id> [-platform <platform>]")
		os.Exit(2)
	}

	var platforms []models.Platform
	if *platformFlag != "" {
		platform, err := models.ParsePlatform(*platformFlag)
		if err != nil {
			log.Fatalf("Invalid platform: %v", err)
		}
		platforms = append(platforms, platform)
	}

	db, err := storage.NewDB(*dataDir + "/hostease.db")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	propertyRepo := storage.NewPropertyRepository(db)
	bookingRepo := storage.NewBookingRepository(db)
	syncRunRepo := storage.NewSyncRunRepository(db)
	feedCacheRepo := storage.NewFeedCacheRepository(db)

	fetcher := calendar.NewHTTPFetcher(*timeout, "")
	engine := calendar.NewEngine(bookingRepo, propertyRepo, feedCacheRepo, syncRunRepo, fetcher, calendar.Options{
		FetchConcurrency: *concurrency,
		DegradedFallback: *degraded,
	})

	ctx := context.Background()

	var results []models.SyncResult
	if *all {
		results, err = engine.SyncAll(ctx, models.SyncTriggerImport)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
	} else {
		property, err := propertyRepo.GetByID(ctx, *propertyName)
		if err != nil {
			log.Fatalf("Failed to look up property: %v", err)
		}
		if property == nil {
			property, err = propertyRepo.GetByName(ctx, *propertyName)
			if err != nil {
				log.Fatalf("Failed to look up property: %v", err)
			}
		}
		if property == nil {
			log.Fatalf("Property %q not found", *propertyName)
		}

		result, err := engine.SyncPropertyByID(ctx, property.ID, models.SyncTriggerImport, platforms...)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		if result != nil {
			results = append(results, *result)
		}
	}

	exitCode := 0
	for _, result := range results {
		log.Printf("%s: processed=%d created=%d updated=%d skipped=%d removed=%d degraded=%t",
			result.PropertyName, result.Processed, result.Created, result.Updated,
			result.Skipped, result.Removed, result.Degraded)
		for _, feedErr := range result.Errors {
			log.Printf("%s: feed error (%s): %s", result.PropertyName, feedErr.Platform, feedErr.Message)
			exitCode = 1
		}
	}

	os.Exit(exitCode)
}
