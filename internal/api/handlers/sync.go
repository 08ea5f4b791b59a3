package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Nyx-1992/hostease-backend/internal/api/middleware"
	"github.com/Nyx-1992/hostease-backend/internal/calendar"
	"github.com/Nyx-1992/hostease-backend/internal/storage"
	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// SyncProperty triggers a synchronous reconciliation of one property's feeds.
// An optional ?platform= query restricts the run to a single feed.
func SyncProperty(engine *calendar.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var platforms []models.Platform
		if raw := r.URL.Query().Get("platform"); raw != "" {
			platform, err := models.ParsePlatform(raw)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
				return
			}
			platforms = append(platforms, platform)
		}

		result, err := engine.SyncPropertyByID(r.Context(), id, models.SyncTriggerManual, platforms...)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Sync failed")
			return
		}
		if result == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property not found")
			return
		}

		middleware.WriteJSON(w, http.StatusOK, result)
	}
}

// SyncAll kicks off a background reconciliation of every active property.
func SyncAll(scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheduler.TriggerSync()
		middleware.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "syncing"})
	}
}

// SyncStatusResponse summarizes the most recent reconciliation run.
type SyncStatusResponse struct {
	LastRun   *models.SyncRun `json:"last_run"`
	NextRunAt *time.Time      `json:"next_run_at,omitempty"`
	FeedCount int             `json:"feed_count"`
}

// SyncStatus reports the latest run, next scheduled run and configured feeds.
func SyncStatus(runs *storage.SyncRunRepository, properties *storage.PropertyRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		lastRun, err := runs.Latest(ctx)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query sync runs")
			return
		}

		feedCount := 0
		if active, err := properties.ListActive(ctx); err == nil {
			for i := range active {
				feedCount += len(active[i].ActiveFeeds())
			}
		}

		response := SyncStatusResponse{LastRun: lastRun, FeedCount: feedCount}
		if scheduler != nil {
			if next := scheduler.NextRun(); !next.IsZero() {
				response.NextRunAt = &next
			}
		}

		middleware.WriteJSON(w, http.StatusOK, response)
	}
}
