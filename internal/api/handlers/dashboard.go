package handlers

import (
	"net/http"
	"time"

	"github.com/Nyx-1992/hostease-backend/internal/api/middleware"
	"github.com/Nyx-1992/hostease-backend/internal/storage"
	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
	"github.com/Nyx-1992/hostease-backend/internal/websocket"
)

// DashboardResponse aggregates the numbers shown on the overview screen.
type DashboardResponse struct {
	Properties         int                     `json:"properties"`
	ActiveProperties   int                     `json:"active_properties"`
	UpcomingCheckIns   int                     `json:"upcoming_check_ins"`
	CurrentlyCheckedIn int                     `json:"currently_checked_in"`
	BookingsByPlatform map[models.Platform]int `json:"bookings_by_platform"`
	LastSyncAt         *time.Time              `json:"last_sync_at,omitempty"`
	ConnectedClients   int                     `json:"connected_clients"`
}

// Dashboard returns summary counts for the overview screen.
func Dashboard(db *storage.DB, bookings *storage.BookingRepository, runs *storage.SyncRunRepository, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var response DashboardResponse

		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties").Scan(&response.Properties)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties WHERE is_active = 1").Scan(&response.ActiveProperties)

		today := time.Now().UTC().Truncate(24 * time.Hour)
		db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM bookings
			WHERE status = ? AND removed_from_source = 0 AND check_in >= ?
		`, models.BookingStatusConfirmed, today).Scan(&response.UpcomingCheckIns)

		db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM bookings WHERE status = ? AND removed_from_source = 0
		`, models.BookingStatusCheckedIn).Scan(&response.CurrentlyCheckedIn)

		byPlatform, err := bookings.CountByPlatform(ctx)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query bookings")
			return
		}
		response.BookingsByPlatform = byPlatform

		if runs != nil {
			if lastRun, err := runs.Latest(ctx); err == nil && lastRun != nil {
				response.LastSyncAt = &lastRun.StartedAt
			}
		}
		if hub != nil {
			response.ConnectedClients = hub.ClientCount()
		}

		middleware.WriteJSON(w, http.StatusOK, response)
	}
}
