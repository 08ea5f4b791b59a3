package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Nyx-1992/hostease-backend/internal/api/middleware"
	"github.com/Nyx-1992/hostease-backend/internal/storage"
	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
	"github.com/Nyx-1992/hostease-backend/internal/websocket"
)

// allowedTransitions defines the legal booking status changes driven by
// the check-in workflow. Feed reconciliation never moves a booking through
// this table.
var allowedTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusPending:   {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed: {models.BookingStatusCheckedIn, models.BookingStatusCancelled, models.BookingStatusNoShow},
	models.BookingStatusCheckedIn: {models.BookingStatusCheckedOut},
}

func transitionAllowed(from, to models.BookingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type StatusChangeRequest struct {
	Notes string     `json:"notes"`
	At    *time.Time `json:"at"`
}

// ListBookings returns bookings matching the query filters.
func ListBookings(bookings *storage.BookingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := storage.BookingFilter{
			PropertyID:     q.Get("property_id"),
			IncludeRemoved: q.Get("include_removed") == "true",
		}

		if raw := q.Get("platform"); raw != "" {
			platform, err := models.ParsePlatform(raw)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
				return
			}
			filter.Platform = platform
		}
		if raw := q.Get("status"); raw != "" {
			filter.Status = models.BookingStatus(raw)
		}

		list, err := bookings.List(r.Context(), filter)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query bookings")
			return
		}
		if list == nil {
			list = []models.Booking{}
		}
		middleware.WriteJSON(w, http.StatusOK, list)
	}
}

// GetBooking returns a single booking by ID.
func GetBooking(bookings *storage.BookingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		booking, err := bookings.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query booking")
			return
		}
		if booking == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Booking not found")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, booking)
	}
}

// ChangeBookingStatus returns a handler moving a booking to the target status.
// Used for check-in, check-out, cancel and no-show endpoints.
func ChangeBookingStatus(bookings *storage.BookingRepository, broadcaster *websocket.EventBroadcaster, target models.BookingStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		booking, err := bookings.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query booking")
			return
		}
		if booking == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Booking not found")
			return
		}

		if !transitionAllowed(booking.Status, target) {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict,
				"Cannot move booking from "+string(booking.Status)+" to "+string(target))
			return
		}

		var req StatusChangeRequest
		if r.Body != nil {
			// Body is optional for status changes.
			json.NewDecoder(r.Body).Decode(&req)
		}

		at := time.Now().UTC()
		if req.At != nil {
			at = req.At.UTC()
		}

		var actualTime *time.Time
		var notes *string
		if target == models.BookingStatusCheckedIn || target == models.BookingStatusCheckedOut {
			actualTime = &at
			if req.Notes != "" {
				notes = &req.Notes
			}
		}

		previous := booking.Status
		if err := bookings.SetStatus(ctx, id, target, actualTime, notes); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update booking status")
			return
		}

		booking, err = bookings.GetByID(ctx, id)
		if err != nil || booking == nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to reload booking")
			return
		}

		if broadcaster != nil {
			broadcaster.BookingStatusChanged(booking, previous)
		}

		middleware.WriteJSON(w, http.StatusOK, booking)
	}
}
