// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"time"

	"github.com/gorilla/mux"

	"github.com/Nyx-1992/hostease-backend/internal/api/handlers"
	"github.com/Nyx-1992/hostease-backend/internal/api/middleware"
	"github.com/Nyx-1992/hostease-backend/internal/calendar"
	"github.com/Nyx-1992/hostease-backend/internal/storage"
	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
	"github.com/Nyx-1992/hostease-backend/internal/websocket"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	DB          *storage.DB
	Users       *storage.UserRepository
	Properties  *storage.PropertyRepository
	Bookings    *storage.BookingRepository
	SyncRuns    *storage.SyncRunRepository
	Engine      *calendar.Engine
	Scheduler   *calendar.Scheduler
	Hub         *websocket.Hub
	Broadcaster *websocket.EventBroadcaster

	JWTSecret     string
	TokenLifetime time.Duration
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(deps Deps) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()

	// Public endpoints
	api.HandleFunc("/health", handlers.HealthCheck(deps.DB)).Methods("GET")
	api.HandleFunc("/auth/login", handlers.Login(deps.Users, deps.JWTSecret, deps.TokenLifetime)).Methods("POST")
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(deps.Hub)).Methods("GET")

	// Everything below requires a valid token.
	auth := api.NewRoute().Subrouter()
	auth.Use(middleware.RequireAuth(deps.JWTSecret))

	auth.HandleFunc("/auth/me", handlers.Me(deps.Users)).Methods("GET")

	auth.HandleFunc("/dashboard/summary", handlers.Dashboard(deps.DB, deps.Bookings, deps.SyncRuns, deps.Hub)).Methods("GET")

	// Property endpoints
	auth.HandleFunc("/properties", handlers.ListProperties(deps.Properties)).Methods("GET")
	auth.HandleFunc("/properties", handlers.CreateProperty(deps.Properties)).Methods("POST")
	auth.HandleFunc("/properties/{id}", handlers.GetProperty(deps.Properties)).Methods("GET")
	auth.HandleFunc("/properties/{id}", handlers.UpdateProperty(deps.Properties)).Methods("PUT")
	auth.HandleFunc("/properties/{id}", handlers.DeactivateProperty(deps.Properties)).Methods("DELETE")

	// Booking endpoints
	auth.HandleFunc("/bookings", handlers.ListBookings(deps.Bookings)).Methods("GET")
	auth.HandleFunc("/bookings/{id}", handlers.GetBooking(deps.Bookings)).Methods("GET")
	auth.HandleFunc("/bookings/{id}/confirm",
		handlers.ChangeBookingStatus(deps.Bookings, deps.Broadcaster, models.BookingStatusConfirmed)).Methods("POST")
	auth.HandleFunc("/bookings/{id}/check-in",
		handlers.ChangeBookingStatus(deps.Bookings, deps.Broadcaster, models.BookingStatusCheckedIn)).Methods("POST")
	auth.HandleFunc("/bookings/{id}/check-out",
		handlers.ChangeBookingStatus(deps.Bookings, deps.Broadcaster, models.BookingStatusCheckedOut)).Methods("POST")
	auth.HandleFunc("/bookings/{id}/cancel",
		handlers.ChangeBookingStatus(deps.Bookings, deps.Broadcaster, models.BookingStatusCancelled)).Methods("POST")
	auth.HandleFunc("/bookings/{id}/no-show",
		handlers.ChangeBookingStatus(deps.Bookings, deps.Broadcaster, models.BookingStatusNoShow)).Methods("POST")

	// Sync endpoints. Triggering runs is restricted to managers and admins.
	auth.HandleFunc("/sync/status", handlers.SyncStatus(deps.SyncRuns, deps.Properties, deps.Scheduler)).Methods("GET")

	syncAdmin := auth.NewRoute().Subrouter()
	syncAdmin.Use(middleware.RequireRole(models.RoleAdmin, models.RolePropertyManager))
	syncAdmin.HandleFunc("/sync/all", handlers.SyncAll(deps.Scheduler)).Methods("POST")
	syncAdmin.HandleFunc("/sync/properties/{id}", handlers.SyncProperty(deps.Engine)).Methods("POST")

	return r
}
