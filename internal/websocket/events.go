package websocket

import (
	"log"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// EventBroadcaster encodes domain events and pushes them through the hub.
// It satisfies calendar.SyncNotifier.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// SyncCompleted broadcasts the aggregate result of a reconciliation run.
func (b *EventBroadcaster) SyncCompleted(results []models.SyncResult) {
	payload := SyncCompletedPayload{Properties: len(results)}
	for _, r := range results {
		payload.Processed += r.Processed
		payload.Created += r.Created
		payload.Updated += r.Updated
		payload.Removed += r.Removed
		payload.Errors += len(r.Errors)
	}
	b.send(NewMessage(TypeSyncCompleted, payload))
}

// SyncFailed broadcasts a run-level failure.
func (b *EventBroadcaster) SyncFailed(err error) {
	b.send(NewMessage(TypeSyncFailed, SyncFailedPayload{Message: err.Error()}))
}

// BookingStatusChanged broadcasts a manual lifecycle transition.
func (b *EventBroadcaster) BookingStatusChanged(booking *models.Booking, previous models.BookingStatus) {
	b.send(NewMessage(TypeBookingStatusChanged, BookingStatusPayload{
		BookingID:      booking.ID,
		PropertyID:     booking.PropertyID,
		PreviousStatus: string(previous),
		NewStatus:      string(booking.Status),
	}))
}

func (b *EventBroadcaster) send(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(data)
}
