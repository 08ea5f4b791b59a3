package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	TypeSyncCompleted        MessageType = "sync.completed"
	TypeSyncFailed           MessageType = "sync.failed"
	TypeBookingStatusChanged MessageType = "booking.status_changed"
	TypeNotification         MessageType = "notification"
)

// Message is the envelope for every event pushed to clients.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// NewMessage creates a timestamped message.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON encodes the message for the wire.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncCompletedPayload summarizes a finished reconciliation run.
type SyncCompletedPayload struct {
	Properties int `json:"properties"`
	Processed  int `json:"processed"`
	Created    int `json:"created"`
	Updated    int `json:"updated"`
	Removed    int `json:"removed"`
	Errors     int `json:"errors"`
}

// SyncFailedPayload reports a run that could not start or finish.
type SyncFailedPayload struct {
	Message string `json:"message"`
}

// BookingStatusPayload reports a manual booking lifecycle transition.
type BookingStatusPayload struct {
	BookingID      string `json:"booking_id"`
	PropertyID     string `json:"property_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}
