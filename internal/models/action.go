package models

import "time"

// ActionType classifies a deferred driver mutation.
type ActionType string

const (
	ActionStatusUpdate      ActionType = "status_update"
	ActionConfirmCollection ActionType = "confirm_collection"
	ActionCompleteDelivery  ActionType = "complete_delivery"
)

// OfflineAction represents one mutation recorded while the driver had no
// connectivity. Attachments inside Evidence are base64-encoded by the JSON
// codec, so the whole action serializes to text for durable storage.
type OfflineAction struct {
	ID        string        `json:"id"`
	Type      ActionType    `json:"type"`
	BookingID string        `json:"booking_id"`
	Target    BookingStatus `json:"target"`
	Evidence  Evidence      `json:"evidence"`
	CreatedAt time.Time     `json:"created_at"`
}
