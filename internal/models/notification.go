package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is a human-readable record appended on every successful
// booking mutation, visible to the relevant audience only.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingID string             `bson:"booking_id" json:"booking_id"`
	Audience  string             `bson:"audience" json:"audience"` // shipper/carrier/driver id
	Message   string             `bson:"message" json:"message"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
