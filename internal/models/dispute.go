package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DisputeStatus represents the admin-side state of a dispute.
type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

// Dispute represents a flagged booking under admin review. Opening a dispute
// moves the booking to its terminal disputed status.
type Dispute struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingID  string             `bson:"booking_id" json:"booking_id"`
	RaisedBy   string             `bson:"raised_by" json:"raised_by"`
	Reason     string             `bson:"reason" json:"reason"`
	Status     DisputeStatus      `bson:"status" json:"status"`
	Resolution string             `bson:"resolution,omitempty" json:"resolution,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
