package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComplianceDocument is a carrier credential (licence, insurance, roadworthy
// certificate) with an expiry date the scanner watches.
type ComplianceDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   string             `bson:"owner_id" json:"owner_id"`
	Type      string             `bson:"type" json:"type"`
	Reference string             `bson:"reference" json:"reference"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
