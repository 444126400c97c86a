package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing represents spare truck capacity (an empty leg) a carrier has put
// on the marketplace.
type Listing struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ListingID   string             `bson:"listing_id" json:"listing_id"`
	CarrierID   string             `bson:"carrier_id" json:"carrier_id"`
	CarrierName string             `bson:"carrier_name" json:"carrier_name"`
	Origin      string             `bson:"origin" json:"origin"`
	Destination string             `bson:"destination" json:"destination"`
	DepartDate  time.Time          `bson:"depart_date" json:"depart_date"`
	VehicleType string             `bson:"vehicle_type" json:"vehicle_type"`
	CapacityKg  float64            `bson:"capacity_kg" json:"capacity_kg"`
	BaseRate    float64            `bson:"base_rate" json:"base_rate"`
	Booked      bool               `bson:"booked" json:"booked"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// QuoteRequest represents a shipper asking carriers to price a load.
type QuoteRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestID   string             `bson:"request_id" json:"request_id"`
	ShipperID   string             `bson:"shipper_id" json:"shipper_id"`
	ShipperName string             `bson:"shipper_name" json:"shipper_name"`
	Origin      string             `bson:"origin" json:"origin"`
	Destination string             `bson:"destination" json:"destination"`
	PickupDate  time.Time          `bson:"pickup_date" json:"pickup_date"`
	WeightKg    float64            `bson:"weight_kg" json:"weight_kg"`
	Accepted    bool               `bson:"accepted" json:"accepted"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
