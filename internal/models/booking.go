package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending           BookingStatus = "pending"
	StatusAccepted          BookingStatus = "accepted"
	StatusArrivedAtPickup   BookingStatus = "arrived_at_pickup"
	StatusCollected         BookingStatus = "collected"
	StatusInTransit         BookingStatus = "in_transit"
	StatusArrivedAtDelivery BookingStatus = "arrived_at_delivery"
	StatusDelivered         BookingStatus = "delivered"
	StatusCompleted         BookingStatus = "completed"
	StatusDisputed          BookingStatus = "disputed"
)

// PaymentStatus represents where the shipper's payment sits.
type PaymentStatus string

const (
	PaymentEscrow   PaymentStatus = "escrow"
	PaymentReleased PaymentStatus = "released"
)

// IsValidStatus checks if a status is one of the defined lifecycle states.
func IsValidStatus(s BookingStatus) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusArrivedAtPickup, StatusCollected,
		StatusInTransit, StatusArrivedAtDelivery, StatusDelivered,
		StatusCompleted, StatusDisputed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether a booking in this status can still move forward.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusDisputed
}

// Attachment is one piece of evidence captured during the delivery workflow.
// Data holds the raw bytes; over the wire and in the offline queue it travels
// base64-encoded.
type Attachment struct {
	Data       []byte    `bson:"data" json:"data"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
	Location   *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
}

// Evidence bundles everything a driver can attach to a status transition.
type Evidence struct {
	LoadPhoto    *Attachment `bson:"load_photo,omitempty" json:"load_photo,omitempty"`
	Sealed       bool        `bson:"sealed" json:"sealed"`
	SealNumber   string      `bson:"seal_number,omitempty" json:"seal_number,omitempty"`
	OffloadPhoto *Attachment `bson:"offload_photo,omitempty" json:"offload_photo,omitempty"`
	PODPhoto     *Attachment `bson:"pod_photo,omitempty" json:"pod_photo,omitempty"`
	Signature    *Attachment `bson:"signature,omitempty" json:"signature,omitempty"`
	DeliveryPIN  string      `bson:"delivery_pin,omitempty" json:"delivery_pin,omitempty"`
	Location     *GeoPoint   `bson:"location,omitempty" json:"location,omitempty"`
}

// Booking represents one shipment contract between a shipper and a carrier.
type Booking struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingID     string             `bson:"booking_id" json:"booking_id"`
	Waybill       string             `bson:"waybill" json:"waybill"`
	ShipperID     string             `bson:"shipper_id" json:"shipper_id"`
	ShipperName   string             `bson:"shipper_name" json:"shipper_name"`
	CarrierID     string             `bson:"carrier_id" json:"carrier_id"`
	CarrierName   string             `bson:"carrier_name" json:"carrier_name"`
	Origin        string             `bson:"origin" json:"origin"`
	Destination   string             `bson:"destination" json:"destination"`
	PickupDate    time.Time          `bson:"pickup_date" json:"pickup_date"`
	Status        BookingStatus      `bson:"status" json:"status"`
	BaseRate      float64            `bson:"base_rate" json:"base_rate"`
	Price         float64            `bson:"price" json:"price"`
	PaymentStatus PaymentStatus      `bson:"payment_status" json:"payment_status"`
	DeliveryPIN   string             `bson:"delivery_pin,omitempty" json:"-"`
	Evidence      Evidence           `bson:"evidence" json:"evidence"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
