package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/avelldev/freight-marketplace/internal/db"
	"github.com/avelldev/freight-marketplace/internal/lifecycle"
	"github.com/avelldev/freight-marketplace/internal/models"
	"github.com/avelldev/freight-marketplace/internal/notify"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrVerifyNotShipper = errors.New("only the shipper can verify delivery")
	ErrActorNotAllowed  = errors.New("actor role cannot perform this transition")
)

// TransitionRequest is one attempted booking mutation.
type TransitionRequest struct {
	ActorID   string               `json:"actor_id"`
	ActorRole models.Role          `json:"actor_role"`
	Target    models.BookingStatus `json:"target"`
	Evidence  models.Evidence      `json:"evidence"`
}

// Store is the single source of truth for booking records. All mutations go
// through Apply, which validates against the lifecycle policy before
// persisting; a rejected transition never partially mutates.
type Store struct {
	bookings      db.BookingCollection
	notifications db.NotificationCollection
	disputes      db.DisputeCollection
	publisher     notify.Publisher
}

// New creates a booking store.
func New(bookings db.BookingCollection, notifications db.NotificationCollection, disputes db.DisputeCollection, publisher notify.Publisher) *Store {
	if publisher == nil {
		publisher = notify.LogPublisher{}
	}
	return &Store{
		bookings:      bookings,
		notifications: notifications,
		disputes:      disputes,
		publisher:     publisher,
	}
}

// Create inserts a new booking in escrow with generated ids.
func (s *Store) Create(ctx context.Context, b models.Booking) (*models.Booking, error) {
	b.BookingID = uuid.NewString()
	b.Waybill = newWaybill()
	b.Status = models.StatusPending
	b.PaymentStatus = models.PaymentEscrow
	if err := s.bookings.InsertBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	s.record(ctx, b, fmt.Sprintf("Booking %s created for %s to %s", b.Waybill, b.Origin, b.Destination), b.CarrierID)
	return &b, nil
}

// Get returns bookings scoped to a participant. The driver view only shows
// active jobs: pending, completed and disputed bookings are excluded.
func (s *Store) Get(ctx context.Context, role models.Role, entityID string) ([]models.Booking, error) {
	var filter bson.M
	switch role {
	case models.RoleShipper:
		filter = bson.M{"shipper_id": entityID}
	case models.RoleCarrier:
		filter = bson.M{"carrier_id": entityID}
	case models.RoleDriver:
		filter = bson.M{
			"carrier_id": entityID,
			"status": bson.M{"$nin": []models.BookingStatus{
				models.StatusPending, models.StatusCompleted, models.StatusDisputed,
			}},
		}
	case models.RoleAdmin:
		filter = bson.M{}
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return s.bookings.FindBookings(ctx, filter)
}

// Apply validates a transition against the lifecycle policy and persists it.
// On rejection the booking is left untouched and the policy error is
// returned. A successful apply appends a notification for both parties, and
// the Completed transition releases the escrowed payment.
func (s *Store) Apply(ctx context.Context, bookingID string, req TransitionRequest) (*models.Booking, error) {
	booking, err := s.bookings.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch {
	case req.Target == models.StatusCompleted && req.ActorRole != models.RoleShipper && req.ActorRole != models.RoleAdmin:
		// Completion is the shipper's verification action.
		return nil, ErrVerifyNotShipper
	case req.Target != models.StatusCompleted && req.ActorRole == models.RoleShipper:
		return nil, ErrActorNotAllowed
	}

	if err := lifecycle.Validate(booking.Status, booking.DeliveryPIN, req.Target, req.Evidence); err != nil {
		log.WithFields(log.Fields{
			"booking_id": bookingID,
			"from":       booking.Status,
			"to":         req.Target,
		}).WithError(err).Warn("Transition rejected")
		return nil, err
	}

	updated := lifecycle.ApplyTransition(*booking, req.Target, req.Evidence, time.Now())
	if err := s.bookings.UpdateBooking(ctx, bookingID, updated); err != nil {
		return nil, fmt.Errorf("persist transition: %w", err)
	}

	log.WithFields(log.Fields{
		"booking_id": bookingID,
		"waybill":    updated.Waybill,
		"from":       booking.Status,
		"to":         updated.Status,
	}).Info("Booking transitioned")

	s.record(ctx, updated, statusMessage(updated), updated.ShipperID)
	s.record(ctx, updated, statusMessage(updated), updated.CarrierID)
	return &updated, nil
}

// OpenDispute is the external side exit: it flags the booking, moves it to
// the terminal disputed status and drops it from the driver's active view.
func (s *Store) OpenDispute(ctx context.Context, bookingID, raisedBy, reason string) (*models.Booking, error) {
	booking, err := s.bookings.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.ValidateDispute(booking.Status); err != nil {
		return nil, err
	}

	updated := *booking
	updated.Status = models.StatusDisputed
	updated.UpdatedAt = time.Now()
	if err := s.bookings.UpdateBooking(ctx, bookingID, updated); err != nil {
		return nil, fmt.Errorf("persist dispute: %w", err)
	}

	dispute := models.Dispute{
		BookingID: bookingID,
		RaisedBy:  raisedBy,
		Reason:    reason,
		Status:    models.DisputeOpen,
	}
	if err := s.disputes.InsertDispute(ctx, dispute); err != nil {
		log.WithFields(log.Fields{"booking_id": bookingID}).WithError(err).Error("Failed to record dispute")
	}

	msg := fmt.Sprintf("Booking %s is under dispute", updated.Waybill)
	s.record(ctx, updated, msg, updated.ShipperID)
	s.record(ctx, updated, msg, updated.CarrierID)
	return &updated, nil
}

// record appends a notification and pushes it to the audience. Failures are
// logged only; a notification must never roll back a booking mutation.
func (s *Store) record(ctx context.Context, b models.Booking, message, audience string) {
	n := models.Notification{
		BookingID: b.BookingID,
		Audience:  audience,
		Message:   message,
	}
	if err := s.notifications.InsertNotification(ctx, n); err != nil {
		log.WithFields(log.Fields{"booking_id": b.BookingID}).WithError(err).Error("Failed to store notification")
	}
	s.publisher.Publish(n)
}

func statusMessage(b models.Booking) string {
	switch b.Status {
	case models.StatusAccepted:
		return fmt.Sprintf("Booking %s accepted by %s", b.Waybill, b.CarrierName)
	case models.StatusArrivedAtPickup:
		return fmt.Sprintf("Driver arrived at pickup for %s", b.Waybill)
	case models.StatusCollected:
		return fmt.Sprintf("Load collected for %s", b.Waybill)
	case models.StatusInTransit:
		return fmt.Sprintf("Booking %s is in transit", b.Waybill)
	case models.StatusArrivedAtDelivery:
		return fmt.Sprintf("Driver arrived at delivery for %s", b.Waybill)
	case models.StatusDelivered:
		return fmt.Sprintf("Booking %s delivered, awaiting verification", b.Waybill)
	case models.StatusCompleted:
		return fmt.Sprintf("Booking %s completed, payment released from escrow", b.Waybill)
	default:
		return fmt.Sprintf("Booking %s updated to %s", b.Waybill, b.Status)
	}
}

func newWaybill() string {
	id := uuid.NewString()
	return "WB-" + id[:8]
}
