package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelldev/freight-marketplace/internal/lifecycle"
	"github.com/avelldev/freight-marketplace/internal/models"
)

func newTestStore(t *testing.T) (*Store, *MemoryCollections) {
	t.Helper()
	mem := NewMemoryCollections(nil)
	return New(mem, mem, mem, nil), mem
}

func attachment() *models.Attachment {
	return &models.Attachment{Data: []byte("photo-bytes"), UploadedAt: time.Now()}
}

func TestStore_Get_ScopesByRole(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	shipper, err := s.Get(ctx, models.RoleShipper, "shp-01")
	require.NoError(t, err)
	require.Len(t, shipper, 1)
	assert.Equal(t, "bk-1001", shipper[0].BookingID)

	carrier, err := s.Get(ctx, models.RoleCarrier, "car-01")
	require.NoError(t, err)
	assert.Len(t, carrier, 2)

	// The driver view hides pending, completed and disputed bookings.
	driver, err := s.Get(ctx, models.RoleDriver, "car-01")
	require.NoError(t, err)
	require.Len(t, driver, 1)
	assert.Equal(t, models.StatusAccepted, driver[0].Status)

	all, err := s.Get(ctx, models.RoleAdmin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.Get(ctx, "dispatcher", "x")
	assert.Error(t, err)
}

func TestStore_Apply_RejectionLeavesBookingUntouched(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	// bk-1001 is Accepted; Collected skips ArrivedAtPickup.
	_, err := s.Apply(ctx, "bk-1001", TransitionRequest{
		ActorRole: models.RoleDriver,
		Target:    models.StatusCollected,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, lifecycle.ErrNotSuccessor)

	b, err := mem.FindBookingByID(ctx, "bk-1001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, b.Status)
	assert.Nil(t, b.Evidence.LoadPhoto)
}

func TestStore_Apply_CollectedPersistsSealFields(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	_, err := s.Apply(ctx, "bk-1001", TransitionRequest{
		ActorRole: models.RoleDriver,
		Target:    models.StatusArrivedAtPickup,
	})
	require.NoError(t, err)

	updated, err := s.Apply(ctx, "bk-1001", TransitionRequest{
		ActorRole: models.RoleDriver,
		Target:    models.StatusCollected,
		Evidence: models.Evidence{
			LoadPhoto:  attachment(),
			Sealed:     true,
			SealNumber: "SEAL-001",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCollected, updated.Status)

	b, err := mem.FindBookingByID(ctx, "bk-1001")
	require.NoError(t, err)
	assert.True(t, b.Evidence.Sealed)
	assert.Equal(t, "SEAL-001", b.Evidence.SealNumber)
	assert.NotNil(t, b.Evidence.LoadPhoto)
}

func TestStore_Apply_ShipperVerificationCompletesAndReleasesPayment(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	walkTo(t, s, "bk-1001", models.StatusDelivered)

	// A driver cannot verify.
	_, err := s.Apply(ctx, "bk-1001", TransitionRequest{
		ActorRole: models.RoleDriver,
		Target:    models.StatusCompleted,
	})
	assert.ErrorIs(t, err, ErrVerifyNotShipper)

	updated, err := s.Apply(ctx, "bk-1001", TransitionRequest{
		ActorID:   "shp-01",
		ActorRole: models.RoleShipper,
		Target:    models.StatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, models.PaymentReleased, updated.PaymentStatus)

	b, err := mem.FindBookingByID(ctx, "bk-1001")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentReleased, b.PaymentStatus)
}

func TestStore_Apply_ShipperCannotDriveWorkflow(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Apply(context.Background(), "bk-1001", TransitionRequest{
		ActorRole: models.RoleShipper,
		Target:    models.StatusArrivedAtPickup,
	})
	assert.ErrorIs(t, err, ErrActorNotAllowed)
}

func TestStore_Apply_AppendsNotifications(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	_, err := s.Apply(ctx, "bk-1001", TransitionRequest{
		ActorRole: models.RoleDriver,
		Target:    models.StatusArrivedAtPickup,
	})
	require.NoError(t, err)

	forShipper, err := mem.FindNotifications(ctx, "shp-01")
	require.NoError(t, err)
	require.Len(t, forShipper, 1)
	assert.Contains(t, forShipper[0].Message, "WB-4F2A19")

	// The other shipper sees nothing.
	other, err := mem.FindNotifications(ctx, "shp-02")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_OpenDispute(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	updated, err := s.OpenDispute(ctx, "bk-1001", "shp-01", "load arrived damaged")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDisputed, updated.Status)

	disputes, err := mem.FindDisputes(ctx, nil)
	require.NoError(t, err)
	require.Len(t, disputes, 1)
	assert.Equal(t, models.DisputeOpen, disputes[0].Status)

	// The booking is now terminal: no further disputes or transitions.
	_, err = s.OpenDispute(ctx, "bk-1001", "shp-01", "again")
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyTerminal)

	// And it drops off the driver's active view.
	driver, err := s.Get(ctx, models.RoleDriver, "car-01")
	require.NoError(t, err)
	assert.Empty(t, driver)
}

func TestStore_Create(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, models.Booking{
		ShipperID:   "shp-09",
		CarrierID:   "car-02",
		Origin:      "Gqeberha",
		Destination: "East London",
		BaseRate:    4200,
		Price:       4830,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.BookingID)
	assert.Contains(t, created.Waybill, "WB-")
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, models.PaymentEscrow, created.PaymentStatus)
}

// walkTo drives a booking along the happy path to the wanted status.
func walkTo(t *testing.T, s *Store, bookingID string, want models.BookingStatus) {
	t.Helper()
	ctx := context.Background()
	for {
		b, err := s.bookings.FindBookingByID(ctx, bookingID)
		require.NoError(t, err)
		if b.Status == want {
			return
		}
		next, ok := lifecycle.Next(b.Status)
		require.True(t, ok)

		ev := models.Evidence{}
		switch next {
		case models.StatusCollected:
			ev = models.Evidence{LoadPhoto: attachment(), Sealed: true, SealNumber: "SEAL-001"}
		case models.StatusDelivered:
			ev = models.Evidence{
				OffloadPhoto: attachment(),
				PODPhoto:     attachment(),
				DeliveryPIN:  b.DeliveryPIN,
				Signature:    attachment(),
			}
		}
		role := models.RoleDriver
		if next == models.StatusCompleted {
			role = models.RoleShipper
		}
		_, err = s.Apply(ctx, bookingID, TransitionRequest{ActorRole: role, Target: next, Evidence: ev})
		require.NoError(t, err)
	}
}
