package lifecycle

import (
	"time"

	"github.com/avelldev/freight-marketplace/internal/models"
)

// ApplyTransition returns a copy of the booking with a validated transition
// applied: the new status, the evidence that transition carried, and for
// Completed the payment release. Both the authoritative store and the
// optimistic projection go through this function so their results never
// diverge in shape.
func ApplyTransition(b models.Booking, target models.BookingStatus, ev models.Evidence, now time.Time) models.Booking {
	b.Status = target
	b.UpdatedAt = now

	switch target {
	case models.StatusCollected:
		b.Evidence.LoadPhoto = ev.LoadPhoto
		b.Evidence.Sealed = ev.Sealed
		b.Evidence.SealNumber = ev.SealNumber
		if ev.Location != nil {
			b.Evidence.Location = ev.Location
		}
	case models.StatusDelivered:
		b.Evidence.OffloadPhoto = ev.OffloadPhoto
		b.Evidence.PODPhoto = ev.PODPhoto
		b.Evidence.Signature = ev.Signature
		if ev.Location != nil {
			b.Evidence.Location = ev.Location
		}
	case models.StatusCompleted:
		b.PaymentStatus = models.PaymentReleased
	}
	return b
}
