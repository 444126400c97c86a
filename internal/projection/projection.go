package projection

import (
	"github.com/avelldev/freight-marketplace/internal/lifecycle"
	"github.com/avelldev/freight-marketplace/internal/models"
)

// Project is the read model the driver UI observes. It replays queued,
// not-yet-confirmed actions on top of an authoritative snapshot using the
// same lifecycle policy the booking store enforces, so the optimistic view
// can only ever differ from the authoritative one in timing, never in shape.
//
// The function is pure: it never mutates its inputs, and projecting the same
// snapshot and queue twice yields the same view. Actions the policy rejects
// are skipped, exactly as the store would reject them during replay.
func Project(authoritative []models.Booking, pending []models.OfflineAction) []models.Booking {
	view := make([]models.Booking, len(authoritative))
	copy(view, authoritative)

	index := make(map[string]int, len(view))
	for i, b := range view {
		index[b.BookingID] = i
	}

	for _, action := range pending {
		i, ok := index[action.BookingID]
		if !ok {
			continue
		}
		b := view[i]
		if err := lifecycle.Validate(b.Status, b.DeliveryPIN, action.Target, action.Evidence); err != nil {
			continue
		}
		view[i] = lifecycle.ApplyTransition(b, action.Target, action.Evidence, action.CreatedAt)
	}
	return view
}
