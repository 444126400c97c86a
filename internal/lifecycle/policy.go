package lifecycle

import (
	"errors"
	"fmt"

	"github.com/avelldev/freight-marketplace/internal/models"
)

var (
	ErrUnknownStatus   = errors.New("unknown status")
	ErrNotSuccessor    = errors.New("requested status is not the immediate successor")
	ErrMissingEvidence = errors.New("required evidence is missing")
	ErrSealNumberEmpty = errors.New("seal number required for a sealed load")
	ErrPINMismatch     = errors.New("delivery PIN does not match")
	ErrAlreadyTerminal = errors.New("disputed or completed bookings cannot transition")
)

// forwardOrder is the single happy path a booking walks. Disputed sits outside
// it as a side exit from any non-terminal status.
var forwardOrder = []models.BookingStatus{
	models.StatusPending,
	models.StatusAccepted,
	models.StatusArrivedAtPickup,
	models.StatusCollected,
	models.StatusInTransit,
	models.StatusArrivedAtDelivery,
	models.StatusDelivered,
	models.StatusCompleted,
}

// Next returns the immediate successor of a status on the forward path.
func Next(s models.BookingStatus) (models.BookingStatus, bool) {
	for i, cur := range forwardOrder {
		if cur == s && i < len(forwardOrder)-1 {
			return forwardOrder[i+1], true
		}
	}
	return "", false
}

// Validate is the status transition policy: a pure check of
// (current status, recorded PIN, requested status, evidence bundle).
// It never mutates anything; callers apply the transition only on nil error.
func Validate(current models.BookingStatus, recordedPIN string, target models.BookingStatus, ev models.Evidence) error {
	if !models.IsValidStatus(current) || !models.IsValidStatus(target) {
		return ErrUnknownStatus
	}
	if current.IsTerminal() {
		return ErrAlreadyTerminal
	}
	next, ok := Next(current)
	if !ok || next != target {
		return fmt.Errorf("%w: %s -> %s", ErrNotSuccessor, current, target)
	}

	switch target {
	case models.StatusCollected:
		if ev.LoadPhoto == nil || len(ev.LoadPhoto.Data) == 0 {
			return fmt.Errorf("%w: load photo", ErrMissingEvidence)
		}
		if ev.Sealed && ev.SealNumber == "" {
			return ErrSealNumberEmpty
		}
	case models.StatusDelivered:
		if recordedPIN != "" {
			if ev.DeliveryPIN != recordedPIN {
				return ErrPINMismatch
			}
		} else if ev.Signature == nil || len(ev.Signature.Data) == 0 {
			return fmt.Errorf("%w: signature", ErrMissingEvidence)
		}
		if ev.OffloadPhoto == nil || len(ev.OffloadPhoto.Data) == 0 {
			return fmt.Errorf("%w: offload photo", ErrMissingEvidence)
		}
		if ev.PODPhoto == nil || len(ev.PODPhoto.Data) == 0 {
			return fmt.Errorf("%w: proof of delivery", ErrMissingEvidence)
		}
	}
	return nil
}

// ValidateDispute checks the side exit to the terminal disputed status. The
// dispute itself is opened elsewhere; the policy only guards the transition.
func ValidateDispute(current models.BookingStatus) error {
	if !models.IsValidStatus(current) {
		return ErrUnknownStatus
	}
	if current.IsTerminal() {
		return ErrAlreadyTerminal
	}
	return nil
}
