package offline

import (
	"context"

	"github.com/avelldev/freight-marketplace/internal/models"
	"github.com/avelldev/freight-marketplace/internal/store"
)

// StoreSubmitter replays actions directly against an in-process booking
// store, acting as the driver whose device queued them.
type StoreSubmitter struct {
	Store    *store.Store
	DriverID string
}

// Submit applies one action through the booking store.
func (s *StoreSubmitter) Submit(ctx context.Context, action models.OfflineAction) error {
	_, err := s.Store.Apply(ctx, action.BookingID, store.TransitionRequest{
		ActorID:   s.DriverID,
		ActorRole: models.RoleDriver,
		Target:    action.Target,
		Evidence:  action.Evidence,
	})
	return err
}
