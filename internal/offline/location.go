package offline

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/avelldev/freight-marketplace/internal/models"
)

// LocationProvider reads the device position. Reads may block on hardware.
type LocationProvider func(ctx context.Context) (models.GeoPoint, error)

// ReadLocation asks the provider for a fix within the timeout. Geolocation
// is optional evidence: if the read fails or times out the location is
// omitted and the transition proceeds without it.
func ReadLocation(ctx context.Context, provider LocationProvider, timeout time.Duration) *models.GeoPoint {
	if provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		point models.GeoPoint
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := provider(ctx)
		ch <- result{p, err}
	}()

	select {
	case <-ctx.Done():
		log.Warn("Geolocation read timed out, omitting location")
		return nil
	case r := <-ch:
		if r.err != nil {
			log.WithError(r.err).Warn("Geolocation read failed, omitting location")
			return nil
		}
		return &r.point
	}
}
