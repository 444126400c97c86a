package compliance

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/avelldev/freight-marketplace/internal/db"
	"github.com/avelldev/freight-marketplace/internal/models"
	"github.com/avelldev/freight-marketplace/internal/notify"
)

// Scanner watches the compliance document collection for credentials that
// expire within the lookahead window and pushes a notification to each
// document owner. It runs on a daily cadence.
type Scanner struct {
	docs      db.DocumentCollection
	publisher notify.Publisher
	lookahead time.Duration
	interval  time.Duration
}

// NewScanner creates a scanner with the standard 30-day lookahead and daily
// cadence.
func NewScanner(docs db.DocumentCollection, publisher notify.Publisher) *Scanner {
	if publisher == nil {
		publisher = notify.LogPublisher{}
	}
	return &Scanner{
		docs:      docs,
		publisher: publisher,
		lookahead: 30 * 24 * time.Hour,
		interval:  24 * time.Hour,
	}
}

// Run scans immediately and then once per interval until the context is
// cancelled.
func (s *Scanner) Run(ctx context.Context) {
	if _, err := s.Scan(ctx); err != nil {
		log.WithError(err).Error("Compliance scan failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Scan(ctx); err != nil {
				log.WithError(err).Error("Compliance scan failed")
			}
		}
	}
}

// Scan finds documents expiring within the lookahead window and dispatches
// one notification per document, keyed by owner. Returns how many alerts
// went out.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(s.lookahead)
	docs, err := s.docs.FindExpiring(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find expiring documents: %w", err)
	}

	for _, doc := range docs {
		days := int(time.Until(doc.ExpiresAt).Hours() / 24)
		s.publisher.Publish(models.Notification{
			Audience: doc.OwnerID,
			Message:  fmt.Sprintf("%s %s expires in %d days", doc.Type, doc.Reference, days),
		})
	}

	log.WithFields(log.Fields{
		"expiring": len(docs),
		"cutoff":   cutoff.Format("2006-01-02"),
	}).Info("Compliance scan completed")
	return len(docs), nil
}
