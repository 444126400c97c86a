package offline

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/avelldev/freight-marketplace/internal/localstore"
	"github.com/avelldev/freight-marketplace/internal/models"
)

// Submitter applies one replayed action against the authoritative store.
type Submitter interface {
	Submit(ctx context.Context, action models.OfflineAction) error
}

// Queue buffers mutations attempted while disconnected. Every append is
// persisted to the durable local store immediately, so a process restart
// never loses pending actions. Replay is strictly one at a time in enqueue
// order: a collected action for a booking can never land after a later
// delivered action for the same booking.
type Queue struct {
	mu          sync.Mutex
	local       *localstore.Store
	actions     []models.OfflineAction
	replayDelay time.Duration
}

// NewQueue loads any persisted pending actions and returns the queue.
// A nil local store keeps the queue in memory only.
func NewQueue(local *localstore.Store, replayDelay time.Duration) *Queue {
	q := &Queue{local: local, replayDelay: replayDelay}
	if local == nil {
		return q
	}
	if err := local.Get(localstore.KeyOfflineQueue, &q.actions); err != nil {
		if err != localstore.ErrNotFound {
			log.WithError(err).Warn("Discarding corrupt offline queue")
		}
		q.actions = nil
	} else if len(q.actions) > 0 {
		log.WithField("pending", len(q.actions)).Info("Restored offline queue")
	}
	return q
}

// Enqueue records a deferred mutation. Binary attachments inside the
// evidence ride along base64-encoded by the JSON codec, so the whole action
// is a transportable text value in durable storage.
func (q *Queue) Enqueue(action models.OfflineAction) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now()
	}
	if action.ID == "" {
		action.ID = strconv.FormatInt(action.CreatedAt.UnixNano(), 10)
	}
	q.actions = append(q.actions, action)
	if err := q.persist(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"action_id":  action.ID,
		"booking_id": action.BookingID,
		"target":     action.Target,
		"pending":    len(q.actions),
	}).Info("Queued offline action")
	return nil
}

// Pending returns a copy of the queued actions in enqueue order.
func (q *Queue) Pending() []models.OfflineAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.OfflineAction, len(q.actions))
	copy(out, q.actions)
	return out
}

// Len returns the number of queued actions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Drain replays queued actions through the submitter, strictly in enqueue
// order and waiting for each to finish before starting the next. A failed
// action is logged and dropped, not retried. After the queue fully drains it
// is cleared from durable storage.
func (q *Queue) Drain(ctx context.Context, submit Submitter) error {
	for {
		q.mu.Lock()
		if len(q.actions) == 0 {
			q.mu.Unlock()
			break
		}
		action := q.actions[0]
		q.mu.Unlock()

		if err := submit.Submit(ctx, action); err != nil {
			// Known weakness: the action is dropped, there is no retry or
			// user-facing recovery flow.
			log.WithFields(log.Fields{
				"action_id":  action.ID,
				"booking_id": action.BookingID,
				"target":     action.Target,
			}).WithError(err).Error("Replay failed, dropping action")
		}

		q.mu.Lock()
		q.actions = q.actions[1:]
		if err := q.persist(); err != nil {
			log.WithError(err).Warn("Failed to persist queue progress")
		}
		q.mu.Unlock()

		if q.replayDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(q.replayDelay):
			}
		}
	}

	if q.local != nil {
		if err := q.local.Delete(localstore.KeyOfflineQueue); err != nil {
			return fmt.Errorf("clear drained queue: %w", err)
		}
	}
	log.Info("Offline queue drained")
	return nil
}

// persist flushes the current queue. Callers hold the lock.
func (q *Queue) persist() error {
	if q.local == nil {
		return nil
	}
	return q.local.Put(localstore.KeyOfflineQueue, q.actions)
}
