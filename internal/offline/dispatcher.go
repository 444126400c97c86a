package offline

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/avelldev/freight-marketplace/internal/models"
	"github.com/avelldev/freight-marketplace/internal/projection"
)

// Dispatcher routes driver mutations. While the connectivity signal reads
// online, actions go straight to the authoritative store; while offline they
// are queued and the operator sees their effect through the optimistic view.
// Whenever the signal flips back to online the queue is drained.
type Dispatcher struct {
	monitor *Monitor
	queue   *Queue
	submit  Submitter

	mu      sync.Mutex
	syncing bool
}

// NewDispatcher wires a monitor, queue and submitter together.
func NewDispatcher(monitor *Monitor, queue *Queue, submit Submitter) *Dispatcher {
	return &Dispatcher{monitor: monitor, queue: queue, submit: submit}
}

// Do performs or defers one action. It reports whether the action was queued
// for later replay. There is no abort path: a submitted action either
// completes or is queued.
func (d *Dispatcher) Do(ctx context.Context, action models.OfflineAction) (queued bool, err error) {
	if d.monitor.Online() {
		return false, d.submit.Submit(ctx, action)
	}
	return true, d.queue.Enqueue(action)
}

// View projects the optimistic read model: the authoritative snapshot plus
// any queued-but-unconfirmed actions. While online and not mid-sync the
// queue is empty and the view equals the authoritative one.
func (d *Dispatcher) View(authoritative []models.Booking) []models.Booking {
	return projection.Project(authoritative, d.queue.Pending())
}

// Syncing reports whether a drain is in progress.
func (d *Dispatcher) Syncing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.syncing
}

// Run watches the connectivity signal and drains the queue on every offline
// to online transition. It also drains once at startup when already online,
// picking up actions persisted by a previous process. Blocks until the
// context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	transitions := d.monitor.Subscribe()

	if d.monitor.Online() && d.queue.Len() > 0 {
		d.drain(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case online := <-transitions:
			if online && d.queue.Len() > 0 {
				d.drain(ctx)
			}
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	d.mu.Lock()
	if d.syncing {
		d.mu.Unlock()
		return
	}
	d.syncing = true
	d.mu.Unlock()

	log.WithField("pending", d.queue.Len()).Info("Connectivity restored, replaying offline actions")
	if err := d.queue.Drain(ctx, d.submit); err != nil {
		log.WithError(err).Warn("Queue drain interrupted")
	}

	d.mu.Lock()
	d.syncing = false
	d.mu.Unlock()
}
