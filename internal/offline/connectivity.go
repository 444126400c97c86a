package offline

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Probe reports whether the network is currently reachable.
type Probe func() bool

// Monitor models connectivity as a boolean signal derived from a probe, with
// a manual override that forces the signal offline regardless of what the
// probe says. The override exists for demos and tests of the offline path.
type Monitor struct {
	mu     sync.Mutex
	probe  Probe
	forced bool
	online bool
	subs   []chan bool
}

// NewMonitor creates a monitor. A nil probe is treated as always reachable.
func NewMonitor(probe Probe) *Monitor {
	if probe == nil {
		probe = func() bool { return true }
	}
	return &Monitor{probe: probe, online: probe()}
}

// Online reports the current signal: probe result unless forced offline.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online && !m.forced
}

// ForceOffline sets or clears the manual override.
func (m *Monitor) ForceOffline(force bool) {
	m.mu.Lock()
	was := m.online && !m.forced
	m.forced = force
	now := m.online && !m.forced
	m.mu.Unlock()

	if was != now {
		log.WithField("online", now).Info("Connectivity signal changed")
		m.notify(now)
	}
}

// Subscribe returns a channel that receives the new signal value on every
// transition. Slow subscribers miss intermediate transitions rather than
// blocking the monitor.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Monitor) notify(online bool) {
	m.mu.Lock()
	subs := make([]chan bool, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- online:
		default:
		}
	}
}

// Start polls the probe until the context is cancelled, emitting a
// transition whenever the observed state flips.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reachable := m.probe()
				m.mu.Lock()
				was := m.online && !m.forced
				m.online = reachable
				now := m.online && !m.forced
				m.mu.Unlock()
				if was != now {
					log.WithField("online", now).Info("Connectivity signal changed")
					m.notify(now)
				}
			}
		}
	}()
}
