// Package cooldown provides an interval gate. The web UI uses it to keep the
// celebration sound from firing more than once per five seconds.
package cooldown

import (
	"sync"
	"time"
)

// Gate allows at most one event per interval.
type Gate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewGate creates a gate with the given interval.
func NewGate(interval time.Duration) *Gate {
	return &Gate{interval: interval, now: time.Now}
}

// Allow reports whether the event may fire now, and if so marks the gate.
func (g *Gate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	return true
}
