// Package output carries gate decisions out of the core. The scheduler hands
// each sink an event with a precise time-source timestamp; the sink owns the
// last hop onto its backend (MIDI port, software synth, or a log line).
package output

import (
	"sync"
	"time"

	"github.com/endrorytm/Topos/internal/clock"
)

// Event is one note decision. When is an absolute timestamp on the session's
// time source; Duration is the gate length in seconds.
type Event struct {
	When     float64
	Channel  uint8
	Key      uint8
	Velocity uint8
	Duration float64
}

// Sink renders events. Send may be called ahead of When; the sink is
// responsible for honoring the timestamp.
type Sink interface {
	Send(Event) error
	// Silence cuts everything currently sounding.
	Silence() error
	Close() error
}

// timeline schedules callbacks against a time source and lets a closing sink
// cancel everything still pending.
type timeline struct {
	source clock.TimeSource

	mu     sync.Mutex
	closed bool
	timers map[*time.Timer]struct{}
}

func newTimeline(source clock.TimeSource) *timeline {
	return &timeline{
		source: source,
		timers: make(map[*time.Timer]struct{}),
	}
}

// at runs fn when the time source reaches the given timestamp. Timestamps in
// the past run immediately: the scheduler may be replaying missed boundaries
// and those events are late, not droppable.
func (tl *timeline) at(when float64, fn func()) {
	delay := time.Duration((when - tl.source.Now()) * float64(time.Second))
	if delay <= 0 {
		fn()
		return
	}
	tl.mu.Lock()
	if tl.closed {
		tl.mu.Unlock()
		return
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		tl.mu.Lock()
		delete(tl.timers, t)
		closed := tl.closed
		tl.mu.Unlock()
		if !closed {
			fn()
		}
	})
	tl.timers[t] = struct{}{}
	tl.mu.Unlock()
}

// close cancels all pending callbacks.
func (tl *timeline) close() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.closed = true
	for t := range tl.timers {
		t.Stop()
	}
	tl.timers = make(map[*time.Timer]struct{})
}
