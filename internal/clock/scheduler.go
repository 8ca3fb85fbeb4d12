package clock

import (
	"time"

	"github.com/charmbracelet/log"
)

// PulseFunc is invoked once per pulse boundary with the boundary's index and
// its precomputed timestamp on the time source. The timestamp is what output
// scheduling keys on; the callback itself may run tens of milliseconds early.
type PulseFunc func(pulse int, at float64)

const (
	// DefaultInterval is the poll period. Far smaller than a pulse at any
	// sane tempo, so boundaries are computed well ahead of their deadline.
	DefaultInterval = 25 * time.Millisecond

	// DefaultLookahead is how far past now each poll schedules, in seconds.
	DefaultLookahead = 0.1
)

// Scheduler drives the clock from a TimeSource with a lookahead poll loop.
//
// Every poll computes all pulse boundaries falling in (last processed,
// now+lookahead] and processes them synchronously in strictly increasing
// order. Nothing is coalesced or skipped: counters and pattern cursors depend
// on seeing every boundary. A poll that wakes late replays everything it
// missed before returning.
//
// Start, Pause and Stop bump a generation counter; a poll scheduled before
// the transition observes the stale generation and mutates nothing.
type Scheduler struct {
	Interval  time.Duration
	Lookahead float64

	clock   *Clock
	source  TimeSource
	onPulse PulseFunc
	logger  *log.Logger

	gen    uint64
	nextAt float64 // time-source timestamp of the next unprocessed boundary
}

func NewScheduler(c *Clock, source TimeSource, onPulse PulseFunc, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		Interval:  DefaultInterval,
		Lookahead: DefaultLookahead,
		clock:     c,
		source:    source,
		onPulse:   onPulse,
		logger:    logger,
	}
}

// Clock returns the clock this scheduler drives.
func (s *Scheduler) Clock() *Clock { return s.clock }

// Now reports the current time-source reading.
func (s *Scheduler) Now() float64 { return s.source.Now() }

// Start begins (or resumes) pulse scheduling. Starting from stopped resets
// the counters to the origin; starting from paused keeps the position.
func (s *Scheduler) Start() {
	s.clock.mu.Lock()
	if s.clock.transport == TransportRunning {
		s.clock.mu.Unlock()
		return
	}
	if s.clock.transport == TransportStopped {
		s.clock.pulses = 0
		s.clock.beats = 0
		s.clock.tick = 0
	}
	s.clock.transport = TransportRunning
	s.gen++
	gen := s.gen
	s.nextAt = s.source.Now()
	s.clock.mu.Unlock()

	go s.loop(gen)
}

// Pause freezes the position without resetting it and invalidates the
// running poll loop.
func (s *Scheduler) Pause() {
	s.clock.mu.Lock()
	defer s.clock.mu.Unlock()
	if s.clock.transport != TransportRunning {
		return
	}
	s.gen++
	s.clock.transport = TransportPaused
}

// Stop halts scheduling and resets the counters to the origin. Any pending
// poll keyed to the old generation can no longer fire.
func (s *Scheduler) Stop() {
	s.clock.mu.Lock()
	defer s.clock.mu.Unlock()
	s.gen++
	s.clock.transport = TransportStopped
	s.clock.pulses = 0
	s.clock.beats = 0
	s.clock.tick = 0
}

func (s *Scheduler) loop(gen uint64) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	if !s.poll(gen) {
		return
	}
	for range ticker.C {
		if !s.poll(gen) {
			return
		}
	}
}

// poll processes every boundary due before now+lookahead. Returns false once
// the generation is stale, which ends the loop.
func (s *Scheduler) poll(gen uint64) bool {
	s.clock.mu.Lock()
	if s.gen != gen || s.clock.transport != TransportRunning {
		s.clock.mu.Unlock()
		return false
	}
	s.clock.tick++

	horizon := s.source.Now() + s.Lookahead
	for s.nextAt <= horizon {
		pulse := s.clock.pulses
		at := s.nextAt
		// Pulse spacing is re-read per boundary; a tempo change inside a
		// script reshapes the spacing from the next unscheduled boundary on.
		s.nextAt += s.clock.pulseDur

		s.clock.mu.Unlock()
		s.fire(pulse, at)
		s.clock.mu.Lock()

		if s.gen != gen || s.clock.transport != TransportRunning {
			// The callback stopped or paused the transport; the remaining
			// boundaries of this poll belong to a dead generation.
			s.clock.mu.Unlock()
			return false
		}
		s.clock.pulses++
		if s.clock.pulses%s.clock.ppqn == 0 {
			s.clock.beats++
		}
	}
	s.clock.mu.Unlock()
	return true
}

// fire runs the pulse callback behind the loop's last-resort error boundary.
// A panicking script must never take the scheduler down with it.
func (s *Scheduler) fire(pulse int, at float64) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pulse processing panicked", "pulse", pulse, "err", r)
		}
	}()
	if s.onPulse != nil {
		s.onPulse(pulse, at)
	}
}
