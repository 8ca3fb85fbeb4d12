package clock

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is a hand-cranked TimeSource. Tests drive poll directly instead
// of waiting on the real ticker.
type fakeSource struct {
	t float64
}

func (f *fakeSource) Now() float64 { return f.t }

type firing struct {
	pulse int
	at    float64
}

func newTestScheduler(onPulse PulseFunc) (*Scheduler, *fakeSource) {
	c := New(log.New(io.Discard))
	c.SetBPM(120)
	c.SetPPQN(4) // one pulse every 125ms
	src := &fakeSource{}
	s := NewScheduler(c, src, onPulse, log.New(io.Discard))
	return s, src
}

// arm puts the scheduler in the running state without spawning the loop
// goroutine, so tests control every poll.
func arm(s *Scheduler) uint64 {
	s.clock.mu.Lock()
	defer s.clock.mu.Unlock()
	s.clock.transport = TransportRunning
	s.gen++
	s.nextAt = s.source.Now()
	return s.gen
}

func TestPollProcessesEveryBoundaryInOrder(t *testing.T) {
	var got []firing
	s, src := newTestScheduler(func(pulse int, at float64) {
		got = append(got, firing{pulse, at})
	})
	gen := arm(s)

	// Lookahead 0.1: boundaries at 0 and 0.125 fall inside now=0.05+0.1.
	src.t = 0.05
	require.True(t, s.poll(gen))

	require.Len(t, got, 2)
	assert.Equal(t, firing{0, 0.0}, got[0])
	assert.Equal(t, firing{1, 0.125}, got[1])
	assert.Equal(t, 2, s.clock.Pulses())
}

func TestLatePollReplaysMissedBoundaries(t *testing.T) {
	var got []firing
	s, src := newTestScheduler(func(pulse int, at float64) {
		got = append(got, firing{pulse, at})
	})
	gen := arm(s)

	src.t = 0.05
	require.True(t, s.poll(gen))
	require.Len(t, got, 2)

	// Jump a full second ahead. Every boundary in between must still fire,
	// strictly ordered, none coalesced.
	src.t = 1.05
	require.True(t, s.poll(gen))

	require.Greater(t, len(got), 2)
	for i, f := range got {
		assert.Equal(t, i, f.pulse, "boundary %d out of order", i)
		assert.InDelta(t, float64(i)*0.125, f.at, 1e-9)
	}
	last := got[len(got)-1]
	assert.LessOrEqual(t, last.at, 1.05+DefaultLookahead)
}

func TestBeatCounterAdvancesEveryPPQNPulses(t *testing.T) {
	s, src := newTestScheduler(func(int, float64) {})
	gen := arm(s)

	// 9 boundaries: pulses 0..8 at 125ms spacing, ppqn 4 -> 2 whole beats.
	src.t = 0.95
	require.True(t, s.poll(gen))

	snap := s.Clock().Snapshot()
	assert.Equal(t, 9, snap.Pulses)
	assert.Equal(t, 2, snap.Beats)
}

func TestStalePollMutatesNothing(t *testing.T) {
	fired := 0
	s, src := newTestScheduler(func(int, float64) { fired++ })
	gen := arm(s)

	// A transport transition bumps the generation; the old poll must bail
	// without firing or touching the counters.
	s.Stop()

	src.t = 10
	assert.False(t, s.poll(gen))
	assert.Zero(t, fired)
	assert.Equal(t, 0, s.Clock().Pulses())
}

func TestCallbackStoppingTransportEndsThePoll(t *testing.T) {
	var s *Scheduler
	fired := 0
	s, src := newTestScheduler(func(pulse int, at float64) {
		fired++
		s.Stop()
	})
	gen := arm(s)

	src.t = 1.0
	assert.False(t, s.poll(gen))
	assert.Equal(t, 1, fired, "boundaries after the stop belong to a dead generation")
	assert.Equal(t, 0, s.Clock().Pulses())
	assert.Equal(t, TransportStopped, s.Clock().Transport())
}

func TestPanickingCallbackDoesNotKillThePoll(t *testing.T) {
	var got []int
	s, src := newTestScheduler(func(pulse int, at float64) {
		got = append(got, pulse)
		if pulse == 0 {
			panic("script blew up")
		}
	})
	gen := arm(s)

	src.t = 0.05
	require.True(t, s.poll(gen))
	assert.Equal(t, []int{0, 1}, got)
	assert.Equal(t, 2, s.clock.Pulses())
}

func TestTempoChangeAppliesToFutureSpacing(t *testing.T) {
	var got []firing
	var s *Scheduler
	s, src := newTestScheduler(func(pulse int, at float64) {
		got = append(got, firing{pulse, at})
		if pulse == 1 {
			s.Clock().SetBPM(240) // halve the pulse duration
		}
	})
	gen := arm(s)

	src.t = 0.4
	require.True(t, s.poll(gen))

	require.GreaterOrEqual(t, len(got), 4)
	assert.InDelta(t, 0.0, got[0].at, 1e-9)
	assert.InDelta(t, 0.125, got[1].at, 1e-9)
	// Pulses after the change are 62.5ms apart.
	assert.InDelta(t, 0.25, got[2].at, 1e-9)
	assert.InDelta(t, 0.3125, got[3].at, 1e-9)
}

func TestStartFromStoppedResetsCounters(t *testing.T) {
	s, src := newTestScheduler(func(int, float64) {})
	gen := arm(s)

	src.t = 0.5
	require.True(t, s.poll(gen))
	require.Greater(t, s.Clock().Pulses(), 0)

	s.Pause()
	assert.Equal(t, TransportPaused, s.Clock().Transport())
	paused := s.Clock().Pulses()
	assert.Greater(t, paused, 0, "pause keeps the position")

	s.Stop()
	assert.Equal(t, 0, s.Clock().Pulses())
	assert.Equal(t, TransportStopped, s.Clock().Transport())
}

func TestStartWhileRunningIsANoop(t *testing.T) {
	s, _ := newTestScheduler(func(int, float64) {})
	s.Start()
	defer s.Stop()

	gen := func() uint64 {
		s.clock.mu.Lock()
		defer s.clock.mu.Unlock()
		return s.gen
	}
	before := gen()
	s.Start()
	assert.Equal(t, before, gen())
	assert.Equal(t, TransportRunning, s.Clock().Transport())
}
