// Package clock owns musical time: the transport, the pulse counters, and
// the arithmetic that maps pulses to seconds, beats and bars.
package clock

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Transport is the clock's run state.
type Transport int

const (
	TransportStopped Transport = iota
	TransportRunning
	TransportPaused
)

func (t Transport) String() string {
	switch t {
	case TransportRunning:
		return "running"
	case TransportPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// TimeSource provides monotonic time in seconds. The audio backend's clock
// satisfies this; SystemSource is the fallback.
type TimeSource interface {
	Now() float64
}

// SystemSource measures monotonic seconds since its creation.
type SystemSource struct {
	start time.Time
}

func NewSystemSource() *SystemSource {
	return &SystemSource{start: time.Now()}
}

func (s *SystemSource) Now() float64 {
	return time.Since(s.start).Seconds()
}

// Nominal tempo bounds. Values outside are logged, not rejected.
const (
	minBPM = 1.0
	maxBPM = 500.0
)

const (
	DefaultBPM         = 120.0
	DefaultPPQN        = 48
	DefaultBeatsPerBar = 4
	DefaultBarUnit     = 4
)

// Clock holds the transport state and the single source of truth for musical
// position: pulses since origin. Bar/beat/pulse positions are always derived
// from that counter, never stored.
//
// Counter advancement happens on the scheduler goroutine; the mutex exists
// for transport and tempo calls crossing in from the UI.
type Clock struct {
	mu sync.Mutex

	bpm         float64
	ppqn        int
	beatsPerBar int
	barUnit     int
	pulseDur    float64 // seconds, derived from bpm and ppqn

	transport Transport
	pulses    int // pulses since origin
	beats     int // beats since origin
	tick      int // scheduler polls since start

	logger *log.Logger
}

// Snapshot is an immutable view of the clock taken at a pulse boundary.
type Snapshot struct {
	BPM         float64
	PPQN        int
	BeatsPerBar int
	BarUnit     int
	PulseDur    float64
	Pulses      int
	Beats       int
	Transport   Transport
}

func New(logger *log.Logger) *Clock {
	if logger == nil {
		logger = log.Default()
	}
	c := &Clock{
		bpm:         DefaultBPM,
		ppqn:        DefaultPPQN,
		beatsPerBar: DefaultBeatsPerBar,
		barUnit:     DefaultBarUnit,
		logger:      logger,
	}
	c.pulseDur = PulseDuration(c.bpm, c.ppqn)
	return c
}

// PulseDuration is the length of one pulse in seconds at the given tempo.
func PulseDuration(bpm float64, ppqn int) float64 {
	return 60.0 / (bpm * float64(ppqn))
}

// PulseToSeconds converts a pulse count to seconds at the given tempo.
func PulseToSeconds(pulses int, bpm float64, ppqn int) float64 {
	return float64(pulses) * PulseDuration(bpm, ppqn)
}

// BarOf returns the zero-based bar containing the given pulse.
func BarOf(pulses, ppqn, beatsPerBar int) int {
	return pulses / (ppqn * beatsPerBar)
}

// BeatOf returns the zero-based beat within the bar containing the pulse.
func BeatOf(pulses, ppqn, beatsPerBar int) int {
	return (pulses / ppqn) % beatsPerBar
}

// PulseInBeat returns the pulse offset within its beat.
func PulseInBeat(pulses, ppqn int) int {
	return pulses % ppqn
}

func (c *Clock) BPM() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bpm
}

// SetBPM applies a new tempo and recomputes the pulse duration. Out-of-range
// values are logged but still applied; the change affects future pulse
// spacing only.
func (c *Clock) SetBPM(bpm float64) {
	if bpm <= 0 {
		c.logger.Warn("ignoring non-positive bpm", "bpm", bpm)
		return
	}
	if bpm < minBPM || bpm > maxBPM {
		c.logger.Warn("bpm outside nominal range", "bpm", bpm, "min", minBPM, "max", maxBPM)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bpm = bpm
	c.pulseDur = PulseDuration(c.bpm, c.ppqn)
}

func (c *Clock) PPQN() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ppqn
}

// SetPPQN sets the pulses-per-quarter-note resolution and recomputes the
// pulse duration. Non-positive values are ignored.
func (c *Clock) SetPPQN(ppqn int) {
	if ppqn < 1 {
		c.logger.Warn("ignoring invalid ppqn", "ppqn", ppqn)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ppqn = ppqn
	c.pulseDur = PulseDuration(c.bpm, c.ppqn)
}

func (c *Clock) TimeSignature() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beatsPerBar, c.barUnit
}

func (c *Clock) SetTimeSignature(beatsPerBar, unit int) {
	if beatsPerBar < 1 || unit < 1 {
		c.logger.Warn("ignoring invalid time signature", "num", beatsPerBar, "den", unit)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beatsPerBar = beatsPerBar
	c.barUnit = unit
}

// PulseDur returns the current pulse length in seconds.
func (c *Clock) PulseDur() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulseDur
}

func (c *Clock) Transport() Transport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport
}

// Pulses returns the number of pulses elapsed since the origin.
func (c *Clock) Pulses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulses
}

// Bar returns the current one-based bar number.
func (c *Clock) Bar() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BarOf(c.pulses, c.ppqn, c.beatsPerBar) + 1
}

// Beat returns the current one-based beat within the bar.
func (c *Clock) Beat() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BeatOf(c.pulses, c.ppqn, c.beatsPerBar) + 1
}

// Pulse returns the pulse offset within the current beat.
func (c *Clock) Pulse() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return PulseInBeat(c.pulses, c.ppqn)
}

// EBeat returns the one-based count of beats elapsed since the origin.
func (c *Clock) EBeat() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulses/c.ppqn + 1
}

// EPulse returns the pulses elapsed since the origin.
func (c *Clock) EPulse() int {
	return c.Pulses()
}

func (c *Clock) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		BPM:         c.bpm,
		PPQN:        c.ppqn,
		BeatsPerBar: c.beatsPerBar,
		BarUnit:     c.barUnit,
		PulseDur:    c.pulseDur,
		Pulses:      c.pulses,
		Beats:       c.beats,
		Transport:   c.transport,
	}
}

// Tick returns the number of scheduler polls since the last start.
func (c *Clock) Tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}
