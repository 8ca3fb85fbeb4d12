// Package rhythm implements the pure boolean gate primitives scripts compose
// into polyrhythms. Every gate is a referentially transparent function of the
// clock position; none keep cursor state of their own.
package rhythm

import "math"

// State is the slice of clock position the gates read. Pulses counts from the
// origin; Bar is one-based.
type State struct {
	Pulses      int
	PPQN        int
	BeatsPerBar int
}

// Bar returns the one-based bar for the state's pulse count.
func (s State) Bar() int {
	return s.Pulses/(s.PPQN*s.BeatsPerBar) + 1
}

// Beat returns the one-based beat within the bar.
func (s State) Beat() int {
	return (s.Pulses/s.PPQN)%s.BeatsPerBar + 1
}

// beatsToPulses converts a beat span to whole pulses, flooring. A span too
// small to cover a single pulse at the active resolution yields 0, which the
// gates treat as "never true" rather than dividing by it.
func beatsToPulses(beats float64, ppqn int) int {
	return int(math.Floor(beats * float64(ppqn)))
}

// Mod is true iff the pulse counter is a multiple of any of the given spans,
// expressed in beats. mod(1) fires on every beat, mod(0.5) twice per beat,
// mod(2, 3) on every second or third beat.
func Mod(s State, beats ...float64) bool {
	for _, b := range beats {
		n := beatsToPulses(b, s.PPQN)
		if n <= 0 {
			continue
		}
		if s.Pulses%n == 0 {
			return true
		}
	}
	return false
}

// Div is a flip-flop: alternating true/false spans of chunk beats each.
func Div(s State, chunk float64) bool {
	n := beatsToPulses(chunk, s.PPQN)
	if n <= 0 {
		return false
	}
	return (s.Pulses/n)%2 == 0
}

// DivBar is the same flip-flop keyed on bars: true for the first chunk bars,
// false for the next chunk, and so on.
func DivBar(s State, chunk int) bool {
	if chunk <= 0 {
		return false
	}
	return ((s.Bar()-1)/chunk)%2 == 0
}

// OnBar is true iff the current bar, reduced into [1..n], matches any of the
// listed bars reduced the same way. onbar(4, 1, 3) fires throughout the first
// and third bar of every four.
func OnBar(s State, n int, bars ...int) bool {
	if n <= 0 {
		return false
	}
	current := (s.Bar()-1)%n + 1
	for _, b := range bars {
		if (b-1)%n+1 == current {
			return true
		}
	}
	return false
}

// OnBeat is true iff the exact (beat, pulse-within-beat) pair matches one of
// the listed beats. A fractional beat b decomposes into floor(b) and
// frac(b)*ppqn pulses; the match is exact, not windowed, so callers must pick
// values reachable at the active resolution.
func OnBeat(s State, beats ...float64) bool {
	beat := s.Beat()
	sub := s.Pulses % s.PPQN
	for _, b := range beats {
		whole, frac := math.Modf(b)
		if int(whole) == beat && int(math.Round(frac*float64(s.PPQN))) == sub {
			return true
		}
	}
	return false
}
