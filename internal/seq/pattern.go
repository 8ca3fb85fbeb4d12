package seq

import (
	"fmt"
	"hash/fnv"

	"github.com/endrorytm/Topos/internal/clock"
)

// sentinel index meaning the cursor has not started yet.
const notStarted = -1

// Pattern is a melodic cursor whose elements carry durations independent of
// the pulse grid. Scripts query it every pulse; the cursor only advances when
// the current element's projected end time has been reached, otherwise the
// query signals a skip without consuming anything.
type Pattern struct {
	values []float64
	durs   []float64 // whole-note units per element; len 1 applies to all

	index         int
	current       float64
	firstCallTime int
	lastCallTime  int
	waitTime      int // start window in pulses past the beat boundary
}

func newPattern(values, durs []float64) *Pattern {
	if len(durs) == 0 {
		durs = []float64{0.25}
	}
	return &Pattern{
		values: values,
		durs:   durs,
		index:  notStarted,
	}
}

// Pattern returns the cursor cached for the given name and element data,
// creating it on first reference. The cache key folds in the element data, so
// editing a pattern in the script yields a fresh cursor instead of resuming a
// stale one mid-phrase.
func (r *Registry) Pattern(name string, values, durs []float64) *Pattern {
	key := patternKey(name, values, durs)
	p, ok := r.patterns[key]
	if !ok {
		p = newPattern(values, durs)
		r.patterns[key] = p
	}
	return p
}

func patternKey(name string, values, durs []float64) string {
	h := fnv.New64a()
	for _, v := range values {
		fmt.Fprintf(h, "%g,", v)
	}
	h.Write([]byte{'|'})
	for _, d := range durs {
		fmt.Fprintf(h, "%g,", d)
	}
	return fmt.Sprintf("%s#%x", name, h.Sum64())
}

// dur returns the current element's duration in whole-note units.
func (p *Pattern) dur() float64 {
	if p.index >= 0 && p.index < len(p.durs) {
		return p.durs[p.index]
	}
	return p.durs[0]
}

// Query asks the cursor whether a new element is due at the given pulse.
// It returns the current element and whether the cursor advanced; a false
// second return is the skip signal, and the cursor is not consumed.
//
// A pulse counter behind the last call time means the clock was rewound
// (stop then start); the cursor resets to not-started. Pausing does not
// rewind the counter and therefore does not reset the cursor. A restart that
// never got past pulse 0 is invisible from here; the evaluator covers that
// case by calling Registry.RewindPatterns explicitly.
func (p *Pattern) Query(pulses int, bpm float64, ppqn int) (float64, bool) {
	if len(p.values) == 0 {
		return 0, false
	}
	if pulses < p.lastCallTime {
		p.lastCallTime = 0
		p.index = notStarted
	}

	if p.index == notStarted {
		// Never started: wait for a beat boundary within the start window.
		if pulses%ppqn > p.waitTime {
			return 0, false
		}
		return p.advance(pulses), true
	}

	// Started: the element ends dur whole notes after the pulse that
	// produced it. Due once the upcoming pulse's projected time reaches it.
	beat := clock.PulseToSeconds(ppqn, bpm, ppqn)
	end := clock.PulseToSeconds(p.lastCallTime, bpm, ppqn) + p.dur()*4*beat
	if clock.PulseToSeconds(pulses+1, bpm, ppqn) < end {
		return p.current, false
	}
	return p.advance(pulses), true
}

func (p *Pattern) advance(pulses int) float64 {
	p.index = (p.index + 1) % len(p.values)
	p.current = p.values[p.index]
	if p.lastCallTime == 0 && p.index == 0 {
		p.firstCallTime = pulses
	}
	p.lastCallTime = pulses
	return p.current
}

func (p *Pattern) rewind() {
	p.index = notStarted
	p.firstCallTime = 0
	p.lastCallTime = 0
}

// Started reports whether the cursor has produced an element since its last
// reset.
func (p *Pattern) Started() bool { return p.index != notStarted }

// Current returns the last produced element without consulting the clock.
func (p *Pattern) Current() float64 { return p.current }
