// Package seq holds the stateful sequencers scripts lean on: named counters,
// a bounded drunk walk, and duration-aware pattern cursors. One registry is
// shared by every script buffer and outlives any single evaluation; scripts
// mutate it, gates only read the clock.
package seq

// Registry is the process-wide home of all sequencer state. It is owned by
// the scheduling context and passed by reference to every evaluation.
// Everything runs on the scheduler goroutine, so no locking here.
type Registry struct {
	counters map[string]*counter
	drunk    *Drunk
	patterns map[string]*Pattern
}

func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*counter),
		drunk:    NewDrunk(0, 12),
		patterns: make(map[string]*Pattern),
	}
}

// Drunk returns the registry's drunk walk.
func (r *Registry) Drunk() *Drunk { return r.drunk }

// RewindPatterns resets every pattern cursor to not-started. The evaluator
// calls it when the pulse counter has been rewound by a stop, which a cursor
// that last advanced at pulse 0 cannot detect on its own.
func (r *Registry) RewindPatterns() {
	for _, p := range r.patterns {
		p.rewind()
	}
}

// Clear drops all counters and pattern cursors and recenters the drunk walk.
func (r *Registry) Clear() {
	r.counters = make(map[string]*counter)
	r.patterns = make(map[string]*Pattern)
	r.drunk = NewDrunk(r.drunk.min, r.drunk.max)
}

type counter struct {
	value    int
	step     int
	limit    int
	hasLimit bool
}

// Counter advances the named counter and returns its new value. The counter
// is seeded lazily on first reference with value 0. Every call mutates:
// calling the same name twice within one pulse advances it twice, which is
// the documented contract, not an error.
//
// A changed limit resets the value to 0 before stepping; a changed step is
// adopted as-is. When a limit is set and the stepped value exceeds it, the
// value wraps to 0.
func (r *Registry) Counter(name string, limit, step int, hasLimit bool) int {
	c, ok := r.counters[name]
	if !ok {
		c = &counter{step: step}
		r.counters[name] = c
	}
	if c.hasLimit != hasLimit || c.limit != limit {
		c.limit = limit
		c.hasLimit = hasLimit
		c.value = 0
	}
	c.step = step
	c.value += c.step
	if c.hasLimit && c.value > c.limit {
		c.value = 0
	}
	return c.value
}

// ResetCounter zeroes the named counter without removing its configuration.
func (r *Registry) ResetCounter(name string) {
	if c, ok := r.counters[name]; ok {
		c.value = 0
	}
}

// DeleteCounter removes the named counter entirely.
func (r *Registry) DeleteCounter(name string) {
	delete(r.counters, name)
}
