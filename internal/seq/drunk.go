package seq

import "math/rand"

// Drunk is a bounded random walk. Stepping moves the position by a delta with
// a random sign; position can be read or set directly without stepping.
type Drunk struct {
	position int
	min, max int
	wrap     bool
	rng      func() bool // reports heads/tails for the step direction
}

func NewDrunk(min, max int) *Drunk {
	if max < min {
		min, max = max, min
	}
	return &Drunk{
		position: min + (max-min)/2,
		min:      min,
		max:      max,
		rng:      func() bool { return rand.Intn(2) == 0 },
	}
}

// Step moves the walk by ±by and returns the new position. Overshoot wraps to
// the opposite bound when wrapping is on, otherwise clamps.
func (d *Drunk) Step(by int) int {
	if by < 0 {
		by = -by
	}
	delta := by
	if d.rng() {
		delta = -by
	}
	d.position += delta
	switch {
	case d.position > d.max:
		if d.wrap {
			d.position = d.min + (d.position-d.max-1)
		} else {
			d.position = d.max
		}
	case d.position < d.min:
		if d.wrap {
			d.position = d.max - (d.min - d.position - 1)
		} else {
			d.position = d.min
		}
	}
	return d.position
}

// Position returns the current position without stepping.
func (d *Drunk) Position() int { return d.position }

// SetPosition moves the walk directly, clamped into its bounds.
func (d *Drunk) SetPosition(p int) {
	if p < d.min {
		p = d.min
	}
	if p > d.max {
		p = d.max
	}
	d.position = p
}

// SetRange rebounds the walk and clamps the position into the new range.
func (d *Drunk) SetRange(min, max int, wrap bool) {
	if max < min {
		min, max = max, min
	}
	d.min = min
	d.max = max
	d.wrap = wrap
	d.SetPosition(d.position)
}
