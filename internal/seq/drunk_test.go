package seq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func always(down bool) func() bool {
	return func() bool { return down }
}

func TestDrunkStartsCentered(t *testing.T) {
	assert.Equal(t, 6, NewDrunk(0, 12).Position())
	assert.Equal(t, 6, NewDrunk(12, 0).Position(), "inverted bounds are swapped")
	assert.Equal(t, -5, NewDrunk(-10, 0).Position())
}

func TestDrunkClampsAtBounds(t *testing.T) {
	d := NewDrunk(0, 12)
	d.rng = always(false) // always upward

	assert.Equal(t, 8, d.Step(2))
	assert.Equal(t, 10, d.Step(2))
	assert.Equal(t, 12, d.Step(2))
	assert.Equal(t, 12, d.Step(2), "clamped at the upper bound")

	d.rng = always(true)
	for i := 0; i < 10; i++ {
		d.Step(3)
	}
	assert.Equal(t, 0, d.Position(), "clamped at the lower bound")
}

func TestDrunkWrapsWhenEnabled(t *testing.T) {
	d := NewDrunk(0, 12)
	d.SetRange(0, 12, true)
	d.rng = always(false)

	d.SetPosition(12)
	assert.Equal(t, 2, d.Step(3), "overshoot re-enters at the opposite bound")

	d.rng = always(true)
	assert.Equal(t, 10, d.Step(5))
}

func TestDrunkStepMagnitudeOnly(t *testing.T) {
	d := NewDrunk(0, 12)
	d.rng = always(false)
	assert.Equal(t, 8, d.Step(-2), "sign comes from the coin, not the argument")
}

func TestDrunkSetPositionClamps(t *testing.T) {
	d := NewDrunk(0, 12)
	d.SetPosition(99)
	assert.Equal(t, 12, d.Position())
	d.SetPosition(-5)
	assert.Equal(t, 0, d.Position())
	d.SetPosition(7)
	assert.Equal(t, 7, d.Position())
}

func TestDrunkSetRangeReclamps(t *testing.T) {
	d := NewDrunk(0, 12)
	d.SetPosition(10)
	d.SetRange(0, 4, false)
	assert.Equal(t, 4, d.Position())

	d.SetRange(8, 2, false) // swapped
	assert.Equal(t, 4, d.Position())
	d.Step(0)
	assert.Equal(t, 4, d.Position(), "zero step stays put")
}

func TestDrunkStaysInBounds(t *testing.T) {
	d := NewDrunk(-4, 4)
	d.SetRange(-4, 4, true)
	for i := 0; i < 1000; i++ {
		p := d.Step(3)
		assert.GreaterOrEqual(t, p, -4)
		assert.LessOrEqual(t, p, 4)
	}
}
