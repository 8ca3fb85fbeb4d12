package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func at(pulses int) State {
	return State{Pulses: pulses, PPQN: 48, BeatsPerBar: 4}
}

func TestModFiresOnBeatMultiples(t *testing.T) {
	for p := 0; p < 48*8; p++ {
		want := p%48 == 0
		assert.Equal(t, want, Mod(at(p), 1), "pulse %d", p)
	}
}

func TestModHalfBeat(t *testing.T) {
	hits := 0
	for p := 0; p < 48; p++ {
		if Mod(at(p), 0.5) {
			hits++
		}
	}
	assert.Equal(t, 2, hits, "mod(0.5) fires twice per beat")
	assert.True(t, Mod(at(0), 0.5))
	assert.True(t, Mod(at(24), 0.5))
}

func TestModIsAnyOfItsSpans(t *testing.T) {
	// mod(2, 3): every second or third beat.
	assert.True(t, Mod(at(0), 2, 3))
	assert.False(t, Mod(at(48), 2, 3))
	assert.True(t, Mod(at(96), 2, 3))  // beat 2, matches span 2
	assert.True(t, Mod(at(144), 2, 3)) // beat 3, matches span 3
}

func TestModDegenerateSpansNeverFire(t *testing.T) {
	assert.False(t, Mod(at(0), 0))
	assert.False(t, Mod(at(0), -1))
	assert.False(t, Mod(at(0)))
	// A span below one pulse floors to zero and is skipped, not divided by.
	assert.False(t, Mod(State{Pulses: 0, PPQN: 4, BeatsPerBar: 4}, 0.1))
}

func TestDivFlipFlop(t *testing.T) {
	// div(2): true for two beats, false for the next two.
	s := func(p int) State { return at(p) }
	assert.True(t, Div(s(0), 2))
	assert.True(t, Div(s(95), 2))
	assert.False(t, Div(s(96), 2))
	assert.False(t, Div(s(191), 2))
	assert.True(t, Div(s(192), 2))
}

func TestDivComplementLaw(t *testing.T) {
	// At any pulse, div(c) at p and at p+c beats disagree.
	const chunk = 1.5
	span := int(chunk * 48)
	for p := 0; p < 48*8; p++ {
		assert.NotEqual(t, Div(at(p), chunk), Div(at(p+span), chunk), "pulse %d", p)
	}
}

func TestDivBar(t *testing.T) {
	bar := func(b int) State { return at((b - 1) * 4 * 48) }
	assert.True(t, DivBar(bar(1), 2))
	assert.True(t, DivBar(bar(2), 2))
	assert.False(t, DivBar(bar(3), 2))
	assert.False(t, DivBar(bar(4), 2))
	assert.True(t, DivBar(bar(5), 2))
	assert.False(t, DivBar(bar(1), 0))
}

func TestOnBarReducesIntoCycle(t *testing.T) {
	bar := func(b int) State { return at((b - 1) * 4 * 48) }
	// onbar(4, 1, 3): first and third bar of every four.
	for b := 1; b <= 12; b++ {
		want := (b-1)%4 == 0 || (b-1)%4 == 2
		assert.Equal(t, want, OnBar(bar(b), 4, 1, 3), "bar %d", b)
	}
	assert.False(t, OnBar(bar(1), 0, 1))
}

func TestOnBeatMatchesExactPositions(t *testing.T) {
	assert.True(t, OnBeat(at(0), 1))
	assert.False(t, OnBeat(at(1), 1))
	assert.True(t, OnBeat(at(48), 2))
	assert.True(t, OnBeat(at(3*48), 4))
	// Fractional beats land on the sub-beat pulse offset.
	assert.True(t, OnBeat(at(24), 1.5))
	assert.False(t, OnBeat(at(23), 1.5))
	// Multiple candidates.
	assert.True(t, OnBeat(at(48), 1, 2))
	assert.False(t, OnBeat(at(96), 1, 2))
}

func TestStateBarBeatAreOneBased(t *testing.T) {
	assert.Equal(t, 1, at(0).Bar())
	assert.Equal(t, 1, at(0).Beat())
	assert.Equal(t, 1, at(191).Bar())
	assert.Equal(t, 4, at(191).Beat())
	assert.Equal(t, 2, at(192).Bar())
	assert.Equal(t, 1, at(192).Beat())
}
