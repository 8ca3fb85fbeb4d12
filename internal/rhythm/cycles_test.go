package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func euclidCycle(hits, length, rotate int) []bool {
	out := make([]bool, length)
	for i := range out {
		out[i] = Euclid(i, hits, length, rotate)
	}
	return out
}

func TestEuclidKnownCycles(t *testing.T) {
	tests := []struct {
		name         string
		hits, length int
		want         []bool
	}{
		{"tresillo", 3, 8, []bool{true, false, false, true, false, false, true, false}},
		{"five in eight", 5, 8, []bool{true, false, true, false, true, true, false, true}},
		{"even", 2, 4, []bool{true, false, true, false}},
		{"all", 4, 4, []bool{true, true, true, true}},
		{"single", 1, 4, []bool{true, false, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, euclidCycle(tt.hits, tt.length, 0))
		})
	}
}

func TestEuclidHitCount(t *testing.T) {
	for length := 1; length <= 16; length++ {
		for hits := 1; hits <= length; hits++ {
			n := 0
			for _, hit := range euclidCycle(hits, length, 0) {
				if hit {
					n++
				}
			}
			assert.Equal(t, hits, n, "euclid(%d,%d)", hits, length)
		}
	}
}

func TestEuclidStartsOnTheDownbeat(t *testing.T) {
	// Step 0 carries a hit for every unrotated cycle, so a counter feeding
	// euclid fires on the first pulse of the phrase.
	for length := 1; length <= 16; length++ {
		for hits := 1; hits <= length; hits++ {
			assert.True(t, Euclid(0, hits, length, 0), "euclid(0,%d,%d)", hits, length)
		}
	}
	assert.True(t, Euclid(0, 2, 3, 0))
	assert.False(t, Euclid(1, 2, 3, 0))
	assert.True(t, Euclid(2, 2, 3, 0))
}

func TestEuclidIsPeriodicAndPure(t *testing.T) {
	for i := -16; i < 32; i++ {
		assert.Equal(t, Euclid(mod(i, 8), 5, 8, 0), Euclid(i, 5, 8, 0), "step %d", i)
		// Same arguments, same answer, every time.
		assert.Equal(t, Euclid(i, 5, 8, 0), Euclid(i, 5, 8, 0))
	}
}

func TestEuclidRotation(t *testing.T) {
	base := euclidCycle(3, 8, 0)
	rotated := euclidCycle(3, 8, 2)
	for i := range base {
		assert.Equal(t, base[(i+2)%8], rotated[i], "step %d", i)
	}
}

func TestEuclidDegenerateArguments(t *testing.T) {
	assert.False(t, Euclid(0, 0, 8, 0))
	assert.False(t, Euclid(0, -1, 8, 0))
	assert.False(t, Euclid(0, 3, 0, 0))
	assert.False(t, Euclid(0, 3, -8, 0))
}

func TestBinReadsBinaryDigits(t *testing.T) {
	// 34 = 100010
	want := []bool{true, false, false, false, true, false}
	for i := 0; i < 12; i++ {
		assert.Equal(t, want[i%6], Bin(i, 34), "digit %d", i)
	}
	assert.True(t, Bin(-2, 34), "negative index wraps")
}

func TestBinDegenerateValues(t *testing.T) {
	assert.False(t, Bin(0, 0))
	assert.False(t, Bin(0, -5))
	assert.True(t, Bin(0, 1))
	assert.True(t, Bin(7, 1))
}
