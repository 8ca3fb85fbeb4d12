package rhythm

import "strconv"

// Euclid returns element i (mod length) of the Euclidean cycle of the given
// number of hits spread maximally evenly over length steps, rotated left by
// rotate. The cycle is fixed for fixed arguments; the caller advances i,
// typically from a counter.
//
// Construction: walk (k-1)*hits mod length and mark the steps where the
// sequence wraps. Each wrap is one hit, so the cycle carries exactly
// min(hits, length) hits and step 0 is always one of them: counter-driven
// cycles land on the downbeat. Degenerate arguments (length or hits below 1)
// gate nothing.
func Euclid(i, hits, length, rotate int) bool {
	if length <= 0 || hits <= 0 {
		return false
	}
	idx := mod(i+rotate, length)
	return mod((idx-1)*hits, length)+hits >= length
}

// Bin reads digit i (mod digit count) of n's binary representation, most
// significant digit first. bin(i, 34) cycles through 1,0,0,0,1,0. Values of n
// below 1 gate nothing.
func Bin(i, n int) bool {
	if n <= 0 {
		return false
	}
	digits := strconv.FormatInt(int64(n), 2)
	return digits[mod(i, len(digits))] == '1'
}

// mod is the arithmetic modulus, non-negative for any a.
func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
