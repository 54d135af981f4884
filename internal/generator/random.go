package generator

import (
	"math"
	"math/rand/v2"
)

// newRand returns an independent generator for one generation request
func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// boundedInt draws an integer in [floor(min), max).
//
// A floored min of zero is ignored, so the range becomes [0, max). When max
// is zero the result is always zero. Quota calculation depends on the
// truncation of a fractional min.
func boundedInt(rnd *rand.Rand, max int, min float64) int {
	return scaleBounded(rnd.Float64(), max, min)
}

// scaleBounded maps a uniform sample u in [0, 1) onto the boundedInt range
func scaleBounded(u float64, max int, min float64) int {
	actualMin := int(math.Floor(min))
	width := max
	if actualMin != 0 {
		width = max - actualMin
	}
	return int(math.Floor(u*float64(width))) + actualMin
}
