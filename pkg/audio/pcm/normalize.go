package pcm

import "math"

// FullScale is the divisor mapping signed 32-bit samples onto [-1, +1].
const FullScale = math.MaxInt32

// Normalize converts raw samples to float values by dividing by FullScale.
// Values are not clipped.
func Normalize(raw []int32) []float64 {
	out := make([]float64, len(raw))
	for i, s := range raw {
		out[i] = float64(s) / FullScale
	}
	return out
}

// Denormalize multiplies by FullScale and rounds to the nearest integer.
// Results outside the int32 range saturate.
func Denormalize(x []float64) []int32 {
	out := make([]int32, len(x))
	for i, v := range x {
		s := math.Round(v * FullScale)
		switch {
		case s > math.MaxInt32:
			out[i] = math.MaxInt32
		case s < math.MinInt32:
			out[i] = math.MinInt32
		default:
			out[i] = int32(s)
		}
	}
	return out
}

// OutOfRange reports how many values fall outside [-1, +1].
func OutOfRange(x []float64) int {
	n := 0
	for _, v := range x {
		if v > 1 || v < -1 {
			n++
		}
	}
	return n
}
