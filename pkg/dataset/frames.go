package dataset

import (
	"math"
	"time"
)

// FrameLength returns the number of samples in one window at the given rate.
func FrameLength(sampleRate int, window time.Duration) int {
	return int(math.Round(float64(sampleRate) * window.Seconds()))
}

// SplitFrames copies every complete frame of n samples out of x. A trailing
// partial frame is dropped.
//
// Unlike a Cursor walk, SplitFrames does not stop early; it is used for
// evaluation and generation where the whole recording is wanted.
func SplitFrames(x []float64, n int) [][]float64 {
	if n <= 0 {
		return nil
	}
	count := len(x) / n
	frames := make([][]float64, count)
	for i := range count {
		f := make([]float64, n)
		copy(f, x[i*n:(i+1)*n])
		frames[i] = f
	}
	return frames
}
