package pcm

import (
	"fmt"
	"math"
	"time"
)

// Format represents an audio format configuration.
type Format struct {
	// SampleRate is the sample rate in Hz.
	SampleRate int

	// Channels is the channel count of the source file. Decoded buffers are
	// always mono; this records what the file declared.
	Channels int

	// Depth is the bit depth of the source samples.
	Depth int
}

// SamplesInDuration returns the number of samples in the given duration,
// rounded to the nearest sample.
func (f Format) SamplesInDuration(d time.Duration) int {
	return int(math.Round(float64(f.SampleRate) * d.Seconds()))
}

// Duration returns the duration of n samples.
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(f.SampleRate)
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	return fmt.Sprintf("audio/L%d; rate=%d; channels=%d", f.Depth, f.SampleRate, f.Channels)
}

// Buffer holds the decoded mono samples of one audio file.
//
// A Buffer is treated as immutable once loaded.
type Buffer struct {
	Format  Format
	Samples []int32
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	return len(b.Samples)
}

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	return b.Format.Duration(len(b.Samples))
}
