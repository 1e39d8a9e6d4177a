// Package pcm provides types and utilities for working with PCM (Pulse Code Modulation) audio data.
//
// The package describes decoded audio as integer samples plus a Format, and
// maps those samples to and from the real-valued range a model trains on.
//
// Key types:
//   - Format: sample rate, channel count and source bit depth
//   - Buffer: the decoded samples of one file
//
// Normalization divides by FullScale, the signed 32-bit maximum magnitude.
// No clipping is applied, so samples decoded from other bit depths keep their
// relative scale and simply occupy a smaller part of [-1, +1].
//
// Example usage:
//
//	buf := &pcm.Buffer{Format: pcm.Format{SampleRate: 48000, Channels: 1, Depth: 32}, Samples: raw}
//
//	// Samples in one 20ms window
//	n := buf.Format.SamplesInDuration(20 * time.Millisecond)
//
//	// Model-ready values in [-1, +1]
//	x := pcm.Normalize(buf.Samples)
package pcm
