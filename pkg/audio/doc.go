// Package audio groups the audio sub-packages used to feed the trainer:
//
//   - pcm: decoded sample buffers and amplitude normalization
//   - wav: PCM WAV decoding and encoding
//   - resampler: one-shot sample rate conversion
package audio
