// Package resampler converts normalized mono sample sequences between sample
// rates.
//
// It wraps the pure Go resampler from github.com/tphakala/go-audio-resampling
// (no CGO/FFI dependencies) and is used to bring a label recording onto its
// input's sample rate before the two are cut into aligned frames.
//
// Example usage:
//
//	out, err := resampler.Resample(labels, 44100, 48000)
//	if err != nil {
//	    return err
//	}
package resampler
