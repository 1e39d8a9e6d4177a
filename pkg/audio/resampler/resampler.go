package resampler

import (
	"errors"
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// ErrInvalidRate is returned when either sample rate is not positive.
var ErrInvalidRate = errors.New("resampler: invalid sample rate")

// minPad is the least number of silent input samples placed around the
// signal so the filter has settled at both ends.
const minPad = 512

// Resample converts mono samples in [-1, +1] from srcRate to dstRate.
//
// The output always holds round(len(samples) * dstRate / srcRate) samples
// and output sample j lines up with input time j / dstRate: the filter
// delay is removed and the tail is drained, so two recordings of equal
// duration stay equal in length and in phase after conversion.
// Samples are returned as a copy when the rates already match.
func Resample(samples []float64, srcRate, dstRate int) ([]float64, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, srcRate, dstRate)
	}
	if srcRate == dstRate {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out, nil
	}

	want := OutputLen(len(samples), srcRate, dstRate)
	if len(samples) == 0 {
		return []float64{}, nil
	}

	pad := max(minPad, srcRate/20)
	offset, err := delay(pad, srcRate, dstRate)
	if err != nil {
		return nil, err
	}

	in := make([]float64, pad+len(samples)+pad)
	copy(in[pad:], samples)
	full, err := convert(in, srcRate, dstRate)
	if err != nil {
		return nil, err
	}

	out := make([]float64, want)
	if offset < len(full) {
		copy(out, full[offset:])
	}
	return out, nil
}

// delay returns the output index of input sample pad, found by passing a
// unit impulse at that position through the same conversion.
func delay(pad, srcRate, dstRate int) (int, error) {
	impulse := make([]float64, 2*pad+1)
	impulse[pad] = 1
	out, err := convert(impulse, srcRate, dstRate)
	if err != nil {
		return 0, err
	}
	peak := 0
	for i, v := range out {
		if math.Abs(v) > math.Abs(out[peak]) {
			peak = i
		}
	}
	return peak, nil
}

// convert runs samples through a fresh high quality converter and drains
// everything it buffered.
func convert(samples []float64, srcRate, dstRate int) ([]float64, error) {
	rs, err := resampling.NewEngine(float64(srcRate), float64(dstRate), resampling.QualityHigh)
	if err != nil {
		return nil, fmt.Errorf("resampler: create: %w", err)
	}
	out, err := rs.Process(samples)
	if err != nil {
		return nil, fmt.Errorf("resampler: process: %w", err)
	}
	// The engine reuses its output buffer between calls.
	out = append([]float64(nil), out...)
	tail, err := rs.Flush()
	if err != nil {
		return nil, fmt.Errorf("resampler: flush: %w", err)
	}
	return append(out, tail...), nil
}

// OutputLen returns the sample count Resample produces for n input samples.
func OutputLen(n, srcRate, dstRate int) int {
	if srcRate <= 0 {
		return 0
	}
	return int(math.Round(float64(n) * float64(dstRate) / float64(srcRate)))
}
