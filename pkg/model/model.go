package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrShapeMismatch is returned when input and label frames differ in length.
	ErrShapeMismatch = errors.New("model: input and label lengths differ")

	// ErrEmptyFrame is returned for zero-length frames.
	ErrEmptyFrame = errors.New("model: empty frame")

	// ErrBadSnapshot is returned when a snapshot cannot be restored.
	ErrBadSnapshot = errors.New("model: bad snapshot")
)

// Model is trained frame by frame.
type Model interface {
	// TrainStep runs one optimization step on a frame pair and returns the
	// loss measured before the update.
	TrainStep(input, label []float64) (float64, error)

	// Infer maps an input frame to an enhanced frame of the same length.
	Infer(input []float64) ([]float64, error)

	// Loss returns the mean squared error of Infer(input) against label.
	Loss(input, label []float64) (float64, error)
}

// Snapshotter is a Model whose parameters can be saved and restored.
type Snapshotter interface {
	Model

	// Snapshot encodes the parameters and optimizer state.
	Snapshot() ([]byte, error)

	// Restore replaces the parameters with a previously taken snapshot.
	Restore(data []byte) error
}

// MSE returns the mean squared error between two equal-length slices.
func MSE(a, b []float64) (float64, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	d := floats.Distance(a, b, 2)
	return d * d / float64(len(a)), nil
}

func checkPair(input, label []float64) error {
	if len(input) == 0 {
		return ErrEmptyFrame
	}
	if len(input) != len(label) {
		return fmt.Errorf("%w: %d vs %d", ErrShapeMismatch, len(input), len(label))
	}
	return nil
}
