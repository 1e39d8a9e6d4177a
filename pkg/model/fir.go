package model

import (
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/floats"
)

// Adam hyperparameters.
const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// Defaults used by NewFIR when zero values are passed.
const (
	DefaultTaps         = 64
	DefaultLearningRate = 0.01
)

// FIR is a causal finite impulse response filter with a bias term:
//
//	y[t] = bias + sum_k weights[k] * x[t-k]
//
// Samples before the start of a frame are treated as zero. The filter starts
// as the identity and is trained with Adam on the mean squared error.
//
// FIR is not safe for concurrent use.
type FIR struct {
	weights []float64
	bias    float64
	lr      float64

	// Adam moments.
	m, v   []float64
	mb, vb float64
	step   int64

	// Scratch buffers reused across steps.
	grad []float64
	out  []float64
}

// NewFIR creates an identity filter with the given number of taps.
func NewFIR(taps int, learningRate float64) (*FIR, error) {
	if taps == 0 {
		taps = DefaultTaps
	}
	if learningRate == 0 {
		learningRate = DefaultLearningRate
	}
	if taps < 0 {
		return nil, fmt.Errorf("model: taps must be positive, got %d", taps)
	}
	if learningRate < 0 || math.IsNaN(learningRate) {
		return nil, fmt.Errorf("model: invalid learning rate %v", learningRate)
	}
	f := &FIR{
		weights: make([]float64, taps),
		lr:      learningRate,
		m:       make([]float64, taps),
		v:       make([]float64, taps),
		grad:    make([]float64, taps),
	}
	f.weights[0] = 1
	return f, nil
}

// Taps returns the filter length.
func (f *FIR) Taps() int { return len(f.weights) }

// Steps returns the number of optimization steps taken.
func (f *FIR) Steps() int64 { return f.step }

// Weights returns a copy of the filter coefficients.
func (f *FIR) Weights() []float64 {
	return append([]float64(nil), f.weights...)
}

// Infer filters the input frame.
func (f *FIR) Infer(input []float64) ([]float64, error) {
	if len(input) == 0 {
		return nil, ErrEmptyFrame
	}
	out := make([]float64, len(input))
	f.forward(input, out)
	return out, nil
}

// Loss returns the mean squared error of the filtered input against label.
func (f *FIR) Loss(input, label []float64) (float64, error) {
	out, err := f.Infer(input)
	if err != nil {
		return 0, err
	}
	return MSE(out, label)
}

// TrainStep takes one Adam step on the frame pair.
func (f *FIR) TrainStep(input, label []float64) (float64, error) {
	if err := checkPair(input, label); err != nil {
		return 0, err
	}
	n := len(input)
	if cap(f.out) < n {
		f.out = make([]float64, n)
	}
	out := f.out[:n]
	f.forward(input, out)

	// out becomes the residual.
	floats.Sub(out, label)
	loss := floats.Dot(out, out) / float64(n)

	scale := 2 / float64(n)
	for k := range f.weights {
		if k >= n {
			f.grad[k] = 0
			continue
		}
		f.grad[k] = scale * floats.Dot(out[k:], input[:n-k])
	}
	gb := scale * floats.Sum(out)

	f.step++
	c1 := 1 - math.Pow(adamBeta1, float64(f.step))
	c2 := 1 - math.Pow(adamBeta2, float64(f.step))
	for k, g := range f.grad {
		f.m[k] = adamBeta1*f.m[k] + (1-adamBeta1)*g
		f.v[k] = adamBeta2*f.v[k] + (1-adamBeta2)*g*g
		f.weights[k] -= f.lr * (f.m[k] / c1) / (math.Sqrt(f.v[k]/c2) + adamEpsilon)
	}
	f.mb = adamBeta1*f.mb + (1-adamBeta1)*gb
	f.vb = adamBeta2*f.vb + (1-adamBeta2)*gb*gb
	f.bias -= f.lr * (f.mb / c1) / (math.Sqrt(f.vb/c2) + adamEpsilon)

	return loss, nil
}

func (f *FIR) forward(input, out []float64) {
	n := len(input)
	for i := range out {
		out[i] = f.bias
	}
	for k, w := range f.weights {
		if k >= n {
			break
		}
		if w == 0 {
			continue
		}
		floats.AddScaled(out[k:], w, input[:n-k])
	}
}

// firState is the msgpack layout of a FIR snapshot.
type firState struct {
	Weights []float64 `msgpack:"weights"`
	Bias    float64   `msgpack:"bias"`
	M       []float64 `msgpack:"m"`
	V       []float64 `msgpack:"v"`
	MB      float64   `msgpack:"mb"`
	VB      float64   `msgpack:"vb"`
	Step    int64     `msgpack:"step"`
}

// Snapshot encodes the filter and its optimizer state.
func (f *FIR) Snapshot() ([]byte, error) {
	return msgpack.Marshal(&firState{
		Weights: f.weights,
		Bias:    f.bias,
		M:       f.m,
		V:       f.v,
		MB:      f.mb,
		VB:      f.vb,
		Step:    f.step,
	})
}

// Restore replaces the filter with a snapshot. The tap count follows the
// snapshot; the configured learning rate is kept.
func (f *FIR) Restore(data []byte) error {
	var st firState
	if err := msgpack.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	taps := len(st.Weights)
	if taps == 0 || len(st.M) != taps || len(st.V) != taps {
		return fmt.Errorf("%w: %d weights, %d/%d moments", ErrBadSnapshot, taps, len(st.M), len(st.V))
	}
	f.weights = st.Weights
	f.bias = st.Bias
	f.m, f.v = st.M, st.V
	f.mb, f.vb = st.MB, st.VB
	f.step = st.Step
	f.grad = make([]float64, taps)
	return nil
}
