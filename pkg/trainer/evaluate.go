package trainer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/audio/pcm"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/audio/wav"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/dataset"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/model"
)

// ErrNoFrames is returned when the evaluated files hold no complete frame.
var ErrNoFrames = errors.New("trainer: no complete frames")

// Evaluation is the mean loss over every complete frame of a pair set.
type Evaluation struct {
	Loss   float64 `json:"loss" yaml:"loss"`
	Frames int     `json:"frames" yaml:"frames"`
	Files  int     `json:"files" yaml:"files"`
}

// Evaluate computes the mean frame loss of m over pairs. Unlike training,
// every complete frame of each file is used.
func Evaluate(ctx context.Context, m model.Model, pairs []dataset.Pair, loader dataset.Loader, window time.Duration) (Evaluation, error) {
	if loader == nil {
		loader = dataset.WAVLoader
	}
	var ev Evaluation
	var sum float64
	for _, p := range pairs {
		in, err := loader.Load(ctx, p.Input)
		if err != nil {
			return Evaluation{}, fmt.Errorf("trainer: evaluate: %w", err)
		}
		lb, err := loader.Load(ctx, p.Label)
		if err != nil {
			return Evaluation{}, fmt.Errorf("trainer: evaluate: %w", err)
		}
		n := dataset.FrameLength(in.Format.SampleRate, window)
		if n <= 0 {
			return Evaluation{}, fmt.Errorf("trainer: evaluate %s: %w", p.Input, dataset.ErrEmptyFrame)
		}
		xs := dataset.SplitFrames(pcm.Normalize(in.Samples), n)
		ys := dataset.SplitFrames(pcm.Normalize(lb.Samples), n)
		count := min(len(xs), len(ys))
		for i := range count {
			loss, err := m.Loss(xs[i], ys[i])
			if err != nil {
				return Evaluation{}, fmt.Errorf("trainer: evaluate %s frame %d: %w", p.Input, i, err)
			}
			sum += loss
		}
		ev.Frames += count
		ev.Files++
	}
	if ev.Frames == 0 {
		return ev, ErrNoFrames
	}
	ev.Loss = sum / float64(ev.Frames)
	return ev, nil
}

// Enhance runs m over every complete frame of the WAV file at inPath and
// writes the denormalized output, at the input's sample rate, to outPath.
// The partial frame at the end of the input is dropped.
func Enhance(ctx context.Context, m model.Model, loader dataset.Loader, inPath, outPath string, window time.Duration) (int, error) {
	if loader == nil {
		loader = dataset.WAVLoader
	}
	in, err := loader.Load(ctx, inPath)
	if err != nil {
		return 0, fmt.Errorf("trainer: enhance: %w", err)
	}
	n := dataset.FrameLength(in.Format.SampleRate, window)
	if n <= 0 {
		return 0, fmt.Errorf("trainer: enhance %s: %w", inPath, dataset.ErrEmptyFrame)
	}
	frames := dataset.SplitFrames(pcm.Normalize(in.Samples), n)
	if len(frames) == 0 {
		return 0, fmt.Errorf("trainer: enhance %s: %w", inPath, ErrNoFrames)
	}

	out := make([]float64, 0, len(frames)*n)
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		y, err := m.Infer(f)
		if err != nil {
			return 0, fmt.Errorf("trainer: enhance %s frame %d: %w", inPath, i, err)
		}
		out = append(out, y...)
	}

	buf := &pcm.Buffer{
		Format:  pcm.Format{SampleRate: in.Format.SampleRate, Channels: 1, Depth: 32},
		Samples: pcm.Denormalize(out),
	}
	if err := wav.WriteFile(outPath, buf); err != nil {
		return 0, fmt.Errorf("trainer: enhance: %w", err)
	}
	return len(frames), nil
}
