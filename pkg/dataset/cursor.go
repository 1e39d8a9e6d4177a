package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/audio/pcm"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/audio/resampler"
)

// DefaultWindow is the frame duration used when none is configured.
const DefaultWindow = 20 * time.Millisecond

var (
	// ErrNoTrainingData is returned by NewCursor for an empty pair list.
	ErrNoTrainingData = errors.New("dataset: no training pairs")

	// ErrEmptyFrame is returned when the window rounds to zero samples.
	ErrEmptyFrame = errors.New("dataset: frame length is zero")

	// ErrFileTooShort is returned when an input file holds less than one frame.
	ErrFileTooShort = errors.New("dataset: file shorter than one frame")

	// ErrLabelTooShort is returned when a label ends before its input's frame.
	ErrLabelTooShort = errors.New("dataset: label shorter than input frame")
)

// State is the position of a Cursor in its load/slice cycle.
type State int

const (
	// StateAwaitingFile means the next Advance loads a new file pair.
	StateAwaitingFile State = iota

	// StateInFile means the next Advance slices a frame from the loaded pair.
	StateInFile
)

func (s State) String() string {
	switch s {
	case StateAwaitingFile:
		return "awaiting_file"
	case StateInFile:
		return "in_file"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Coverage selects how the cursor walks the file list.
type Coverage int

const (
	// CoverageReference skips index 0 on the first pass and never visits the
	// last training file.
	CoverageReference Coverage = iota

	// CoverageFull visits every training file once per epoch.
	CoverageFull
)

func (c Coverage) String() string {
	switch c {
	case CoverageReference:
		return "reference"
	case CoverageFull:
		return "full"
	}
	return fmt.Sprintf("Coverage(%d)", int(c))
}

// ParseCoverage parses "reference" or "full". The empty string is reference.
func ParseCoverage(s string) (Coverage, error) {
	switch s {
	case "", "reference":
		return CoverageReference, nil
	case "full":
		return CoverageFull, nil
	}
	return 0, fmt.Errorf("dataset: unknown coverage %q", s)
}

// Frame is one aligned pair of normalized windows.
//
// Input and Label are copies; they remain valid after the cursor moves on.
type Frame struct {
	Input []float64
	Label []float64

	// Epoch is the epoch counter after this frame's file was selected.
	Epoch int

	// FileIndex is the position of the frame's pair in the training list.
	FileIndex int

	// FrameIndex is the frame's position within its file.
	FrameIndex int

	// FileDone is set on the last frame emitted from a file.
	FileDone bool
}

// CursorOption configures a Cursor.
type CursorOption func(*Cursor)

// WithWindow sets the frame duration.
func WithWindow(d time.Duration) CursorOption {
	return func(c *Cursor) { c.window = d }
}

// WithCoverage sets the file walk mode.
func WithCoverage(cov Coverage) CursorOption {
	return func(c *Cursor) { c.coverage = cov }
}

// WithLoader replaces the WAV file loader.
func WithLoader(l Loader) CursorOption {
	return func(c *Cursor) { c.loader = l }
}

// WithLogger sets the logger used for load events and default warnings.
func WithLogger(l *slog.Logger) CursorOption {
	return func(c *Cursor) { c.logger = l }
}

// WithWarningHandler routes data integrity warnings to h.
func WithWarningHandler(h WarningHandler) CursorOption {
	return func(c *Cursor) { c.warn = h }
}

// WithLabelRateAlignment resamples labels whose rate differs from the input.
func WithLabelRateAlignment(on bool) CursorOption {
	return func(c *Cursor) { c.alignRate = on }
}

// Cursor walks training pairs frame by frame. It is not safe for concurrent
// use: exactly one goroutine drives one Cursor.
type Cursor struct {
	pairs     []Pair
	window    time.Duration
	coverage  Coverage
	loader    Loader
	logger    *slog.Logger
	warn      WarningHandler
	alignRate bool

	state       State
	fileIndex   int
	frameOffset int
	frameLen    int
	epoch       int

	// Buffers of the current pair; nil while awaiting a file.
	input []float64
	label []float64
}

// NewCursor creates a cursor over pairs, positioned to load a file on the
// first Advance.
func NewCursor(pairs []Pair, opts ...CursorOption) (*Cursor, error) {
	if len(pairs) == 0 {
		return nil, ErrNoTrainingData
	}
	c := &Cursor{
		pairs:  pairs,
		window: DefaultWindow,
		loader: WAVLoader,
		state:  StateAwaitingFile,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.warn == nil {
		c.warn = LogWarnings(c.logger)
	}
	if c.window <= 0 {
		return nil, fmt.Errorf("%w: window %v", ErrEmptyFrame, c.window)
	}
	switch c.coverage {
	case CoverageReference:
		c.fileIndex = 0
	case CoverageFull:
		c.fileIndex = -1
	default:
		return nil, fmt.Errorf("dataset: unknown coverage %d", int(c.coverage))
	}
	return c, nil
}

// Advance returns the next frame pair, loading the next file pair first when
// the previous one is exhausted.
//
// A load failure leaves the cursor state unchanged and is returned wrapped
// with the failing path. It is not retried.
func (c *Cursor) Advance(ctx context.Context) (Frame, error) {
	switch c.state {
	case StateAwaitingFile:
		if err := c.load(ctx); err != nil {
			return Frame{}, err
		}
		return c.slice()
	case StateInFile:
		return c.slice()
	}
	return Frame{}, fmt.Errorf("dataset: invalid cursor state %v", c.state)
}

// next computes the file index and epoch of the following load.
func (c *Cursor) next() (index, epoch int) {
	index, epoch = c.fileIndex+1, c.epoch
	limit := len(c.pairs)
	if c.coverage == CoverageReference {
		limit--
	}
	if index >= limit {
		index = 0
		epoch++
	}
	return index, epoch
}

func (c *Cursor) load(ctx context.Context) error {
	index, epoch := c.next()
	pair := c.pairs[index]

	in, err := c.loader.Load(ctx, pair.Input)
	if err != nil {
		return fmt.Errorf("dataset: load input %s: %w", pair.Input, err)
	}
	lb, err := c.loader.Load(ctx, pair.Label)
	if err != nil {
		return fmt.Errorf("dataset: load label %s: %w", pair.Label, err)
	}

	n := FrameLength(in.Format.SampleRate, c.window)
	if n <= 0 {
		return fmt.Errorf("%w: %s at %d Hz", ErrEmptyFrame, pair.Input, in.Format.SampleRate)
	}

	input := pcm.Normalize(in.Samples)
	label := pcm.Normalize(lb.Samples)

	if in.Format.SampleRate != lb.Format.SampleRate {
		c.warn(Warning{
			Kind:      WarnSampleRateMismatch,
			FileIndex: index,
			Pair:      pair,
			Detail:    fmt.Sprintf("input %d Hz, label %d Hz", in.Format.SampleRate, lb.Format.SampleRate),
		})
		if c.alignRate {
			label, err = resampler.Resample(label, lb.Format.SampleRate, in.Format.SampleRate)
			if err != nil {
				return fmt.Errorf("dataset: align label %s: %w", pair.Label, err)
			}
		}
	}
	if len(input) != len(label) {
		c.warn(Warning{
			Kind:      WarnLengthMismatch,
			FileIndex: index,
			Pair:      pair,
			Detail:    fmt.Sprintf("input %d samples, label %d samples", len(input), len(label)),
		})
	}
	if k := pcm.OutOfRange(input) + pcm.OutOfRange(label); k > 0 {
		c.warn(Warning{
			Kind:      WarnOutOfRange,
			FileIndex: index,
			Pair:      pair,
			Detail:    fmt.Sprintf("%d normalized samples outside [-1, 1]", k),
		})
	}

	c.fileIndex, c.epoch = index, epoch
	c.input, c.label = input, label
	c.frameLen = n
	c.frameOffset = 0
	c.state = StateInFile

	c.logger.Debug("loaded file pair",
		"epoch", c.epoch,
		"file", c.fileIndex,
		"input", pair.Input,
		"samples", len(input),
		"frame_len", n,
	)
	return nil
}

func (c *Cursor) slice() (Frame, error) {
	start := c.frameOffset * c.frameLen
	end := start + c.frameLen
	if end > len(c.input) {
		pair := c.pairs[c.fileIndex]
		inputLen := len(c.input)
		c.release()
		return Frame{}, fmt.Errorf("%w: %s has %d samples, frame needs %d",
			ErrFileTooShort, pair.Input, inputLen, end)
	}
	if end > len(c.label) {
		pair := c.pairs[c.fileIndex]
		labelLen := len(c.label)
		c.release()
		return Frame{}, fmt.Errorf("%w: %s has %d samples, frame needs %d",
			ErrLabelTooShort, pair.Label, labelLen, end)
	}

	f := Frame{
		Input:      append([]float64(nil), c.input[start:end]...),
		Label:      append([]float64(nil), c.label[start:end]...),
		Epoch:      c.epoch,
		FileIndex:  c.fileIndex,
		FrameIndex: c.frameOffset,
	}

	c.frameOffset++
	// Stop one frame early; the tail of every file is left out.
	if (c.frameOffset+2)*c.frameLen >= len(c.input) {
		c.release()
		f.FileDone = true
	}
	return f, nil
}

// release drops the current pair's buffers and awaits the next file.
func (c *Cursor) release() {
	c.input, c.label = nil, nil
	c.state = StateAwaitingFile
}

// State returns whether the next Advance loads or slices.
func (c *Cursor) State() State { return c.state }

// FileIndex returns the index of the current (or last) training pair.
func (c *Cursor) FileIndex() int { return c.fileIndex }

// Epoch returns the number of wraparounds so far.
func (c *Cursor) Epoch() int { return c.epoch }

// FrameOffset returns the index of the next frame within the current file.
func (c *Cursor) FrameOffset() int { return c.frameOffset }

// FrameLength returns the frame length of the current file in samples, or 0
// before the first load.
func (c *Cursor) FrameLength() int { return c.frameLen }

// Len returns the number of training pairs.
func (c *Cursor) Len() int { return len(c.pairs) }

// Coverage returns the walk mode.
func (c *Cursor) Coverage() Coverage { return c.coverage }
