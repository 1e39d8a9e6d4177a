// Package summary records scalar training curves, such as the training loss
// per step and the held-out loss per epoch.
//
// Scalars are keyed by run, tag and step:
//
//	{run}:{tag}:{step, zero padded to 20 digits} → msgpack-encoded Scalar
//
// so listing a run and tag yields points in step order.
package summary

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrNotFound is returned by Last when a run and tag have no points.
	ErrNotFound = errors.New("summary: not found")

	// ErrInvalidName is returned for empty run or tag names and names
	// containing the key separator.
	ErrInvalidName = errors.New("summary: invalid name")
)

// Common tags.
const (
	TagLoss     = "loss"
	TagTestLoss = "test_loss"
)

const sep = ':'

// Scalar is one point of a curve.
type Scalar struct {
	Run       string    `msgpack:"run" json:"run" yaml:"run"`
	Tag       string    `msgpack:"tag" json:"tag" yaml:"tag"`
	Step      int64     `msgpack:"step" json:"step" yaml:"step"`
	Value     float64   `msgpack:"value" json:"value" yaml:"value"`
	Epoch     int       `msgpack:"epoch" json:"epoch" yaml:"epoch"`
	FileIndex int       `msgpack:"file_index" json:"file_index" yaml:"file_index"`
	Time      time.Time `msgpack:"time" json:"time" yaml:"time"`
}

// Store persists scalars. Implementations are safe for concurrent use.
type Store interface {
	// Add records a point. A point with the same run, tag and step is
	// replaced.
	Add(ctx context.Context, s Scalar) error

	// List yields the points of a run in key order. An empty tag lists
	// every tag of the run.
	List(ctx context.Context, run, tag string) iter.Seq2[Scalar, error]

	// Last returns the point with the highest step for a run and tag.
	Last(ctx context.Context, run, tag string) (Scalar, error)

	// Runs returns the run names in lexicographic order.
	Runs(ctx context.Context) ([]string, error)

	// Close releases the store.
	Close() error
}

// NewRunID returns a sortable run name such as
// "run-20240301120000-1b4e28ba".
func NewRunID(now time.Time) string {
	return "run-" + now.UTC().Format("20060102150405") + "-" + uuid.NewString()[:8]
}

func checkName(kind, s string) error {
	if s == "" || strings.IndexByte(s, sep) >= 0 {
		return fmt.Errorf("%w: %s %q", ErrInvalidName, kind, s)
	}
	return nil
}

func scalarKey(s Scalar) ([]byte, error) {
	if err := checkName("run", s.Run); err != nil {
		return nil, err
	}
	if err := checkName("tag", s.Tag); err != nil {
		return nil, err
	}
	if s.Step < 0 {
		return nil, fmt.Errorf("summary: negative step %d", s.Step)
	}
	return fmt.Appendf(nil, "%s%c%s%c%020d", s.Run, sep, s.Tag, sep, s.Step), nil
}

// listPrefix returns the key prefix selecting a run, or a run and tag.
func listPrefix(run, tag string) ([]byte, error) {
	if err := checkName("run", run); err != nil {
		return nil, err
	}
	if tag == "" {
		return append([]byte(run), sep), nil
	}
	if err := checkName("tag", tag); err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "%s%c%s%c", run, sep, tag, sep), nil
}

// runOf returns the run segment of an encoded key.
func runOf(key []byte) string {
	s := string(key)
	if i := strings.IndexByte(s, sep); i >= 0 {
		return s[:i]
	}
	return s
}

func encode(s Scalar) ([]byte, error) {
	return msgpack.Marshal(&s)
}

func decode(data []byte) (Scalar, error) {
	var s Scalar
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Scalar{}, fmt.Errorf("summary: decode: %w", err)
	}
	return s, nil
}
