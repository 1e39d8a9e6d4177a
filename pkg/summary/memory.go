package summary

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
)

// Memory is an in-memory Store for tests and dry runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Add(_ context.Context, s Scalar) error {
	key, err := scalarKey(s)
	if err != nil {
		return err
	}
	val, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[string(key)] = val
	m.mu.Unlock()
	return nil
}

// matching returns the values under prefix in key order.
func (m *Memory) matching(prefix []byte) [][]byte {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	vals := make([][]byte, len(keys))
	for i, k := range keys {
		vals[i] = m.data[k]
	}
	m.mu.RUnlock()
	return vals
}

func (m *Memory) List(_ context.Context, run, tag string) iter.Seq2[Scalar, error] {
	return func(yield func(Scalar, error) bool) {
		prefix, err := listPrefix(run, tag)
		if err != nil {
			yield(Scalar{}, err)
			return
		}
		for _, v := range m.matching(prefix) {
			if !yield(decode(v)) {
				return
			}
		}
	}
}

func (m *Memory) Last(_ context.Context, run, tag string) (Scalar, error) {
	if err := checkName("tag", tag); err != nil {
		return Scalar{}, err
	}
	prefix, err := listPrefix(run, tag)
	if err != nil {
		return Scalar{}, err
	}
	vals := m.matching(prefix)
	if len(vals) == 0 {
		return Scalar{}, fmt.Errorf("%w: %s/%s", ErrNotFound, run, tag)
	}
	return decode(vals[len(vals)-1])
}

func (m *Memory) Runs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	var runs []string
	for k := range m.data {
		runs = append(runs, runOf([]byte(k)))
	}
	m.mu.RUnlock()
	slices.Sort(runs)
	return slices.Compact(runs), nil
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
