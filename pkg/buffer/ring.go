package buffer

import "sync"

// Ring holds up to a fixed number of values. Adding to a full ring
// overwrites the oldest value. It is safe for concurrent use.
type Ring[T any] struct {
	mu   sync.Mutex
	buf  []T
	head int // index of the oldest value
	n    int
}

// RingN creates a Ring holding at most size values. Size must be positive.
func RingN[T any](size int) *Ring[T] {
	if size <= 0 {
		panic("buffer: ring size must be positive")
	}
	return &Ring[T]{buf: make([]T, size)}
}

// Add appends v, dropping the oldest value when the ring is full.
func (r *Ring[T]) Add(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n < len(r.buf) {
		r.buf[(r.head+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

// Values returns the held values from oldest to newest.
func (r *Ring[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, r.n)
	for i := range out {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Len returns the number of held values.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Reset empties the ring.
func (r *Ring[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.buf)
	r.head, r.n = 0, 0
}
