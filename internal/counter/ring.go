package counter

// ring is a fixed-capacity ring buffer. Appending past capacity evicts the
// oldest element, so memory stays bounded no matter how long a session runs.
type ring[T any] struct {
	buf  []T
	head int // index of the oldest element
	n    int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity <= 0 {
		panic("ring capacity must be positive")
	}
	return &ring[T]{buf: make([]T, capacity)}
}

// Append adds v, evicting the oldest element when full.
func (r *ring[T]) Append(v T) {
	if r.n < len(r.buf) {
		r.buf[(r.head+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

// Len reports the number of stored elements.
func (r *ring[T]) Len() int { return r.n }

// At returns the i-th element, oldest first.
func (r *ring[T]) At(i int) T {
	return r.buf[(r.head+i)%len(r.buf)]
}

// Last returns the k most recent elements, oldest first. It returns fewer
// when the buffer holds fewer.
func (r *ring[T]) Last(k int) []T {
	if k > r.n {
		k = r.n
	}
	out := make([]T, k)
	for i := 0; i < k; i++ {
		out[i] = r.At(r.n - k + i)
	}
	return out
}

// Values returns all stored elements, oldest first.
func (r *ring[T]) Values() []T {
	return r.Last(r.n)
}

// Clear removes all elements. Capacity is retained.
func (r *ring[T]) Clear() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head = 0
	r.n = 0
}
