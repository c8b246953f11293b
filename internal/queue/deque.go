// Package queue provides a generic ring-buffer FIFO.
package queue

const minCapacity = 8

// Deque is a FIFO backed by a growable ring buffer. The zero value is ready
// to use. It is not safe for concurrent use.
type Deque[T any] struct {
	buf   []T
	head  int
	count int
}

// New returns a Deque with room for at least n items before growing.
func New[T any](n int) *Deque[T] {
	if n < minCapacity {
		n = minCapacity
	}
	return &Deque[T]{buf: make([]T, n)}
}

// Len returns the number of queued items.
func (q *Deque[T]) Len() int { return q.count }

// Empty reports whether the queue holds no items.
func (q *Deque[T]) Empty() bool { return q.count == 0 }

// PushBack appends v at the tail.
func (q *Deque[T]) PushBack(v T) {
	if q.count == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.count)%len(q.buf)] = v
	q.count++
}

// PopFront removes and returns the head. ok is false when the queue is empty.
func (q *Deque[T]) PopFront() (v T, ok bool) {
	if q.count == 0 {
		return v, false
	}
	var zero T
	v = q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return v, true
}

// Front returns the head without removing it.
func (q *Deque[T]) Front() (v T, ok bool) {
	if q.count == 0 {
		return v, false
	}
	return q.buf[q.head], true
}

// Items returns a copy of the queued items in FIFO order.
func (q *Deque[T]) Items() []T {
	out := make([]T, q.count)
	for i := range out {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}

func (q *Deque[T]) grow() {
	n := len(q.buf) * 2
	if n < minCapacity {
		n = minCapacity
	}
	buf := make([]T, n)
	for i := 0; i < q.count; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
