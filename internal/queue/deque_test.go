package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDequeFIFO(t *testing.T) {
	var q Deque[int]
	assert.True(t, q.Empty())
	for i := 1; i <= 3; i++ {
		q.PushBack(i)
	}
	head, ok := q.Front()
	assert.True(t, ok)
	assert.Equal(t, 1, head)
	for want := 1; want <= 3; want++ {
		v, ok := q.PopFront()
		assert.True(t, ok)
		assert.Equal(t, want, v)
	}
	_, ok = q.PopFront()
	assert.False(t, ok)
	_, ok = q.Front()
	assert.False(t, ok)
}

func TestDequeGrowAcrossWrap(t *testing.T) {
	q := New[int](0)
	// Move head forward so the buffer wraps before it grows.
	for i := 0; i < 5; i++ {
		q.PushBack(i)
	}
	for i := 0; i < 5; i++ {
		q.PopFront()
	}
	for i := 0; i < 20; i++ {
		q.PushBack(i)
	}
	assert.Equal(t, 20, q.Len())
	items := q.Items()
	for i, v := range items {
		assert.Equal(t, i, v)
	}
	for i := 0; i < 20; i++ {
		v, _ := q.PopFront()
		assert.Equal(t, i, v)
	}
	assert.True(t, q.Empty())
}

func TestDequeRequeueRotation(t *testing.T) {
	q := New[string](2)
	q.PushBack("a")
	q.PushBack("b")
	q.PushBack("c")
	var order []string
	for i := 0; i < 6; i++ {
		v, _ := q.PopFront()
		order = append(order, v)
		q.PushBack(v)
	}
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, order)
}
