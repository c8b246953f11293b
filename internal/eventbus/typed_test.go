package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[string]()
	ch := bus.Subscribe()
	bus.Publish("hello")
	v := <-ch
	if v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	bus.Publish(1)
}

func TestTypedBusUnsubscribeAfterClose(t *testing.T) {
	bus := NewTyped[float64]()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}

func TestTypedBusDropsWhenFull(t *testing.T) {
	bus := NewTypedBuffered[int](2)
	ch := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(i)
	}
	assert.Equal(t, uint64(3), bus.Dropped())
	assert.Equal(t, 0, <-ch)
	assert.Equal(t, 1, <-ch)
}

func TestNilBusPublish(t *testing.T) {
	var bus *ProgressBus
	assert.NotPanics(t, func() { bus.Publish(Progress{}) })
}

func TestProgressFraction(t *testing.T) {
	assert.Equal(t, 0.5, Progress{Done: 2, Total: 4}.Fraction())
	assert.Equal(t, 0.0, Progress{Done: 2}.Fraction())
}

func TestProgressBusDelivery(t *testing.T) {
	bus := NewProgressBus(0)
	ch := bus.Subscribe()
	bus.Publish(Progress{System: "bus", Done: 1, Total: 7})
	p := <-ch
	assert.Equal(t, "bus", p.System)
	assert.Equal(t, 7, p.Total)
}
