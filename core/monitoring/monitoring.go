// Package monitoring reports run failures to an external error tracker.
package monitoring

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// ErrPanic wraps a panic recovered by Guard.
var ErrPanic = errors.New("panic")

// Monitor receives errors worth reporting.
type Monitor interface {
	Capture(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) Capture(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)              {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor. A nil monitor restores the no-op one.
func Init(m Monitor) {
	mu.Lock()
	defer mu.Unlock()
	if m == nil {
		m = NopMonitor{}
	}
	current = m
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Capture reports err with optional tags. Nil errors are ignored.
func Capture(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().Capture(err, tags)
}

// Flush waits for buffered reports.
func Flush(d time.Duration) { get().Flush(d) }

// Guard runs fn and turns a panic into an error wrapping ErrPanic. Panics
// are reported with tags; returned errors are left to the caller.
func Guard(tags map[string]string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
			t := make(map[string]string, len(tags)+1)
			for k, v := range tags {
				t[k] = v
			}
			t["stack"] = string(debug.Stack())
			Capture(err, t)
		}
	}()
	return fn()
}
