package metrics

import (
	"context"

	"github.com/kilianp07/fleetload/internal/eventbus"
)

// ProgressRecorder is implemented by sinks that track run progress.
type ProgressRecorder interface {
	RecordProgress(p eventbus.Progress) error
}

// StartProgressCollector subscribes to the progress bus and forwards events
// to the recorder. It stops when the context is canceled or the bus closes.
func StartProgressCollector(ctx context.Context, bus *eventbus.ProgressBus, rec ProgressRecorder) {
	if bus == nil || rec == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-sub:
				if !ok {
					return
				}
				if p.Warmup {
					continue
				}
				_ = rec.RecordProgress(p)
			}
		}
	}()
}
