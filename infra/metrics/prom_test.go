package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/internal/eventbus"
)

func TestPromSink_RecordDay(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	res := coremetrics.DayResult{
		System:          coremetrics.SystemBus,
		DayType:         "Weekday",
		ServiceSteps:    12,
		Unserved:        1,
		EnergyDelivered: 450,
		Consumed:        500,
		PeakLoadKW:      400,
	}
	require.NoError(t, sink.RecordDay(res))
	res.PeakLoadKW = 200
	require.NoError(t, sink.RecordDay(res))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.days.WithLabelValues("bus", "", "Weekday")))
	assert.Equal(t, 900.0, testutil.ToFloat64(sink.delivered.WithLabelValues("bus", "")))
	assert.Equal(t, 1000.0, testutil.ToFloat64(sink.consumed.WithLabelValues("bus", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.unserved.WithLabelValues("bus", "")))
	assert.Equal(t, 24.0, testutil.ToFloat64(sink.services.WithLabelValues("bus", "")))
	assert.Equal(t, 200.0, testutil.ToFloat64(sink.peak.WithLabelValues("bus", "")))
}

func TestPromSink_NegativeEnergyIgnored(t *testing.T) {
	sink, err := NewPromSinkWithRegistry(prometheus.NewRegistry())
	require.NoError(t, err)
	require.NotPanics(t, func() {
		_ = sink.RecordDay(coremetrics.DayResult{System: coremetrics.SystemEV, EnergyDelivered: -1})
	})
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.delivered.WithLabelValues("ev", "")))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordDay(coremetrics.DayResult{System: coremetrics.SystemEV, DayType: "Saturday"}))
	assert.Equal(t, 1.0, testutil.ToFloat64(second.days.WithLabelValues("ev", "", "Saturday")))
}

func TestProgressCollector(t *testing.T) {
	sink, err := NewPromSinkWithRegistry(prometheus.NewRegistry())
	require.NoError(t, err)

	bus := eventbus.NewProgressBus(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartProgressCollector(ctx, bus, sink)

	bus.Publish(eventbus.Progress{System: "ev", Scope: "low/A", Done: 1, Total: 3, Warmup: true})
	bus.Publish(eventbus.Progress{System: "ev", Scope: "low/A", Done: 1, Total: 4})

	g := sink.progress.WithLabelValues("ev", "low/A")
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(g) == 0.25
	}, time.Second, 10*time.Millisecond)
}
