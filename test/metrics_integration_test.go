package test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetload/core/ev"
	coremetrics "github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/infra/metrics"
	"github.com/kilianp07/fleetload/internal/eventbus"
	"github.com/kilianp07/fleetload/test/util"
)

func TestEVMetricsHTTPExposure(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	progress := eventbus.NewProgressBus(64)
	metrics.StartProgressCollector(ctx, progress, sink)

	p := ev.DefaultParams()
	p.Days = 2
	p.StabilizationDays = 1
	sim, err := ev.NewSimulator(p, 9, ev.WithSink(sink), ev.WithProgress(progress))
	require.NoError(t, err)
	_, err = sim.Run(ctx)
	require.NoError(t, err)

	waitCtx, wcancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer wcancel()
	require.NoError(t, util.WaitForMetric(waitCtx, srv.URL, `fleet_days_simulated_total{day_type="Weekday",scope="",system="`+coremetrics.SystemEV+`"} 2`))
	require.NoError(t, util.WaitForMetric(waitCtx, srv.URL, `fleet_simulation_progress_ratio{scope="",system="ev"} 1`))
}
