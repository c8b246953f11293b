package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/core/model"
)

type capture struct {
	mu     sync.Mutex
	bodies []string
}

func (c *capture) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, strings.TrimSpace(string(data)))
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxSink_RecordDay(t *testing.T) {
	var c capture
	srv := c.server(t)

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	date := time.Date(2025, 1, 6, 6, 0, 0, 0, time.UTC)
	res := coremetrics.DayResult{
		RunID:           "run-1",
		System:          coremetrics.SystemBus,
		Date:            date,
		DayType:         "Weekday",
		ActiveAgents:    10,
		Queued:          10,
		ServiceSteps:    12,
		EnergyDelivered: 123.45678,
		Consumed:        4115.2,
		PeakLoadKW:      400,
	}
	require.NoError(t, sink.RecordDay(res))

	p := write.NewPointWithMeasurement("fleet_day").
		AddTag("run_id", "run-1").
		AddTag("system", "bus").
		AddTag("day_type", "Weekday").
		AddField("active_agents", 10).
		AddField("queued", 10).
		AddField("service_steps", 12).
		AddField("sessions", 0).
		AddField("unserved", 0).
		AddField("unserved_deficit", 0.0).
		AddField("energy_delivered", 123.457).
		AddField("consumed", 4115.2).
		AddField("peak_load_kw", 400.0).
		SetTime(date)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	require.Len(t, c.bodies, 1)
	assert.Equal(t, expected, c.bodies[0])
}

func TestInfluxSink_RecordTable(t *testing.T) {
	var c capture
	srv := c.server(t)

	start := time.Date(2025, 1, 6, 22, 0, 0, 0, time.UTC)
	tbl := model.NewTable(15*time.Minute, model.TotalLoad)
	for i := 0; i < 3; i++ {
		require.NoError(t, tbl.Append(model.Row{
			Time:       start.Add(time.Duration(i) * 15 * time.Minute),
			Agents:     []model.Cell{{Column: "Bus_1", Value: float64(i) * 100}},
			Aggregates: []float64{float64(i) * 100},
		}))
	}

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	require.NoError(t, sink.RecordTable("run-1", coremetrics.SystemBus, tbl))

	require.Len(t, c.bodies, 1)
	lines := strings.Split(c.bodies[0], "\n")
	require.Len(t, lines, 3)
	p := write.NewPointWithMeasurement("fleet_load").
		AddTag("run_id", "run-1").
		AddTag("system", "bus").
		AddField("Bus_1", 200.0).
		AddField(model.TotalLoad, 200.0).
		SetTime(start.Add(30 * time.Minute))
	assert.Equal(t, strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)), lines[2])
}

func TestInfluxSink_RecordEmptyTable(t *testing.T) {
	var c capture
	srv := c.server(t)

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	require.NoError(t, sink.RecordTable("run-1", coremetrics.SystemEV, model.NewTable(time.Hour)))
	require.NoError(t, sink.RecordTable("run-1", coremetrics.SystemEV, nil))
	assert.Empty(t, c.bodies)
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
