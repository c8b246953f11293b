package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/core/model"
	"github.com/kilianp07/fleetload/infra/logger"
)

// tableBatch bounds the number of points sent per write request.
const tableBatch = 500

// InfluxSink writes day summaries and load tables to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordDay writes the day summary as a fleet_day point.
func (s *InfluxSink) RecordDay(res coremetrics.DayResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, dayPoint(res))
}

// RecordTable writes one fleet_load point per table row with a field per column.
func (s *InfluxSink) RecordTable(runID, system string, t *model.Table) error {
	if t == nil || t.Len() == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cols := t.Columns()
	batch := make([]*write.Point, 0, tableBatch)
	for i := 0; i < t.Len(); i++ {
		batch = append(batch, rowPoint(runID, system, t, cols, i))
		if len(batch) == tableBatch {
			if err := s.writeAPI.WritePoint(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		return s.writeAPI.WritePoint(ctx, batch...)
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func dayPoint(res coremetrics.DayResult) *write.Point {
	p := write.NewPointWithMeasurement("fleet_day").
		AddTag("run_id", res.RunID).
		AddTag("system", res.System).
		AddTag("day_type", res.DayType)
	if res.Scope != "" {
		p = p.AddTag("scope", res.Scope)
	}
	return p.AddField("active_agents", res.ActiveAgents).
		AddField("queued", res.Queued).
		AddField("service_steps", res.ServiceSteps).
		AddField("sessions", res.Sessions).
		AddField("unserved", res.Unserved).
		AddField("unserved_deficit", round3(res.UnservedDeficit)).
		AddField("energy_delivered", round3(res.EnergyDelivered)).
		AddField("consumed", round3(res.Consumed)).
		AddField("peak_load_kw", round3(res.PeakLoadKW)).
		SetTime(res.Date)
}

func rowPoint(runID, system string, t *model.Table, cols []string, i int) *write.Point {
	p := write.NewPointWithMeasurement("fleet_load").
		AddTag("run_id", runID).
		AddTag("system", system)
	for _, c := range cols {
		p = p.AddField(c, round3(t.Value(i, c)))
	}
	return p.SetTime(t.Time(i))
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
