package metrics

import (
	"time"

	"github.com/kilianp07/fleetload/core/model"
)

// System names used in results and metric labels.
const (
	SystemBus = "bus"
	SystemEV  = "ev"
)

// DayResult summarises one simulated day.
type DayResult struct {
	RunID        string    `json:"run_id"`
	System       string    `json:"system"`
	Scope        string    `json:"scope,omitempty"`
	Date         time.Time `json:"date"`
	DayType      string    `json:"day_type"`
	ActiveAgents int       `json:"active_agents"`
	// Queued is the number of agents that entered the contention queue.
	Queued       int `json:"queued"`
	ServiceSteps int `json:"service_steps"`
	Sessions     int `json:"sessions"`
	// Unserved agents were still below capacity when the window closed.
	Unserved        int     `json:"unserved"`
	UnservedDeficit float64 `json:"unserved_deficit"`
	EnergyDelivered float64 `json:"energy_delivered"`
	Consumed        float64 `json:"consumed"`
	PeakLoadKW      float64 `json:"peak_load_kw"`
}

// MetricsSink records day results for observability purposes.
type MetricsSink interface {
	RecordDay(res DayResult) error
}

// TableRecorder is implemented by sinks able to store a whole load table.
type TableRecorder interface {
	RecordTable(runID, system string, t *model.Table) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordDay(DayResult) error                      { return nil }
func (NopSink) RecordTable(string, string, *model.Table) error { return nil }
