package metrics

import (
	"errors"

	"github.com/kilianp07/fleetload/core/model"
)

// MultiSink fans out results to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDay forwards the result to every sink. A failing sink does not stop
// the others; failures are joined.
func (m *MultiSink) RecordDay(res DayResult) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordDay(res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordTable forwards the table to every sink implementing TableRecorder.
func (m *MultiSink) RecordTable(runID, system string, t *model.Table) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TableRecorder); ok {
			if err := rec.RecordTable(runID, system, t); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordTable stores t when sink supports it.
func RecordTable(sink MetricsSink, runID, system string, t *model.Table) error {
	if rec, ok := sink.(TableRecorder); ok {
		return rec.RecordTable(runID, system, t)
	}
	return nil
}
