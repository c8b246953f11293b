// Package metrics defines the observability contract of the simulators.
// A MetricsSink receives one DayResult per simulated day; sinks that also
// implement TableRecorder receive the finished load table. Sinks are built
// from configuration through NewMetricsSink and combined with MultiSink when
// several are configured.
package metrics
