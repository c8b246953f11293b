// Package infra groups the adapters that move simulation results out of the
// process: MQTT publishing, Prometheus, InfluxDB and JSON lines sinks, the
// SQLite ledger, Sentry reporting and the zerolog logger. Simulators only
// see the interfaces declared under core.
package infra
