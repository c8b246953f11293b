package metrics

import (
	coremetrics "github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/internal/eventbus"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records simulated days in Prometheus metrics.
type PromSink struct {
	days      *prometheus.CounterVec
	delivered *prometheus.CounterVec
	consumed  *prometheus.CounterVec
	unserved  *prometheus.CounterVec
	services  *prometheus.CounterVec
	peak      *prometheus.GaugeVec
	progress  *prometheus.GaugeVec
}

// NewPromSink registers simulation metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := []string{"system", "scope"}
	days := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_days_simulated_total",
		Help: "Number of simulated days",
	}, []string{"system", "scope", "day_type"})
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_energy_delivered_total",
		Help: "Energy delivered to agents (kg for buses, kWh for EVs)",
	}, labels)
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_energy_consumed_total",
		Help: "Energy consumed by agents while driving",
	}, labels)
	unserved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_unserved_agents_total",
		Help: "Agents left below target at the end of a day",
	}, labels)
	services := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_service_steps_total",
		Help: "Pump services or charging steps",
	}, labels)
	peak := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_peak_load_kw",
		Help: "Peak load of the last simulated day",
	}, labels)
	progress := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_simulation_progress_ratio",
		Help: "Fraction of simulated days completed",
	}, labels)

	var err error
	if days, err = register(reg, days); err != nil {
		return nil, err
	}
	if delivered, err = register(reg, delivered); err != nil {
		return nil, err
	}
	if consumed, err = register(reg, consumed); err != nil {
		return nil, err
	}
	if unserved, err = register(reg, unserved); err != nil {
		return nil, err
	}
	if services, err = register(reg, services); err != nil {
		return nil, err
	}
	if peak, err = register(reg, peak); err != nil {
		return nil, err
	}
	if progress, err = register(reg, progress); err != nil {
		return nil, err
	}

	return &PromSink{
		days:      days,
		delivered: delivered,
		consumed:  consumed,
		unserved:  unserved,
		services:  services,
		peak:      peak,
		progress:  progress,
	}, nil
}

// register returns the collector already registered under the same
// descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordDay updates the counters for one simulated day.
func (s *PromSink) RecordDay(res coremetrics.DayResult) error {
	s.days.WithLabelValues(res.System, res.Scope, res.DayType).Inc()
	s.delivered.WithLabelValues(res.System, res.Scope).Add(nonNeg(res.EnergyDelivered))
	s.consumed.WithLabelValues(res.System, res.Scope).Add(nonNeg(res.Consumed))
	s.unserved.WithLabelValues(res.System, res.Scope).Add(float64(res.Unserved))
	s.services.WithLabelValues(res.System, res.Scope).Add(float64(res.ServiceSteps))
	s.peak.WithLabelValues(res.System, res.Scope).Set(res.PeakLoadKW)
	return nil
}

// RecordProgress sets the completion ratio of a run.
func (s *PromSink) RecordProgress(p eventbus.Progress) error {
	s.progress.WithLabelValues(p.System, p.Scope).Set(p.Fraction())
	return nil
}

// counters panic on negative increments
func nonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
