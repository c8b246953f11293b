package bus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/fleetload/core/logger"
	"github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/core/metrics/ledger"
	"github.com/kilianp07/fleetload/core/model"
	"github.com/kilianp07/fleetload/internal/eventbus"
	"github.com/kilianp07/fleetload/internal/stochastic"
)

// Result is the output of a bus run.
type Result struct {
	RunID string
	Table *model.Table
	Days  []metrics.DayResult
}

// Simulator runs the bus fleet over the configured horizon.
type Simulator struct {
	params    Params
	rng       *stochastic.Sampler
	scheduler *PumpScheduler
	runID     string
	log       logger.Logger
	sink      metrics.MetricsSink
	ledger    ledger.Store
	progress  *eventbus.ProgressBus
}

// Option configures a Simulator.
type Option func(*Simulator)

func WithLogger(l logger.Logger) Option           { return func(s *Simulator) { s.log = logger.OrNop(l) } }
func WithSink(m metrics.MetricsSink) Option       { return func(s *Simulator) { s.sink = m } }
func WithLedger(l ledger.Store) Option            { return func(s *Simulator) { s.ledger = l } }
func WithProgress(b *eventbus.ProgressBus) Option { return func(s *Simulator) { s.progress = b } }
func WithRunID(id string) Option                  { return func(s *Simulator) { s.runID = id } }

// NewSimulator validates p and returns a simulator drawing from seed.
func NewSimulator(p Params, seed uint64, opts ...Option) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		params:    p,
		rng:       stochastic.New(seed),
		scheduler: NewPumpScheduler(p),
		log:       logger.Nop{},
		sink:      metrics.NopSink{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.sink == nil {
		s.sink = metrics.NopSink{}
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	return s, nil
}

// RunID identifies this run in logs and metrics.
func (s *Simulator) RunID() string { return s.runID }

// Run simulates every day of the horizon and returns the load table.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	p := s.params
	res := &Result{RunID: s.runID, Table: model.NewTable(p.TimeStep, s.scheduler.Aggregates()...)}
	s.log.Infof("bus run %s: %d days from %s, %d pumps, seed %d",
		s.runID, p.Days, p.StartDate.Format("2006-01-02"), p.Pumps, s.rng.Seed())

	for d := 0; d < p.Days; d++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := p.StartDate.AddDate(0, 0, d)
		plan := PlanDay(p, date, s.rng)
		out := s.scheduler.Run(plan)
		if err := res.Table.AppendRows(out.Rows); err != nil {
			return nil, fmt.Errorf("day %s: %w", date.Format("2006-01-02"), err)
		}
		day := s.summarise(plan, out)
		res.Days = append(res.Days, day)

		if len(out.Unserved) > 0 {
			s.log.Warnf("day %s: %d buses still short of %.2f kg when the window closed",
				date.Format("2006-01-02"), len(out.Unserved), out.DeficitKg)
		}
		s.log.Debugw("bus day", map[string]any{
			"date": date.Format("2006-01-02"), "day_type": plan.DayType.String(),
			"buses": len(plan.Buses), "queued": len(plan.Queue),
			"services": len(out.Services), "peak_kw": day.PeakLoadKW,
		})
		if err := s.sink.RecordDay(day); err != nil {
			s.log.Errorf("record day %s: %v", date.Format("2006-01-02"), err)
		}
		if err := s.record(plan, out); err != nil {
			return nil, fmt.Errorf("ledger %s: %w", date.Format("2006-01-02"), err)
		}
		s.progress.Publish(eventbus.Progress{
			RunID: s.runID, System: metrics.SystemBus, Date: date, Done: d + 1, Total: p.Days,
		})
	}

	if err := metrics.RecordTable(s.sink, s.runID, metrics.SystemBus, res.Table); err != nil {
		s.log.Errorf("record table: %v", err)
	}
	peak, _ := res.Table.Peak(model.TotalLoad)
	s.log.Infof("bus run %s finished: %d rows, peak %.1f kW", s.runID, res.Table.Len(), peak)
	return res, nil
}

func (s *Simulator) summarise(plan DayPlan, out DayOutcome) metrics.DayResult {
	totals := make([]float64, len(out.Rows))
	for i, r := range out.Rows {
		totals[i] = r.Aggregates[0]
	}
	var peak float64
	if len(totals) > 0 {
		peak = floats.Max(totals)
	}
	return metrics.DayResult{
		RunID:           s.runID,
		System:          metrics.SystemBus,
		Date:            plan.Date,
		DayType:         plan.DayType.String(),
		ActiveAgents:    len(plan.Buses),
		Queued:          len(plan.Queue),
		ServiceSteps:    len(out.Services),
		Unserved:        len(out.Unserved),
		UnservedDeficit: out.DeficitKg,
		EnergyDelivered: out.DeliveredKg * s.params.EnergyDensity,
		Consumed:        plan.ConsumedKWh,
		PeakLoadKW:      peak,
	}
}

func (s *Simulator) record(plan DayPlan, out DayOutcome) error {
	if s.ledger == nil {
		return nil
	}
	delivered := make(map[string]float64, len(plan.Buses))
	for _, sv := range out.Services {
		delivered[sv.BusID] += sv.Kg * s.params.EnergyDensity
	}
	for _, b := range plan.Buses {
		if err := s.ledger.Add(ledger.Record{
			AgentID:      b.ID(),
			Date:         plan.Date,
			ConsumedKWh:  plan.Consumption[b.ID()],
			DeliveredKWh: delivered[b.ID()],
		}); err != nil {
			return err
		}
	}
	return nil
}
