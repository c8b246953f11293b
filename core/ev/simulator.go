package ev

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fleetload/core/calendar"
	"github.com/kilianp07/fleetload/core/logger"
	"github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/core/metrics/ledger"
	"github.com/kilianp07/fleetload/core/model"
	"github.com/kilianp07/fleetload/internal/eventbus"
	"github.com/kilianp07/fleetload/internal/stochastic"
)

// Result is the output of an EV run.
type Result struct {
	RunID      string
	Scope      string
	Events     []Event
	ByCategory *model.Table
	ByLocation *model.Table
	Days       []metrics.DayResult
}

// Simulator runs an EV fleet over the configured horizon.
type Simulator struct {
	model    *Model
	rng      *stochastic.Sampler
	runID    string
	scope    string
	log      logger.Logger
	sink     metrics.MetricsSink
	ledger   ledger.Store
	progress *eventbus.ProgressBus
}

// Option configures a Simulator.
type Option func(*Simulator)

func WithLogger(l logger.Logger) Option           { return func(s *Simulator) { s.log = logger.OrNop(l) } }
func WithSink(m metrics.MetricsSink) Option       { return func(s *Simulator) { s.sink = m } }
func WithLedger(l ledger.Store) Option            { return func(s *Simulator) { s.ledger = l } }
func WithProgress(b *eventbus.ProgressBus) Option { return func(s *Simulator) { s.progress = b } }
func WithRunID(id string) Option                  { return func(s *Simulator) { s.runID = id } }

// WithScope labels results, e.g. with a substation name.
func WithScope(scope string) Option { return func(s *Simulator) { s.scope = scope } }

// NewSimulator validates p and returns a simulator drawing from seed.
func NewSimulator(p Params, seed uint64, opts ...Option) (*Simulator, error) {
	return NewSimulatorWithSampler(p, stochastic.New(seed), opts...)
}

// NewSimulatorWithSampler is NewSimulator with an explicit random source.
func NewSimulatorWithSampler(p Params, rng *stochastic.Sampler, opts ...Option) (*Simulator, error) {
	m, err := NewModel(p)
	if err != nil {
		return nil, err
	}
	s := &Simulator{model: m, rng: rng, log: logger.Nop{}, sink: metrics.NopSink{}}
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

// Run builds the fleet, lets it settle for the stabilization days, then
// simulates the horizon. Events of the stabilization days are discarded.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	p := s.model.params
	cal := p.calendar()
	start := calendar.DayStart(p.StartDate)
	fleet := NewFleet(s.model, s.rng)
	s.log.Infof("ev run %s%s: %d vehicles, %d days from %s, seed %d",
		s.runID, s.scopeSuffix(), len(fleet), p.Days, start.Format("2006-01-02"), s.rng.Seed())

	for d := p.StabilizationDays; d > 0; d-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := start.AddDate(0, 0, -d)
		dt := cal.Classify(date)
		for _, v := range fleet {
			v.Drive(dt, date)
			v.Charge(date, dt)
		}
		s.progress.Publish(eventbus.Progress{
			RunID: s.runID, System: metrics.SystemEV, Scope: s.scope, Date: date,
			Done: p.StabilizationDays - d + 1, Total: p.StabilizationDays, Warmup: true,
		})
	}

	res := &Result{RunID: s.runID, Scope: s.scope}
	for d := 0; d < p.Days; d++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := start.AddDate(0, 0, d)
		dt := cal.Classify(date)
		day := metrics.DayResult{
			RunID: s.runID, System: metrics.SystemEV, Scope: s.scope,
			Date: date, DayType: dt.String(), ActiveAgents: len(fleet),
		}
		for _, v := range fleet {
			kwh := v.Drive(dt, date)
			day.Consumed += kwh
			if v.NeedsReplenishment() {
				day.Queued++
			}
			var delivered float64
			for _, sess := range v.Charge(date, dt) {
				res.Events = append(res.Events, sess.Events...)
				delivered += sess.EnergyKWh()
				day.Sessions++
				day.ServiceSteps += len(sess.Events)
			}
			day.EnergyDelivered += delivered
			if s.ledger != nil {
				rec := ledger.Record{AgentID: v.ID(), Date: date, ConsumedKWh: kwh, DeliveredKWh: delivered}
				if err := s.ledger.Add(rec); err != nil {
					return nil, fmt.Errorf("ledger %s: %w", date.Format("2006-01-02"), err)
				}
			}
			if v.Store().Fraction() < p.LowSoC {
				day.Unserved++
				day.UnservedDeficit += v.Store().Deficit()
			}
		}
		res.Days = append(res.Days, day)
		s.log.Debugw("ev day", map[string]any{
			"date": date.Format("2006-01-02"), "day_type": dt.String(), "scope": s.scope,
			"sessions": day.Sessions, "delivered_kwh": day.EnergyDelivered,
		})
		s.progress.Publish(eventbus.Progress{
			RunID: s.runID, System: metrics.SystemEV, Scope: s.scope, Date: date, Done: d + 1, Total: p.Days,
		})
	}

	end := start.AddDate(0, 0, p.Days)
	var err error
	if res.ByCategory, err = Resample(res.Events, start, end, p.ResampleInterval, p.CategoryColumns(), ByCategory); err != nil {
		return nil, err
	}
	if res.ByLocation, err = Resample(res.Events, start, end, p.ResampleInterval, p.LocationColumns(), ByLocation); err != nil {
		return nil, err
	}

	for i := range res.Days {
		res.Days[i].PeakLoadKW = DayPeak(res.ByCategory, res.Days[i].Date)
		if err := s.sink.RecordDay(res.Days[i]); err != nil {
			s.log.Errorf("record day %s: %v", res.Days[i].Date.Format("2006-01-02"), err)
		}
	}
	if err := metrics.RecordTable(s.sink, s.runID, metrics.SystemEV, res.ByCategory); err != nil {
		s.log.Errorf("record table: %v", err)
	}
	peak, _ := res.ByCategory.Peak(model.TotalLoad)
	s.log.Infof("ev run %s%s finished: %d events, peak %.1f kW", s.runID, s.scopeSuffix(), len(res.Events), peak)
	return res, nil
}

func (s *Simulator) scopeSuffix() string {
	if s.scope == "" {
		return ""
	}
	return " [" + s.scope + "]"
}

// DayPeak returns the highest Total_Load of t on the calendar day of date.
func DayPeak(t *model.Table, date time.Time) float64 {
	from := calendar.DayStart(date)
	to := calendar.NextDay(date)
	var peak float64
	for i := 0; i < t.Len(); i++ {
		ts := t.Time(i)
		if ts.Before(from) || !ts.Before(to) {
			continue
		}
		if v := t.Value(i, model.TotalLoad); v > peak {
			peak = v
		}
	}
	return peak
}
