package scenario

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/fleetload/core/ev"
	"github.com/kilianp07/fleetload/core/logger"
	"github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/core/model"
	"github.com/kilianp07/fleetload/core/monitoring"
	"github.com/kilianp07/fleetload/internal/eventbus"
	"github.com/kilianp07/fleetload/internal/stochastic"
)

// SubstationResult is the EV run of one substation in one scenario.
type SubstationResult struct {
	Substation string
	Seed       uint64
	Result     *ev.Result
	// Redistributed is the location table after work load re-sharing.
	Redistributed *model.Table
	WorkScale     float64
}

// ScenarioResult groups the substation runs of a scenario, in catalog order.
type ScenarioResult struct {
	Scenario    string
	Substations []SubstationResult
}

// Runner executes every substation of every selected scenario.
type Runner struct {
	catalog   *Catalog
	base      ev.Params
	seed      uint64
	parallel  int
	scenarios []string
	log       logger.Logger
	sink      metrics.MetricsSink
	progress  *eventbus.ProgressBus
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithParallelism bounds the number of concurrent substation runs.
func WithParallelism(n int) RunnerOption { return func(r *Runner) { r.parallel = n } }

// WithScenarios restricts the run to the named scenarios.
func WithScenarios(names ...string) RunnerOption {
	return func(r *Runner) { r.scenarios = names }
}

func WithLogger(l logger.Logger) RunnerOption           { return func(r *Runner) { r.log = logger.OrNop(l) } }
func WithSink(s metrics.MetricsSink) RunnerOption       { return func(r *Runner) { r.sink = s } }
func WithProgress(b *eventbus.ProgressBus) RunnerOption { return func(r *Runner) { r.progress = b } }

// NewRunner returns a runner using base for every parameter the catalog does
// not set.
func NewRunner(c *Catalog, base ev.Params, seed uint64, opts ...RunnerOption) (*Runner, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{catalog: c, base: base, seed: seed, parallel: 1, log: logger.Nop{}, sink: metrics.NopSink{}}
	for _, o := range opts {
		o(r)
	}
	if r.parallel < 1 {
		r.parallel = 1
	}
	for _, name := range r.scenarios {
		if _, ok := c.Scenario(name); !ok {
			return nil, fmt.Errorf("%w: unknown scenario %q", model.ErrInvalidParams, name)
		}
	}
	return r, nil
}

type job struct {
	scenario, sub int
	params        ev.Params
	name          string
	seed          uint64
}

// Run simulates all substations concurrently, bounded by the parallelism,
// then redistributes work load within each scenario. Each substation draws
// from its own sampler derived from the base seed and its position in the
// catalog, so results do not depend on scheduling.
func (r *Runner) Run(ctx context.Context) ([]ScenarioResult, error) {
	selected := r.catalog.Scenarios
	if len(r.scenarios) > 0 {
		selected = nil
		for _, name := range r.scenarios {
			sc, _ := r.catalog.Scenario(name)
			selected = append(selected, sc)
		}
	}

	root := stochastic.New(r.seed)
	out := make([]ScenarioResult, len(selected))
	var jobs []job
	for si, sc := range selected {
		out[si].Scenario = sc.Name
		for ci, sub := range r.catalog.Substations {
			p := r.catalog.Params(r.base, sc, sub)
			if p.FleetSize() == 0 {
				continue
			}
			idx := r.scenarioIndex(sc.Name)*len(r.catalog.Substations) + ci
			jobs = append(jobs, job{
				scenario: si, sub: len(out[si].Substations), params: p, name: sub.Name,
				seed: root.Derive(idx).Seed(),
			})
			out[si].Substations = append(out[si].Substations, SubstationResult{Substation: sub.Name})
		}
	}
	r.log.Infof("running %d substation simulations over %d scenarios, parallelism %d", len(jobs), len(selected), r.parallel)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for _, j := range jobs {
		g.Go(func() error {
			scope := out[j.scenario].Scenario + "/" + j.name
			// a panicking substation fails the run instead of the process
			return monitoring.Guard(map[string]string{"scope": scope}, func() error {
				sim, err := ev.NewSimulator(j.params, j.seed,
					ev.WithLogger(r.log), ev.WithSink(r.sink), ev.WithProgress(r.progress),
					ev.WithScope(scope))
				if err != nil {
					return fmt.Errorf("%s: %w", scope, err)
				}
				res, err := sim.Run(gctx)
				if err != nil {
					return fmt.Errorf("%s: %w", scope, err)
				}
				out[j.scenario].Substations[j.sub].Seed = j.seed
				out[j.scenario].Substations[j.sub].Result = res
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	shares := r.catalog.WorkShares()
	for i := range out {
		if err := RedistributeWork(out[i].Substations, shares); err != nil {
			return nil, fmt.Errorf("%s: %w", out[i].Scenario, err)
		}
	}
	return out, nil
}

func (r *Runner) scenarioIndex(name string) int {
	for i, s := range r.catalog.Scenarios {
		if s.Name == name {
			return i
		}
	}
	return 0
}
