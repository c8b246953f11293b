package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fleetload/config"
	"github.com/kilianp07/fleetload/core/bus"
	"github.com/kilianp07/fleetload/core/calendar"
	"github.com/kilianp07/fleetload/core/ev"
	"github.com/kilianp07/fleetload/core/factory"
	coremetrics "github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/core/metrics/ledger"
	"github.com/kilianp07/fleetload/core/model"
	"github.com/kilianp07/fleetload/core/scenario"
	sqlledger "github.com/kilianp07/fleetload/infra/ledger"
	"github.com/kilianp07/fleetload/infra/logger"
	"github.com/kilianp07/fleetload/infra/metrics"
	_ "github.com/kilianp07/fleetload/infra/mqtt"
	"github.com/kilianp07/fleetload/internal/eventbus"
	"github.com/kilianp07/fleetload/pkg/export"
)

// Service wires configuration, sinks and outputs around the simulators.
type Service struct {
	cfg      *config.Config
	cal      *calendar.Calendar
	sink     coremetrics.MetricsSink
	progress *eventbus.ProgressBus
	ledger   ledger.Store
	log      logger.Logger
	promAddr string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cal, err := cfg.Calendar.Build()
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	addr, err := promAddr(cfg.Metrics.Sinks)
	if err != nil {
		return nil, err
	}
	store, err := openLedger(cfg.Simulation.Ledger, cfg.Simulation.OutputDir)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:      cfg,
		cal:      cal,
		sink:     sink,
		progress: eventbus.NewProgressBus(cfg.Simulation.ProgressBuffer),
		ledger:   store,
		log:      logger.New("service"),
		promAddr: addr,
	}, nil
}

func openLedger(c config.LedgerConfig, outputDir string) (ledger.Store, error) {
	if c.Backend != "sqlite" {
		return ledger.NewMemoryStore(), nil
	}
	if c.Path == "" {
		c.Path = filepath.Join(outputDir, "ledger.db")
	}
	if dir := filepath.Dir(c.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	store, err := sqlledger.NewSQLiteStore(c.Path)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	if !c.Keep {
		if err := store.Reset(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ledger: %w", err)
		}
	}
	return store, nil
}

// promAddr returns the listen address of the first prometheus sink.
func promAddr(cfgs []factory.ModuleConfig) (string, error) {
	for _, c := range cfgs {
		if c.Type != "prometheus" {
			continue
		}
		var conf struct {
			Addr string `json:"listen_addr"`
		}
		if err := factory.Decode(c.Conf, &conf); err != nil {
			return "", err
		}
		return conf.Addr, nil
	}
	return "", nil
}

// start launches the progress logger, the progress collectors and the
// metrics endpoint. They stop with ctx.
func (s *Service) start(ctx context.Context) {
	sub := s.progress.Subscribe()
	go func() {
		defer s.progress.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-sub:
				if !ok {
					return
				}
				if p.Warmup {
					s.log.Debugf("%s %s warm-up %d/%d", p.System, p.Scope, p.Done, p.Total)
					continue
				}
				s.log.Infof("%s %s day %d/%d (%s) %.0f%%", p.System, p.Scope, p.Done, p.Total,
					p.Date.Format("2006-01-02"), 100*p.Fraction())
			}
		}
	}()
	for _, sink := range flatten(s.sink) {
		if rec, ok := sink.(metrics.ProgressRecorder); ok {
			metrics.StartProgressCollector(ctx, s.progress, rec)
		}
	}
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
}

func flatten(sink coremetrics.MetricsSink) []coremetrics.MetricsSink {
	if m, ok := sink.(*coremetrics.MultiSink); ok {
		return m.Sinks
	}
	return []coremetrics.MetricsSink{sink}
}

// RunBus simulates the hydrogen bus fleet and writes its outputs.
func (s *Service) RunBus(ctx context.Context) (*bus.Result, error) {
	s.start(ctx)
	p, err := s.cfg.Bus.Params(s.cal)
	if err != nil {
		return nil, err
	}
	sim, err := bus.NewSimulator(p, s.cfg.Simulation.Seed,
		bus.WithLogger(logger.New("bus")), bus.WithSink(s.sink),
		bus.WithLedger(s.ledger), bus.WithProgress(s.progress))
	if err != nil {
		return nil, err
	}
	res, err := sim.Run(ctx)
	if err != nil {
		return nil, err
	}
	s.summarise("bus", res.Table)
	dir := s.cfg.Simulation.OutputDir
	if err := writeFile(dir, "bus_load.csv", func(f *os.File) error { return export.WriteTableCSV(f, res.Table) }); err != nil {
		return nil, err
	}
	if err := writeFile(dir, "bus_days.json", func(f *os.File) error { return export.WriteDaysJSON(f, res.Days) }); err != nil {
		return nil, err
	}
	if err := writeFile(dir, "bus_ledger.csv", s.writeLedger); err != nil {
		return nil, err
	}
	if *s.cfg.Simulation.Charts {
		if err := writeFile(dir, "bus_load.html", func(f *os.File) error {
			return export.WriteTableChartHTML(f, res.Table, "Hydrogen bus refuelling load")
		}); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// RunEV simulates the EV fleet and writes its outputs.
func (s *Service) RunEV(ctx context.Context) (*ev.Result, error) {
	s.start(ctx)
	p, err := s.cfg.EV.Params(s.cal)
	if err != nil {
		return nil, err
	}
	sim, err := ev.NewSimulator(p, s.cfg.Simulation.Seed,
		ev.WithLogger(logger.New("ev")), ev.WithSink(s.sink),
		ev.WithLedger(s.ledger), ev.WithProgress(s.progress))
	if err != nil {
		return nil, err
	}
	res, err := sim.Run(ctx)
	if err != nil {
		return nil, err
	}
	s.summarise("ev", res.ByCategory)
	dir := s.cfg.Simulation.OutputDir
	outputs := []output{
		{"ev_category_load.csv", func(f *os.File) error { return export.WriteTableCSV(f, res.ByCategory) }},
		{"ev_location_load.csv", func(f *os.File) error { return export.WriteTableCSV(f, res.ByLocation) }},
		{"ev_events.csv", func(f *os.File) error { return export.WriteEventsCSV(f, res.Events) }},
		{"ev_days.json", func(f *os.File) error { return export.WriteDaysJSON(f, res.Days) }},
		{"ev_ledger.csv", s.writeLedger},
	}
	if *s.cfg.Simulation.Charts {
		outputs = append(outputs, output{"ev_load.html", func(f *os.File) error {
			return export.WriteTableChartHTML(f, res.ByCategory, "EV charging load by category", res.ByCategory.Columns()...)
		}})
	}
	for _, o := range outputs {
		if err := writeFile(dir, o.name, o.write); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// RunScenarios simulates every selected scenario and substation and writes
// one location table per substation under <output_dir>/<scenario>/.
func (s *Service) RunScenarios(ctx context.Context) ([]scenario.ScenarioResult, error) {
	s.start(ctx)
	sc := s.cfg.Scenarios
	cat, err := sc.LoadCatalog()
	if err != nil {
		return nil, err
	}
	base, err := s.cfg.EV.Params(s.cal)
	if err != nil {
		return nil, err
	}
	runner, err := scenario.NewRunner(cat, base, s.cfg.Simulation.Seed,
		scenario.WithParallelism(sc.Parallelism), scenario.WithScenarios(sc.Names...),
		scenario.WithLogger(logger.New("scenarios")), scenario.WithSink(s.sink),
		scenario.WithProgress(s.progress))
	if err != nil {
		return nil, err
	}
	results, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		dir := filepath.Join(s.cfg.Simulation.OutputDir, r.Scenario)
		for _, sub := range r.Substations {
			tbl := sub.Result.ByLocation
			if *sc.Redistribute && sub.Redistributed != nil {
				tbl = sub.Redistributed
			}
			s.summarise(r.Scenario+"/"+sub.Substation, tbl)
			if err := writeFile(dir, sub.Substation+".csv", func(f *os.File) error { return export.WriteTableCSV(f, tbl) }); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

func (s *Service) summarise(name string, t *model.Table) {
	total := t.Column(model.TotalLoad)
	if len(total) == 0 {
		s.log.Infof("%s: empty load table", name)
		return
	}
	peak, at := t.Peak(model.TotalLoad)
	s.log.Infof("%s: %d rows, mean load %.1f kW, peak %.1f kW at %s", name, t.Len(),
		stat.Mean(total, nil), peak, t.Time(at).Format("2006-01-02 15:04"))
}

func (s *Service) writeLedger(f *os.File) error {
	recs, err := s.ledger.All()
	if err != nil {
		return err
	}
	return export.WriteLedgerCSV(f, recs)
}

// output is one file written to the output directory.
type output struct {
	name  string
	write func(*os.File) error
}

func writeFile(dir, name string, write func(*os.File) error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.progress.Close()
	for _, sink := range flatten(s.sink) {
		if c, ok := sink.(interface{ Close() }); ok {
			c.Close()
		}
	}
	if c, ok := s.ledger.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
