package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/core/metrics/ledger"
	"github.com/kilianp07/fleetload/core/model"
	"github.com/kilianp07/fleetload/internal/eventbus"
)

type recordingSink struct {
	days   []metrics.DayResult
	tables int
}

func (r *recordingSink) RecordDay(d metrics.DayResult) error {
	r.days = append(r.days, d)
	return nil
}

func (r *recordingSink) RecordTable(string, string, *model.Table) error {
	r.tables++
	return nil
}

func runBus(t *testing.T, p Params, seed uint64, opts ...Option) *Result {
	t.Helper()
	sim, err := NewSimulator(p, seed, opts...)
	require.NoError(t, err)
	res, err := sim.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestSimulatorWeekTable(t *testing.T) {
	p := DefaultParams()
	res := runBus(t, p, 42)
	tbl := res.Table

	assert.Equal(t, 7*96, tbl.Len())
	assert.Len(t, res.Days, 7)
	for i := 1; i < tbl.Len(); i++ {
		assert.Equal(t, p.TimeStep, tbl.Time(i).Sub(tbl.Time(i-1)))
	}
	assert.Equal(t, []string{model.TotalLoad, model.DispensingLoad}, tbl.AggregateColumns())
	assert.Len(t, tbl.AgentColumns(), p.WeekdayBuses)

	for i := 0; i < tbl.Len(); i++ {
		assert.InDelta(t, tbl.AgentTotal(i), tbl.Value(i, model.TotalLoad), 1e-9)
		assert.InDelta(t, tbl.Value(i, model.DispensingLoad), tbl.Value(i, model.TotalLoad), 1e-9)
	}

	sunday := res.Days[6]
	assert.Equal(t, "Sunday/Holiday", sunday.DayType)
	assert.Zero(t, sunday.ActiveAgents)
	assert.Zero(t, sunday.PeakLoadKW)
	assert.Equal(t, p.SaturdayBuses, res.Days[5].ActiveAgents)
	assert.Greater(t, res.Days[0].EnergyDelivered, 0.0)
}

func TestSimulatorDeterministic(t *testing.T) {
	p := DefaultParams()
	a := runBus(t, p, 7, WithRunID("a"))
	b := runBus(t, p, 7, WithRunID("b"))
	c := runBus(t, p, 8)

	require.Equal(t, a.Table.Columns(), b.Table.Columns())
	require.Equal(t, a.Table.Len(), b.Table.Len())
	same := true
	for i := 0; i < a.Table.Len(); i++ {
		for _, col := range a.Table.Columns() {
			assert.Equal(t, a.Table.Value(i, col), b.Table.Value(i, col))
			if a.Table.Value(i, col) != c.Table.Value(i, col) {
				same = false
			}
		}
	}
	assert.False(t, same, "a different seed should change the table")
}

func TestSimulatorEnergyBalance(t *testing.T) {
	p := DefaultParams()
	res := runBus(t, p, 1)
	stepHours := p.TimeStep.Hours()
	for d, day := range res.Days {
		var energy float64
		for i := d * 96; i < (d+1)*96; i++ {
			energy += res.Table.Value(i, model.TotalLoad) * stepHours
		}
		assert.InDelta(t, day.EnergyDelivered, energy, 1e-6, "day %d", d)
		if day.Unserved == 0 {
			assert.InDelta(t, day.Consumed, day.EnergyDelivered, 1e-6, "day %d", d)
		}
	}
}

func TestSimulatorSinksAndProgress(t *testing.T) {
	p := DefaultParams()
	p.Days = 3
	sink := &recordingSink{}
	store := ledger.NewMemoryStore()
	progress := eventbus.NewProgressBus(16)
	ch := progress.Subscribe()

	res := runBus(t, p, 1, WithSink(sink), WithLedger(store), WithProgress(progress), WithRunID("run-1"))
	assert.Equal(t, "run-1", res.RunID)
	assert.Len(t, sink.days, 3)
	assert.Equal(t, 1, sink.tables)
	assert.Equal(t, "run-1", sink.days[0].RunID)

	recs, err := store.Query("Bus_1", p.StartDate, p.StartDate.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.Greater(t, recs[0].ConsumedKWh, 0.0)

	for i := 1; i <= 3; i++ {
		ev := <-ch
		assert.Equal(t, i, ev.Done)
		assert.Equal(t, 3, ev.Total)
		assert.Equal(t, metrics.SystemBus, ev.System)
	}
}

func TestSimulatorInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.Pumps = 0
	_, err := NewSimulator(p, 1)
	assert.True(t, errors.Is(err, model.ErrInvalidParams))
}

func TestSimulatorCancelled(t *testing.T) {
	sim, err := NewSimulator(DefaultParams(), 1)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sim.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatorGeneratesRunID(t *testing.T) {
	sim, err := NewSimulator(DefaultParams(), 1)
	require.NoError(t, err)
	assert.Len(t, sim.RunID(), 36)
}

type failingLedger struct {
	*ledger.MemoryStore
	calls int
}

func (f *failingLedger) Add(ledger.Record) error {
	f.calls++
	return errors.New("database is locked")
}

func TestSimulatorLedgerFailureStopsRun(t *testing.T) {
	store := &failingLedger{MemoryStore: ledger.NewMemoryStore()}
	sim, err := NewSimulator(DefaultParams(), 1, WithLedger(store))
	require.NoError(t, err)
	res, err := sim.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "ledger 2025-01-06")
	assert.Contains(t, err.Error(), "database is locked")
	assert.Equal(t, 1, store.calls)
}
