package ev

import (
	"fmt"
	"time"

	"github.com/kilianp07/fleetload/core/model"
)

// Resample bins events into a uniform table of average power. Bins are
// anchored at from and span at least [from, to) plus every event; the energy
// of an event goes to the bin holding its start. A bin's power is the energy
// of the bin divided by the bin length in hours. key picks the column of an
// event; events whose column is not listed only count toward Total_Load.
func Resample(events []Event, from, to time.Time, interval time.Duration, columns []string, key func(Event) string) (*model.Table, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: resample interval %s", model.ErrInvalidParams, interval)
	}
	first, last := from, to
	for _, e := range events {
		if e.Time.Before(first) {
			first = e.Time
		}
		if e.End().After(last) {
			last = e.End()
		}
	}
	first = from.Add(binIndex(first.Sub(from), interval) * interval)
	n := int(binIndex(last.Sub(first)-1, interval)) + 1
	if !last.After(first) {
		n = 0
	}

	colIdx := make(map[string]int, len(columns))
	for i, c := range columns {
		colIdx[c] = i
	}
	total := len(columns)
	bins := make([][]float64, n)
	for i := range bins {
		bins[i] = make([]float64, total+1)
	}
	for _, e := range events {
		b := bins[binIndex(e.Time.Sub(first), interval)]
		if i, ok := colIdx[key(e)]; ok {
			b[i] += e.EnergyKWh
		}
		b[total] += e.EnergyKWh
	}

	hours := interval.Hours()
	tbl := model.NewTable(interval, append(append([]string(nil), columns...), model.TotalLoad)...)
	rows := make([]model.Row, n)
	for i, b := range bins {
		for j := range b {
			b[j] /= hours
		}
		rows[i] = model.Row{Time: first.Add(time.Duration(i) * interval), Aggregates: b}
	}
	if err := tbl.AppendRows(rows); err != nil {
		return nil, err
	}
	return tbl, nil
}

// binIndex is floor(d / interval), also for negative d.
func binIndex(d, interval time.Duration) time.Duration {
	q := d / interval
	if d%interval < 0 {
		q--
	}
	return q
}

// ByCategory keys events by vehicle type column.
func ByCategory(e Event) string { return e.Column }

// ByLocation keys events by location column.
func ByLocation(e Event) string { return e.Location.LoadColumn() }
