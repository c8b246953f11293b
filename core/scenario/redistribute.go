package scenario

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/fleetload/core/model"
)

// RedistributeWork re-shares workplace charging between the substations of a
// scenario. The Work_Load energy of all substations is pooled; a substation
// with a share gets share × pool, by scaling its own Work_Load series, and
// Total_Load is recomputed. Substations without a share keep their table.
func RedistributeWork(subs []SubstationResult, shares map[string]float64) error {
	work := make([]float64, len(subs))
	var pool float64
	for i, s := range subs {
		work[i] = floats.Sum(s.Result.ByLocation.Column(model.WorkLoad))
		pool += work[i]
	}
	for i := range subs {
		s := &subs[i]
		share, ok := shares[s.Substation]
		if !ok {
			s.Redistributed, s.WorkScale = s.Result.ByLocation, 1
			continue
		}
		scale := 0.0
		if work[i] != 0 {
			scale = pool * share / work[i]
		}
		t, err := scaleWork(s.Result.ByLocation, scale)
		if err != nil {
			return err
		}
		s.Redistributed, s.WorkScale = t, scale
	}
	return nil
}

// scaleWork returns a copy of a location table with Work_Load multiplied by
// scale and Total_Load rebuilt from the location columns.
func scaleWork(t *model.Table, scale float64) (*model.Table, error) {
	aggs := t.AggregateColumns()
	work, total := -1, -1
	for i, c := range aggs {
		switch c {
		case model.WorkLoad:
			work = i
		case model.TotalLoad:
			total = i
		}
	}
	out := model.NewTable(t.Step(), aggs...)
	rows := make([]model.Row, t.Len())
	for i := range rows {
		r := t.Row(i)
		if work >= 0 {
			r.Aggregates[work] *= scale
		}
		if total >= 0 {
			var sum float64
			for j, v := range r.Aggregates {
				if j != total {
					sum += v
				}
			}
			r.Aggregates[total] = sum
		}
		rows[i] = r
	}
	if err := out.AppendRows(rows); err != nil {
		return nil, err
	}
	return out, nil
}
