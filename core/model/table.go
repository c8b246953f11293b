package model

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Standard aggregate column names.
const (
	TotalLoad       = "Total_Load"
	DispensingLoad  = "Dispensing_Load"
	ProductionLoad  = "Production_Load"
	HomeLoad        = "Home_Load"
	WorkLoad        = "Work_Load"
	CategorySuffix  = "_Load"
	TimestampColumn = "Timestamp"
)

// Cell is one agent column value of a row.
type Cell struct {
	Column string
	Value  float64
}

// Row is one time step. Aggregates are aligned with the table aggregate
// columns; missing trailing aggregates read as zero.
type Row struct {
	Time       time.Time
	Agents     []Cell
	Aggregates []float64
}

// Table is a time-indexed load table with a uniform step. Agent columns are
// the union of the agent ids seen, in first-seen order; an agent absent from
// a row reads as zero. Rows cannot be changed once appended.
type Table struct {
	step       time.Duration
	aggregates []string
	aggIdx     map[string]int

	agents   []string
	agentIdx map[string]int

	times  []time.Time
	values [][]float64
	aggs   [][]float64
}

// NewTable returns an empty table with the given step and aggregate columns.
func NewTable(step time.Duration, aggregates ...string) *Table {
	t := &Table{
		step:       step,
		aggregates: append([]string(nil), aggregates...),
		aggIdx:     make(map[string]int, len(aggregates)),
		agentIdx:   map[string]int{},
	}
	for i, a := range aggregates {
		t.aggIdx[a] = i
	}
	return t
}

// Append adds one row.
func (t *Table) Append(r Row) error {
	return t.AppendRows([]Row{r})
}

// AppendRows adds rows atomically: if any timestamp breaks the uniform step
// nothing is appended.
func (t *Table) AppendRows(rows []Row) error {
	if t.step <= 0 {
		return fmt.Errorf("%w: step %v", ErrNonUniform, t.step)
	}
	var prev time.Time
	if n := len(t.times); n > 0 {
		prev = t.times[n-1]
	}
	for i, r := range rows {
		if (len(t.times) > 0 || i > 0) && !r.Time.Equal(prev.Add(t.step)) {
			return fmt.Errorf("%w: row at %s does not follow %s by %s",
				ErrNonUniform, r.Time.Format(time.RFC3339), prev.Format(time.RFC3339), t.step)
		}
		if len(r.Aggregates) > len(t.aggregates) {
			return fmt.Errorf("row at %s has %d aggregates, table has %d",
				r.Time.Format(time.RFC3339), len(r.Aggregates), len(t.aggregates))
		}
		prev = r.Time
	}
	for _, r := range rows {
		vals := make([]float64, len(t.agents), len(t.agents)+len(r.Agents))
		for _, c := range r.Agents {
			idx, ok := t.agentIdx[c.Column]
			if !ok {
				idx = len(t.agents)
				t.agentIdx[c.Column] = idx
				t.agents = append(t.agents, c.Column)
			}
			for len(vals) <= idx {
				vals = append(vals, 0)
			}
			vals[idx] += c.Value
		}
		agg := make([]float64, len(t.aggregates))
		copy(agg, r.Aggregates)
		t.times = append(t.times, r.Time)
		t.values = append(t.values, vals)
		t.aggs = append(t.aggs, agg)
	}
	return nil
}

func (t *Table) Len() int                   { return len(t.times) }
func (t *Table) Step() time.Duration        { return t.step }
func (t *Table) Time(i int) time.Time       { return t.times[i] }
func (t *Table) AgentColumns() []string     { return append([]string(nil), t.agents...) }
func (t *Table) AggregateColumns() []string { return append([]string(nil), t.aggregates...) }

// Columns returns agent columns followed by aggregate columns.
func (t *Table) Columns() []string {
	out := make([]string, 0, len(t.agents)+len(t.aggregates))
	out = append(out, t.agents...)
	return append(out, t.aggregates...)
}

// HasColumn reports whether name is an agent or aggregate column.
func (t *Table) HasColumn(name string) bool {
	if _, ok := t.aggIdx[name]; ok {
		return true
	}
	_, ok := t.agentIdx[name]
	return ok
}

// Value returns the value of column at row i, zero for unknown columns.
func (t *Table) Value(i int, column string) float64 {
	if idx, ok := t.aggIdx[column]; ok {
		return t.aggs[i][idx]
	}
	if idx, ok := t.agentIdx[column]; ok && idx < len(t.values[i]) {
		return t.values[i][idx]
	}
	return 0
}

// AgentTotal sums every agent column of row i.
func (t *Table) AgentTotal(i int) float64 {
	return floats.Sum(t.values[i])
}

// Column returns a copy of one column over all rows.
func (t *Table) Column(name string) []float64 {
	out := make([]float64, len(t.times))
	for i := range out {
		out[i] = t.Value(i, name)
	}
	return out
}

// Peak returns the maximum of a column and the row it occurs at, or (0, -1)
// for an empty table.
func (t *Table) Peak(column string) (float64, int) {
	if len(t.times) == 0 {
		return 0, -1
	}
	col := t.Column(column)
	idx := floats.MaxIdx(col)
	return col[idx], idx
}

// Row returns a copy of row i.
func (t *Table) Row(i int) Row {
	r := Row{Time: t.times[i], Aggregates: append([]float64(nil), t.aggs[i]...)}
	for idx, v := range t.values[i] {
		r.Agents = append(r.Agents, Cell{Column: t.agents[idx], Value: v})
	}
	return r
}
