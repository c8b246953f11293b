package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 6, 5, 0, 0, 0, time.UTC)

func TestTableUnionColumns(t *testing.T) {
	tbl := NewTable(15*time.Minute, TotalLoad)
	require.NoError(t, tbl.AppendRows([]Row{
		{Time: t0, Agents: []Cell{{"Bus_1", 1}, {"Bus_2", 2}}, Aggregates: []float64{3}},
		{Time: t0.Add(15 * time.Minute), Agents: []Cell{{"Bus_3", 4}}, Aggregates: []float64{4}},
	}))
	assert.Equal(t, []string{"Bus_1", "Bus_2", "Bus_3", TotalLoad}, tbl.Columns())
	assert.Equal(t, 0.0, tbl.Value(0, "Bus_3"))
	assert.Equal(t, 0.0, tbl.Value(1, "Bus_1"))
	assert.Equal(t, 4.0, tbl.Value(1, "Bus_3"))
	assert.Equal(t, 3.0, tbl.AgentTotal(0))
	assert.Equal(t, []float64{3, 4}, tbl.Column(TotalLoad))
	assert.True(t, tbl.HasColumn("Bus_2"))
	assert.False(t, tbl.HasColumn("Bus_9"))
	assert.Equal(t, 0.0, tbl.Value(0, "unknown"))
}

func TestTableRejectsNonUniform(t *testing.T) {
	tbl := NewTable(10*time.Minute, TotalLoad)
	require.NoError(t, tbl.Append(Row{Time: t0}))
	err := tbl.AppendRows([]Row{
		{Time: t0.Add(10 * time.Minute)},
		{Time: t0.Add(25 * time.Minute)},
	})
	assert.ErrorIs(t, err, ErrNonUniform)
	assert.Equal(t, 1, tbl.Len(), "failed append must not be partial")

	err = tbl.Append(Row{Time: t0})
	assert.ErrorIs(t, err, ErrNonUniform)
}

func TestTableTooManyAggregates(t *testing.T) {
	tbl := NewTable(time.Minute, TotalLoad)
	assert.Error(t, tbl.Append(Row{Time: t0, Aggregates: []float64{1, 2}}))
}

func TestTablePeakAndRow(t *testing.T) {
	tbl := NewTable(time.Hour, TotalLoad)
	_, idx := tbl.Peak(TotalLoad)
	assert.Equal(t, -1, idx)

	for i, v := range []float64{1, 5, 2} {
		require.NoError(t, tbl.Append(Row{
			Time:       t0.Add(time.Duration(i) * time.Hour),
			Agents:     []Cell{{"a", v}},
			Aggregates: []float64{v},
		}))
	}
	peak, idx := tbl.Peak(TotalLoad)
	assert.Equal(t, 5.0, peak)
	assert.Equal(t, 1, idx)

	r := tbl.Row(1)
	r.Aggregates[0] = 99
	assert.Equal(t, 5.0, tbl.Value(1, TotalLoad), "Row must return a copy")
	assert.Equal(t, []Cell{{"a", 5}}, r.Agents)
}
