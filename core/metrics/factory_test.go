package metrics_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetload/core/factory"
	metrics "github.com/kilianp07/fleetload/core/metrics"
	_ "github.com/kilianp07/fleetload/infra/metrics"
)

func TestSinkTypesIncludeBuiltins(t *testing.T) {
	types := metrics.SinkTypes()
	for _, want := range []string{"nop", "prometheus", "influx", "jsonl"} {
		assert.Contains(t, types, want)
	}
}

func TestNewMetricsSinkCardinality(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok)
	assert.Len(t, m.Sinks, 2)
}

func TestNewMetricsSinkFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "days.jsonl")
	data := `sinks:
  - type: nop
  - type: jsonl
    conf:
      path: ` + path + `
`
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte(data), &cfg))
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok)
	require.Len(t, m.Sinks, 2)
	if c, ok := m.Sinks[1].(interface{ Close() }); ok {
		c.Close()
	}
}

func TestNewMetricsSinkUnknownType(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"type":"nop"},{"type":"missing"}]}`), &cfg))
	_, err := metrics.NewMetricsSink(cfg.Sinks)
	require.ErrorIs(t, err, factory.ErrUnknownType)
	assert.Contains(t, err.Error(), "sink 1 (missing)")
}
