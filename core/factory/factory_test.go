package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pump struct{ Flow float64 }

type pumpConf struct {
	Flow    float64       `json:"flow_rate_kg_min"`
	Topic   string        `json:"topic"`
	Timeout time.Duration `json:"timeout"`
}

func pumpFactory(conf map[string]any) (*pump, error) {
	var c pumpConf
	if err := Decode(conf, &c); err != nil {
		return nil, err
	}
	return &pump{Flow: c.Flow}, nil
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*pump]()
	require.NoError(t, reg.Register("h2", pumpFactory))

	inst, err := reg.Create(ModuleConfig{Type: "h2", Conf: map[string]any{"flow_rate_kg_min": 4.5}})
	require.NoError(t, err)
	assert.Equal(t, 4.5, inst.Flow)
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("z", nil), "nil factory")
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }), "duplicate")

	_, err := reg.Create(ModuleConfig{Type: "y"})
	require.ErrorIs(t, err, ErrUnknownType)
	assert.Contains(t, err.Error(), "known: x")
}

func TestRegistryTypesSorted(t *testing.T) {
	reg := NewRegistry[int]()
	for _, name := range []string{"mqtt", "influx", "nop"} {
		require.NoError(t, reg.Register(name, func(map[string]any) (int, error) { return 0, nil }))
	}
	assert.Equal(t, []string{"influx", "mqtt", "nop"}, reg.Types())
}

func TestDecodeWeakTypes(t *testing.T) {
	var c pumpConf
	require.NoError(t, Decode(map[string]any{"flow_rate_kg_min": "7", "topic": "fleet/days", "timeout": "5s"}, &c))
	assert.Equal(t, 7.0, c.Flow)
	assert.Equal(t, "fleet/days", c.Topic)
	assert.Equal(t, 5*time.Second, c.Timeout)
}
