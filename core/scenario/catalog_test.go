package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetload/core/ev"
	"github.com/kilianp07/fleetload/core/model"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Len(t, c.Scenarios, 3)
	assert.Len(t, c.Substations, 7)
	assert.Equal(t, "Tipaerui", c.Substations[0].Name)

	var total float64
	for _, s := range c.WorkShares() {
		total += s
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	low, ok := c.Scenario("low")
	require.True(t, ok)
	assert.Equal(t, 752, low.Fleets["Tipaerui"]["PHEV"])
}

func TestCatalogParams(t *testing.T) {
	c := DefaultCatalog()
	sc, _ := c.Scenario("mid")
	p := c.Params(ev.DefaultParams(), sc, c.Substations[4])
	assert.Equal(t, "Taravao", c.Substations[4].Name)
	assert.Equal(t, model.Distribution{Mean: 60, Std: 20}, p.WeekdayDistance)
	assert.Equal(t, 195, p.VehicleTypes[0].Count)
	assert.Equal(t, "BEV_Load", p.VehicleTypes[0].LoadColumn())
	assert.Equal(t, "Two_Wheeler_Load", p.VehicleTypes[3].LoadColumn())
	assert.NoError(t, p.Validate())
}

func TestDecodeCatalogErrors(t *testing.T) {
	cases := map[string]string{
		"unknown field": "vehicle_types: []\nfoo: 1\n",
		"no types":      "vehicle_types: []\n",
		"unknown sub": `
vehicle_types: [{name: EV, battery_kwh: 50, consumption_kwh_per_km: 0.1}]
substations: [{name: A}]
scenarios: [{name: low, fleets: {B: {EV: 1}}}]
`,
		"unknown type": `
vehicle_types: [{name: EV, battery_kwh: 50, consumption_kwh_per_km: 0.1}]
substations: [{name: A}]
scenarios: [{name: low, fleets: {A: {PHEV: 1}}}]
`,
		"shares above one": `
vehicle_types: [{name: EV, battery_kwh: 50, consumption_kwh_per_km: 0.1}]
substations: [{name: A, work_share: 0.7}, {name: B, work_share: 0.7}]
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCatalog(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, tahiti, 0o600))
	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, c.VehicleTypes, 4)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
