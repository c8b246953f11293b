package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetload/core/calendar"
	"github.com/kilianp07/fleetload/core/model"
	"github.com/kilianp07/fleetload/internal/stochastic"
)

var monday = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

// scenarioParams is the two bus, one pump fleet with deterministic consumption.
func scenarioParams() Params {
	p := DefaultParams()
	p.WeekdayBuses, p.WeekdayTrips = 2, 10
	p.SaturdayBuses, p.SaturdayTrips = 2, 10
	p.KmPerTrip = 10
	p.EnergyPerKm = model.Distribution{Mean: 1.0, Std: 0}
	p.FuelCapacity = 10
	p.FlowRate = 5
	p.Pumps = 1
	p.TimeStep = 15 * time.Minute
	p.GapSteps = 1
	p.StartDate = monday
	p.Days = 1
	return p
}

func TestDistributeTrips(t *testing.T) {
	trips := DistributeTrips(83, 10)
	require.Len(t, trips, 10)
	nine, eight := 0, 0
	for i, n := range trips {
		switch n {
		case 9:
			nine++
			assert.Less(t, i, 3, "extra trips go to the first buses")
		case 8:
			eight++
		default:
			t.Fatalf("unexpected trip count %d", n)
		}
	}
	assert.Equal(t, 3, nine)
	assert.Equal(t, 7, eight)

	assert.Equal(t, []int{0, 0}, DistributeTrips(0, 2))
	assert.Equal(t, []int{1, 1, 0}, DistributeTrips(2, 3))
	assert.Nil(t, DistributeTrips(5, 0))
}

func TestBusDriveDeterministicConsumption(t *testing.T) {
	p := scenarioParams()
	b := NewBus("Bus_1", 5, p, stochastic.New(1))
	kwh := b.Drive(calendar.Weekday, monday)
	assert.InDelta(t, 50.0, kwh, 1e-9)
	assert.InDelta(t, 10-50/DefaultEnergyDensity, b.Store().Level(), 1e-9)
	assert.True(t, b.NeedsReplenishment())

	added := b.Replenish(15 * time.Minute)
	assert.InDelta(t, 50/DefaultEnergyDensity, added, 1e-9, "capped at the deficit")
	assert.False(t, b.NeedsReplenishment())
	assert.Equal(t, 0.0, b.Replenish(15*time.Minute))
}

func TestBusDriveClampsAtEmpty(t *testing.T) {
	p := scenarioParams()
	p.EnergyPerKm = model.Distribution{Mean: 100, Std: 50}
	b := NewBus("Bus_1", 20, p, stochastic.New(3))
	kwh := b.Drive(calendar.Weekday, monday)
	assert.Greater(t, kwh, 0.0)
	assert.Equal(t, 0.0, b.Store().Level())
}

func TestBusDriveNegativeDrawsClamped(t *testing.T) {
	p := scenarioParams()
	p.EnergyPerKm = model.Distribution{Mean: -5, Std: 0.1}
	b := NewBus("Bus_1", 4, p, stochastic.New(3))
	assert.Equal(t, 0.0, b.Drive(calendar.Weekday, monday))
	assert.Equal(t, p.FuelCapacity, b.Store().Level())
	assert.False(t, b.NeedsReplenishment())
}

func TestPlanDayFleetByDayType(t *testing.T) {
	p := DefaultParams()
	rng := stochastic.New(7)

	wd := PlanDay(p, monday, rng)
	assert.Equal(t, calendar.Weekday, wd.DayType)
	assert.Len(t, wd.Buses, p.WeekdayBuses)
	assert.Equal(t, "Bus_1", wd.Buses[0].ID())
	assert.Equal(t, 8, wd.Buses[0].Trips())

	sat := PlanDay(p, monday.AddDate(0, 0, 5), rng)
	assert.Equal(t, calendar.Saturday, sat.DayType)
	assert.Len(t, sat.Buses, p.SaturdayBuses)

	sun := PlanDay(p, monday.AddDate(0, 0, 6), rng)
	assert.Equal(t, calendar.SundayHoliday, sun.DayType)
	assert.Empty(t, sun.Buses)
	assert.Empty(t, sun.Queue)
}

func TestPlanDayHoliday(t *testing.T) {
	p := DefaultParams()
	cal, err := calendar.New("pf", nil)
	require.NoError(t, err)
	p.Calendar = cal
	// Monday 14 July 2025.
	plan := PlanDay(p, time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC), stochastic.New(1))
	assert.Equal(t, calendar.SundayHoliday, plan.DayType)
	assert.Empty(t, plan.Buses)
}
