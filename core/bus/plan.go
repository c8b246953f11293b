package bus

import (
	"time"

	"github.com/kilianp07/fleetload/core/calendar"
	"github.com/kilianp07/fleetload/internal/stochastic"
)

// DistributeTrips spreads total trips over count buses. Each bus gets
// total/count trips and the first total%count buses, by index, get one more.
func DistributeTrips(total, count int) []int {
	if count <= 0 {
		return nil
	}
	base, extra := total/count, total%count
	out := make([]int, count)
	for i := range out {
		out[i] = base
		if i < extra {
			out[i]++
		}
	}
	return out
}

// DayPlan is the fleet of one day after driving.
type DayPlan struct {
	Date    time.Time
	DayType calendar.DayType
	Buses   []*Bus
	// Queue holds, in index order, the buses that need hydrogen.
	Queue       []*Bus
	ConsumedKWh float64
	// Consumption per bus id, in kWh.
	Consumption map[string]float64
}

// PlanDay classifies date, builds that day's buses and drives them in index
// order. Sundays and holidays plan no bus.
func PlanDay(p Params, date time.Time, rng *stochastic.Sampler) DayPlan {
	date = calendar.DayStart(date)
	dt := p.calendar().Classify(date)
	plan := DayPlan{Date: date, DayType: dt, Consumption: map[string]float64{}}
	count, trips := p.Fleet(dt)
	for i, n := range DistributeTrips(trips, count) {
		b := NewBus(BusID(i), n, p, rng)
		kwh := b.Drive(dt, date)
		plan.Buses = append(plan.Buses, b)
		plan.Consumption[b.ID()] = kwh
		plan.ConsumedKWh += kwh
		if b.NeedsReplenishment() {
			plan.Queue = append(plan.Queue, b)
		}
	}
	return plan
}
