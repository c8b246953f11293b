package bus

import (
	"fmt"
	"time"

	"github.com/kilianp07/fleetload/core/calendar"
	"github.com/kilianp07/fleetload/core/model"
	"github.com/kilianp07/fleetload/internal/stochastic"
)

// Bus is a hydrogen bus. Its tank is measured in kg.
type Bus struct {
	id          string
	trips       int
	kmPerTrip   int
	energyPerKm model.Distribution
	density     float64
	flowRate    float64
	store       *model.EnergyStore
	rng         *stochastic.Sampler
}

// NewBus returns a bus with a full tank.
func NewBus(id string, trips int, p Params, rng *stochastic.Sampler) *Bus {
	store, err := model.NewEnergyStore(p.FuelCapacity, p.FuelCapacity)
	if err != nil {
		// Params are validated before any bus is built.
		panic(err)
	}
	return &Bus{
		id:          id,
		trips:       trips,
		kmPerTrip:   p.KmPerTrip,
		energyPerKm: p.EnergyPerKm,
		density:     p.EnergyDensity,
		flowRate:    p.FlowRate,
		store:       store,
		rng:         rng,
	}
}

// BusID returns the identifier of the i-th bus, counting from zero.
func BusID(i int) string { return fmt.Sprintf("Bus_%d", i+1) }

func (b *Bus) ID() string                { return b.id }
func (b *Bus) Category() string          { return Category }
func (b *Bus) Trips() int                { return b.trips }
func (b *Bus) Store() *model.EnergyStore { return b.store }

// Drive starts from a full tank and runs the bus's trips. Every km draws its
// own consumption, clamped at zero. It returns the kWh consumed.
func (b *Bus) Drive(_ calendar.DayType, _ time.Time) float64 {
	b.store.Reset()
	var kwh float64
	for t := 0; t < b.trips; t++ {
		var trip float64
		for km := 0; km < b.kmPerTrip; km++ {
			trip += b.rng.NonNegNormal(b.energyPerKm.Mean, b.energyPerKm.Std)
		}
		b.store.Deplete(trip / b.density)
		kwh += trip
	}
	return kwh
}

// NeedsReplenishment reports whether the tank is below capacity.
func (b *Bus) NeedsReplenishment() bool { return !b.store.Full() }

// Replenish adds flow rate × dt of hydrogen, capped at capacity, and returns
// the kg actually added.
func (b *Bus) Replenish(dt time.Duration) float64 {
	return b.store.Add(b.flowRate * dt.Minutes())
}

var _ model.Agent = (*Bus)(nil)
