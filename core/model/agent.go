package model

import (
	"fmt"
	"time"

	"github.com/kilianp07/fleetload/core/calendar"
)

// Agent is a mobile energy consumer: a bus or a vehicle.
type Agent interface {
	ID() string
	Category() string
	// Drive depletes the store for one operating day and returns the
	// energy consumed in kWh.
	Drive(day calendar.DayType, date time.Time) float64
	NeedsReplenishment() bool
	// Replenish adds one service period worth of energy and returns the
	// amount actually stored.
	Replenish(dt time.Duration) float64
	Store() *EnergyStore
}

// Distribution is a normal distribution given by its mean and standard
// deviation.
type Distribution struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
}

// Validate rejects a negative standard deviation.
func (d Distribution) Validate(name string) error {
	if d.Std < 0 {
		return fmt.Errorf("%w: %s std must be >= 0, got %v", ErrInvalidParams, name, d.Std)
	}
	return nil
}
