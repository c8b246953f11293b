package model

import (
	"fmt"
	"math"
)

// EnergyStore is the reservoir of an agent, in kg of hydrogen or kWh.
// The level always stays within [0, capacity].
type EnergyStore struct {
	capacity float64
	level    float64
}

// NewEnergyStore returns a store holding level clamped to [0, capacity].
func NewEnergyStore(capacity, level float64) (*EnergyStore, error) {
	if capacity <= 0 || math.IsNaN(capacity) || math.IsInf(capacity, 0) {
		return nil, fmt.Errorf("%w: capacity must be positive, got %v", ErrInvalidParams, capacity)
	}
	s := &EnergyStore{capacity: capacity}
	s.Set(level)
	return s, nil
}

func (s *EnergyStore) Capacity() float64 { return s.capacity }
func (s *EnergyStore) Level() float64    { return s.level }

// Deficit is the amount needed to be full.
func (s *EnergyStore) Deficit() float64 { return s.capacity - s.level }

// Full reports whether the level reached capacity.
func (s *EnergyStore) Full() bool { return s.level >= s.capacity }

// Fraction returns the state of charge in [0, 1].
func (s *EnergyStore) Fraction() float64 { return s.level / s.capacity }

// Set replaces the level, clamped.
func (s *EnergyStore) Set(level float64) {
	s.level = clamp(level, 0, s.capacity)
}

// Reset refills the store.
func (s *EnergyStore) Reset() { s.level = s.capacity }

// Deplete removes up to amount and returns what was actually removed.
// Negative amounts are ignored.
func (s *EnergyStore) Deplete(amount float64) float64 {
	if !(amount > 0) {
		return 0
	}
	before := s.level
	s.level = clamp(s.level-amount, 0, s.capacity)
	return before - s.level
}

// Add stores up to amount and returns what was actually added.
// Negative amounts are ignored.
func (s *EnergyStore) Add(amount float64) float64 {
	if !(amount > 0) {
		return 0
	}
	before := s.level
	s.level = clamp(s.level+amount, 0, s.capacity)
	return s.level - before
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
