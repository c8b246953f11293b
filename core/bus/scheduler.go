package bus

import (
	"time"

	"github.com/kilianp07/fleetload/core/model"
	"github.com/kilianp07/fleetload/internal/queue"
)

// Pump is a shared hydrogen dispenser.
type Pump struct {
	Index         int
	NextAvailable time.Time
	Services      int
}

// Available reports whether the pump may serve at t.
func (p *Pump) Available(t time.Time) bool { return !p.NextAvailable.After(t) }

// Service is one time step of refuelling delivered to a bus.
type Service struct {
	Time   time.Time
	Pump   int
	BusID  string
	Kg     float64
	LoadKW float64
}

// DayOutcome is the result of one day of pump scheduling.
type DayOutcome struct {
	Rows     []model.Row
	Services []Service
	// Unserved buses were still below capacity when the window closed.
	Unserved    []*Bus
	DeficitKg   float64
	DeliveredKg float64
	Pumps       []Pump
}

// PumpScheduler serves a FIFO queue of buses with a fixed pool of pumps.
type PumpScheduler struct {
	params Params
}

// NewPumpScheduler returns a scheduler for validated params.
func NewPumpScheduler(p Params) *PumpScheduler { return &PumpScheduler{params: p} }

// Aggregates returns the aggregate columns of the rows produced by Run.
func (s *PumpScheduler) Aggregates() []string {
	if s.params.ProductionEnergy > 0 {
		return []string{model.TotalLoad, model.DispensingLoad, model.ProductionLoad}
	}
	return []string{model.TotalLoad, model.DispensingLoad}
}

// Run steps through the day of plan and returns one row per time step.
//
// At every step inside the charging window the pumps, in index order, each
// pop the head of the queue if they are available. The bus receives one step
// of hydrogen and the pump rests for the gap. Buses still below capacity go
// back to the tail once all pumps have been visited, so a bus is served at
// most once per step. Outside the window every bus load is zero. Buses left
// in the queue at the end of the window are reported and not carried over.
func (s *PumpScheduler) Run(plan DayPlan) DayOutcome {
	p := s.params
	from, to := p.DayBounds(plan.Date)
	ws, we := p.Window(plan.Date)
	stepHours := p.stepHours()
	withProduction := p.ProductionEnergy > 0

	q := queue.New[*Bus](len(plan.Queue))
	for _, b := range plan.Queue {
		q.PushBack(b)
	}
	out := DayOutcome{Pumps: make([]Pump, p.Pumps)}
	for i := range out.Pumps {
		out.Pumps[i] = Pump{Index: i, NextAvailable: ws}
	}

	index := make(map[string]int, len(plan.Buses))
	for i, b := range plan.Buses {
		index[b.ID()] = i
	}
	served := make([]*Bus, 0, p.Pumps)
	for t := from; t.Before(to); t = t.Add(p.TimeStep) {
		cells := make([]model.Cell, len(plan.Buses))
		for i, b := range plan.Buses {
			cells[i] = model.Cell{Column: b.ID()}
		}
		var dispensing, production float64

		if !t.Before(ws) && t.Before(we) {
			served = served[:0]
			for i := range out.Pumps {
				pump := &out.Pumps[i]
				if !pump.Available(t) || q.Empty() {
					continue
				}
				b, _ := q.PopFront()
				kg := b.Replenish(p.TimeStep)
				d := kg * p.EnergyDensity / stepHours
				var prod float64
				if withProduction {
					prod = kg * p.ProductionEnergy / stepHours
				}
				cells[index[b.ID()]].Value += d + prod
				dispensing += d
				production += prod
				out.DeliveredKg += kg
				out.Services = append(out.Services, Service{Time: t, Pump: i, BusID: b.ID(), Kg: kg, LoadKW: d + prod})
				pump.NextAvailable = t.Add(p.Gap())
				pump.Services++
				served = append(served, b)
			}
			for _, b := range served {
				if b.NeedsReplenishment() {
					q.PushBack(b)
				}
			}
		}

		row := model.Row{Time: t, Agents: cells}
		var total float64
		for _, c := range cells {
			total += c.Value
		}
		row.Aggregates = []float64{total, dispensing}
		if withProduction {
			row.Aggregates = append(row.Aggregates, production)
		}
		out.Rows = append(out.Rows, row)
	}

	out.Unserved = q.Items()
	for _, b := range out.Unserved {
		out.DeficitKg += b.Store().Deficit()
	}
	return out
}
