// Package ledger keeps per-agent daily energy balances: how much an agent
// consumed driving and how much it received from pumps or chargers.
package ledger

import "time"

// Record aggregates the energy flows of one agent on one day.
type Record struct {
	AgentID      string    `json:"agent_id"`
	Date         time.Time `json:"date"`
	ConsumedKWh  float64   `json:"consumed_kwh"`
	DeliveredKWh float64   `json:"delivered_kwh"`
}

// Coverage returns the ratio of delivered to consumed energy.
func (r Record) Coverage() float64 {
	if r.ConsumedKWh == 0 {
		if r.DeliveredKWh == 0 {
			return 0
		}
		return r.DeliveredKWh
	}
	return r.DeliveredKWh / r.ConsumedKWh
}

// Store persists ledger records.
type Store interface {
	Add(Record) error
	Query(agentID string, start, end time.Time) ([]Record, error)
	All() ([]Record, error)
}

// Day aligns t to the start of its calendar day in t's location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
