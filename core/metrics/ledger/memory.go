package ledger

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore stores records in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[time.Time]*Record{}}
}

// Add inserts or updates the record aggregated by day and agent.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.AgentID] == nil {
		s.data[r.AgentID] = map[time.Time]*Record{}
	}
	d := Day(r.Date)
	rec := s.data[r.AgentID][d]
	if rec == nil {
		rec = &Record{AgentID: r.AgentID, Date: d}
		s.data[r.AgentID][d] = rec
	}
	rec.ConsumedKWh += r.ConsumedKWh
	rec.DeliveredKWh += r.DeliveredKWh
	return nil
}

// Query returns records between start and end inclusive.
func (s *MemoryStore) Query(agentID string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start = Day(start)
	end = Day(end)
	var res []Record
	for d, r := range s.data[agentID] {
		if d.Before(start) || d.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}

// All returns every record ordered by date then agent id.
func (s *MemoryStore) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Record
	for _, days := range s.data {
		for _, r := range days {
			res = append(res, *r)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.Before(res[j].Date)
		}
		return res[i].AgentID < res[j].AgentID
	})
	return res, nil
}
