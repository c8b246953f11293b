package eventbus

import "time"

// Progress reports that a simulator finished one day of its horizon.
type Progress struct {
	RunID  string
	System string
	Scope  string
	Date   time.Time
	Done   int
	Total  int
	// Warmup is set for stabilisation days that are not part of the output.
	Warmup bool
}

// Fraction returns Done/Total in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total)
}

// ProgressBus carries simulator progress.
type ProgressBus = TypedBus[Progress]

// NewProgressBus returns a bus sized for buffer outstanding events per subscriber.
func NewProgressBus(buffer int) *ProgressBus { return NewTypedBuffered[Progress](buffer) }
