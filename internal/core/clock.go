package core

import "time"

// Clock supplies wall time for run timing and progress display.
// Simulated time never goes through a Clock; it is plain float64 seconds.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to.
type ManualClock struct {
	current time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{current: start}
}

func (m *ManualClock) Now() time.Time          { return m.current }
func (m *ManualClock) Advance(d time.Duration) { m.current = m.current.Add(d) }
