package collector

import (
	"slices"
	"sync"
	"time"

	"qsim/internal/core"
)

// Snapshot is a point-in-time view of collected runs, cheap enough to take every tick.
type Snapshot struct {
	Completed  int
	Failed     int
	Events     int
	Inversions int
	Elapsed    time.Duration
}

// Collector aggregates run records from concurrent workers.
type Collector struct {
	records []Record
	ch      chan Record
	done    chan struct{}
	mu      sync.Mutex
	snap    Snapshot
	clock   core.Clock
	start   time.Time
	end     time.Time
}

// NewCollector creates a Collector and starts its collection goroutine.
func NewCollector() *Collector {
	return NewCollectorWithClock(core.SystemClock{})
}

// NewCollectorWithClock is NewCollector with an injected wall clock.
func NewCollectorWithClock(clock core.Clock) *Collector {
	c := &Collector{
		records: make([]Record, 0),
		ch:      make(chan Record, 256),
		done:    make(chan struct{}),
		clock:   clock,
		start:   clock.Now(),
	}
	go c.collect()
	return c
}

func (c *Collector) collect() {
	for rec := range c.ch {
		c.mu.Lock()
		c.records = append(c.records, rec)
		c.snap.Completed++
		if rec.Failed() {
			c.snap.Failed++
		}
		c.snap.Events += rec.Events
		c.snap.Inversions += rec.Inversions
		c.mu.Unlock()
	}
	close(c.done)
}

// Report hands a record to the collector. Safe for concurrent use; blocks
// while the buffer is full so no run is ever lost.
func (c *Collector) Report(rec Record) {
	c.ch <- rec
}

// Close stops accepting records and waits for the pending ones.
func (c *Collector) Close() {
	c.mu.Lock()
	c.end = c.clock.Now()
	c.mu.Unlock()
	close(c.ch)
	<-c.done
}

// Records returns a copy of the collected records ordered by run index.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b Record) int { return a.Index - b.Index })
	return out
}

// Snapshot returns the running totals.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	s.Elapsed = c.elapsedLocked()
	return s
}

// Duration is the wall time from creation to Close, or to now while still open.
func (c *Collector) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsedLocked()
}

func (c *Collector) elapsedLocked() time.Duration {
	if !c.end.IsZero() {
		return c.end.Sub(c.start)
	}
	return c.clock.Now().Sub(c.start)
}
