package collector

import (
	"sync"
	"testing"
	"time"

	"qsim/internal/core"
)

func TestCollector_CollectsRecords(t *testing.T) {
	c := NewCollector()
	c.Report(Record{Index: 1, Events: 10})
	c.Report(Record{Index: 0, Events: 5, Inversions: 2})
	c.Report(Record{Index: 2, Error: "boom"})
	c.Close()

	records := c.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, r := range records {
		if r.Index != i {
			t.Errorf("records not ordered by index: position %d holds %d", i, r.Index)
		}
	}

	s := c.Snapshot()
	if s.Completed != 3 || s.Failed != 1 || s.Events != 15 || s.Inversions != 2 {
		t.Errorf("unexpected snapshot %+v", s)
	}
}

func TestCollector_ThreadSafety(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	workers, perWorker := 50, 40

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				c.Report(Record{Index: w*perWorker + i, Events: 1})
			}
		}(w)
	}
	wg.Wait()
	c.Close()

	if got := len(c.Records()); got != workers*perWorker {
		t.Errorf("expected %d records, got %d", workers*perWorker, got)
	}
	if got := c.Snapshot().Events; got != workers*perWorker {
		t.Errorf("expected %d events, got %d", workers*perWorker, got)
	}
}

func TestCollector_Duration(t *testing.T) {
	clock := core.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewCollectorWithClock(clock)

	clock.Advance(3 * time.Second)
	if d := c.Duration(); d != 3*time.Second {
		t.Errorf("expected 3s while open, got %v", d)
	}

	c.Close()
	clock.Advance(time.Hour)
	if d := c.Duration(); d != 3*time.Second {
		t.Errorf("expected duration frozen at Close, got %v", d)
	}
}
