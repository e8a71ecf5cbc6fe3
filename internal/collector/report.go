package collector

import "time"

// Report is everything a formatter needs about a finished sweep.
type Report struct {
	Records    []Record
	Series     []Series
	Duration   time.Duration
	Thresholds *ThresholdResults
}

// NewReport groups records into series and evaluates thresholds (nil thresholds pass).
func NewReport(records []Record, wall time.Duration, thresholds *Thresholds) *Report {
	return &Report{
		Records:    records,
		Series:     BuildSeries(records),
		Duration:   wall,
		Thresholds: thresholds.Check(records),
	}
}

// Failed counts runs without a result.
func (r *Report) Failed() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Failed() {
			n++
		}
	}
	return n
}

// Events sums generated events over every run.
func (r *Report) Events() int {
	n := 0
	for _, rec := range r.Records {
		n += rec.Events
	}
	return n
}

// Inversions sums departure-order inversions over every run.
func (r *Report) Inversions() int {
	n := 0
	for _, rec := range r.Records {
		n += rec.Inversions
	}
	return n
}
