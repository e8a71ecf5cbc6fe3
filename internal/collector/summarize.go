// Package collector turns event streams into queue metrics and aggregates sweep results.
package collector

import (
	"fmt"
	"math"

	"qsim/internal/core"
)

// precision is the number of decimals kept in reported statistics.
const precision = 5

// Result holds the metrics of one run. Secondary is the idle probability in
// percent for an unbounded buffer, or the loss probability in percent for a
// finite one; exactly one of the two is ever computed.
type Result struct {
	Capacity      core.Capacity
	MeanOccupancy float64
	Secondary     float64

	Observers  int
	Samples    int // idle samples (unbounded) or loss samples (finite)
	Arrivals   int
	Departures int
}

// Finite reports whether the result carries a loss probability.
func (r Result) Finite() bool {
	return r.Capacity.Finite()
}

// IdleProbability returns P_idle in percent; ok is false for finite buffers.
func (r Result) IdleProbability() (float64, bool) {
	if r.Finite() {
		return 0, false
	}
	return r.Secondary, true
}

// LossProbability returns P_loss in percent; ok is false for unbounded buffers.
func (r Result) LossProbability() (float64, bool) {
	if !r.Finite() {
		return 0, false
	}
	return r.Secondary, true
}

// SecondaryName labels Secondary for reports.
func (r Result) SecondaryName() string {
	return secondaryName(r.Capacity)
}

func secondaryName(c core.Capacity) string {
	if c.Finite() {
		return "p_loss"
	}
	return "p_idle"
}

// Summarize replays events and samples the queue length at every observer
// event before horizon. Pure function.
//
// Occupancy is arrivals minus departures seen so far. With a finite capacity an
// occupancy above K counts as a loss sample and contributes K to the mean;
// without one, an empty queue counts as an idle sample.
func Summarize(events []core.Event, horizon float64, capacity core.Capacity) (Result, error) {
	if !(horizon >= 0) {
		return Result{}, fmt.Errorf("%w: horizon %v must be non-negative", core.ErrInvalidParameter, horizon)
	}
	if capacity < core.Unbounded {
		return Result{}, fmt.Errorf("%w: capacity %d must be -1 (unbounded) or >= 0", core.ErrInvalidParameter, capacity)
	}

	r := Result{Capacity: capacity}
	var occupancySum int64

	for _, e := range events {
		if e.Time >= horizon {
			continue
		}
		switch e.Kind {
		case core.Arrival:
			r.Arrivals++
		case core.Departure:
			r.Departures++
		case core.Observer:
			r.Observers++
			n := r.Arrivals - r.Departures
			if capacity.Finite() {
				if n > int(capacity) {
					r.Samples++
					occupancySum += int64(capacity)
				} else {
					occupancySum += int64(n)
				}
			} else {
				occupancySum += int64(n)
				if n == 0 {
					r.Samples++
				}
			}
		}
	}

	if r.Observers == 0 {
		return r, fmt.Errorf("%w (horizon %v)", core.ErrDegenerateRun, horizon)
	}

	observers := float64(r.Observers)
	r.MeanOccupancy = round(float64(occupancySum) / observers)
	r.Secondary = round(100 * float64(r.Samples) / observers)
	return r, nil
}

func round(x float64) float64 {
	scale := math.Pow10(precision)
	return math.Round(x*scale) / scale
}
