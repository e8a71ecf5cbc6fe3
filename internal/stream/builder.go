// Package stream builds the merged, time-ordered event stream of one run.
package stream

import (
	"slices"

	"qsim/internal/core"
	"qsim/internal/variate"
)

// Stream is the merged event sequence of one run plus what was counted while building it.
type Stream struct {
	Events     []core.Event
	Arrivals   int
	Departures int
	Observers  int

	// DepartureInversions counts packets whose departure precedes the previous
	// packet's departure. They are reported, never corrected.
	DepartureInversions int
}

// Build generates arrivals, their departures and the observer probes over
// [0, params.Horizon] and merges them into one ascending sequence.
//
// Each packet's departure follows the single-server rule: with the running
// queue counter at zero the packet is served on arrival, otherwise it starts
// when the previous packet departs. A departure that would precede its own
// arrival is moved to arrival + service.
func Build(params core.Params, src variate.Source) (*Stream, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	lambda := params.Lambda()
	mu := params.ServiceRate()
	horizon := params.Horizon

	var (
		arrivals   []float64
		departures []float64
		queueLen   int
		clock      float64
	)
	for clock < horizon {
		gap := variate.Exponential(src, lambda)
		service := variate.Exponential(src, mu)
		clock += gap

		if n := len(departures); n > 0 {
			if clock < departures[n-1] {
				queueLen++
			} else {
				queueLen--
			}
		}

		var departure float64
		if queueLen == 0 {
			departure = clock + service
		} else {
			departure = departures[len(departures)-1] + service
		}
		if clock > departure {
			departure = clock + service
		}

		arrivals = append(arrivals, clock)
		departures = append(departures, departure)
	}

	observers := observerTimes(params.ObserverRate(), horizon, src)

	s := &Stream{
		Arrivals:            len(arrivals),
		Departures:          len(departures),
		Observers:           len(observers),
		DepartureInversions: len(Inversions(departures)),
	}
	s.Events = Merge(arrivals, departures, observers)
	return s, nil
}

func observerTimes(rate, horizon float64, src variate.Source) []float64 {
	var (
		out   []float64
		clock float64
	)
	for clock < horizon {
		clock += variate.Exponential(src, rate)
		out = append(out, clock)
	}
	return out
}

// Merge tags the three sub-streams and sorts them with core.Compare.
// Seq numbers are assigned per kind in input order.
func Merge(arrivals, departures, observers []float64) []core.Event {
	events := make([]core.Event, 0, len(arrivals)+len(departures)+len(observers))
	for i, t := range arrivals {
		events = append(events, core.Event{Time: t, Kind: core.Arrival, Seq: i})
	}
	for i, t := range departures {
		events = append(events, core.Event{Time: t, Kind: core.Departure, Seq: i})
	}
	for i, t := range observers {
		events = append(events, core.Event{Time: t, Kind: core.Observer, Seq: i})
	}
	slices.SortFunc(events, core.Compare)
	return events
}

// Inversions returns the indexes i where departures[i] < departures[i-1],
// i.e. a packet leaving before the packet ahead of it.
func Inversions(departures []float64) []int {
	var idx []int
	for i := 1; i < len(departures); i++ {
		if departures[i] < departures[i-1] {
			idx = append(idx, i)
		}
	}
	return idx
}

// Sorted reports whether the events are non-decreasing in time.
func (s *Stream) Sorted() bool {
	return slices.IsSortedFunc(s.Events, func(a, b core.Event) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
}

// Count returns how many events of kind k the stream holds.
func (s *Stream) Count(k core.EventKind) int {
	n := 0
	for _, e := range s.Events {
		if e.Kind == k {
			n++
		}
	}
	return n
}
