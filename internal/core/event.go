// Package core defines the event, parameter and error types shared by the simulator.
package core

import "cmp"

// EventKind identifies what happened at an event's timestamp.
// The declaration order is also the tie-break order for simultaneous events.
type EventKind uint8

const (
	Arrival EventKind = iota
	Departure
	Observer
)

func (k EventKind) String() string {
	switch k {
	case Arrival:
		return "arrival"
	case Departure:
		return "departure"
	case Observer:
		return "observer"
	default:
		return "unknown"
	}
}

// Event is a single point on the simulated timeline.
type Event struct {
	Time float64
	Kind EventKind
	Seq  int // build order, used only to break exact ties deterministically
}

// Compare orders events by time, then kind (Arrival < Departure < Observer), then Seq.
func Compare(a, b Event) int {
	if c := cmp.Compare(a.Time, b.Time); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}
