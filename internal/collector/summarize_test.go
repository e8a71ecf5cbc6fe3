package collector

import (
	"errors"
	"testing"

	"qsim/internal/core"
)

func ev(t float64, k core.EventKind) core.Event {
	return core.Event{Time: t, Kind: k}
}

// timeline: two packets overlap, then the queue drains.
//
//	t=0.5 obs n=0
//	t=1.0 arr
//	t=1.5 arr
//	t=1.7 obs n=2
//	t=3.0 dep
//	t=3.2 obs n=1
//	t=4.0 dep
//	t=4.5 obs n=0
//	t=6.0 obs (beyond horizon)
func timeline() []core.Event {
	return []core.Event{
		ev(0.5, core.Observer),
		ev(1.0, core.Arrival),
		ev(1.5, core.Arrival),
		ev(1.7, core.Observer),
		ev(3.0, core.Departure),
		ev(3.2, core.Observer),
		ev(4.0, core.Departure),
		ev(4.5, core.Observer),
		ev(6.0, core.Observer),
	}
}

func TestSummarize_Unbounded(t *testing.T) {
	r, err := Summarize(timeline(), 5, core.Unbounded)
	if err != nil {
		t.Fatal(err)
	}

	if r.Observers != 4 {
		t.Errorf("expected 4 observers before horizon, got %d", r.Observers)
	}
	// (0+2+1+0)/4
	if r.MeanOccupancy != 0.75 {
		t.Errorf("expected E[n]=0.75, got %v", r.MeanOccupancy)
	}
	idle, ok := r.IdleProbability()
	if !ok {
		t.Fatal("expected idle probability for unbounded capacity")
	}
	if idle != 50 {
		t.Errorf("expected P_idle=50%%, got %v", idle)
	}
	if _, ok := r.LossProbability(); ok {
		t.Error("loss probability must not be reported for unbounded capacity")
	}
	if r.SecondaryName() != "p_idle" {
		t.Errorf("expected p_idle, got %s", r.SecondaryName())
	}
}

func TestSummarize_FiniteCapacitySaturates(t *testing.T) {
	r, err := Summarize(timeline(), 5, 1)
	if err != nil {
		t.Fatal(err)
	}

	// n=2 exceeds K=1: one loss sample contributing 1 instead of 2
	if r.Samples != 1 {
		t.Errorf("expected 1 loss sample, got %d", r.Samples)
	}
	if r.MeanOccupancy != 0.5 {
		t.Errorf("expected E[n]=0.5, got %v", r.MeanOccupancy)
	}
	loss, ok := r.LossProbability()
	if !ok {
		t.Fatal("expected loss probability for finite capacity")
	}
	if loss != 25 {
		t.Errorf("expected P_loss=25%%, got %v", loss)
	}
	if _, ok := r.IdleProbability(); ok {
		t.Error("idle probability must not be reported for finite capacity")
	}
}

func TestSummarize_ZeroCapacity(t *testing.T) {
	r, err := Summarize(timeline(), 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.MeanOccupancy != 0 {
		t.Errorf("K=0 cannot hold packets, got E[n]=%v", r.MeanOccupancy)
	}
	if r.Secondary != 50 {
		t.Errorf("expected P_loss=50%%, got %v", r.Secondary)
	}
}

func TestSummarize_HorizonIsStrict(t *testing.T) {
	events := []core.Event{
		ev(1, core.Arrival),
		ev(2, core.Observer),
		ev(2.5, core.Departure),
		ev(2.5, core.Observer),
	}

	r, err := Summarize(events, 2.5, core.Unbounded)
	if err != nil {
		t.Fatal(err)
	}
	if r.Observers != 1 || r.Departures != 0 {
		t.Errorf("events at the horizon must be ignored, got observers=%d departures=%d", r.Observers, r.Departures)
	}
}

func TestSummarize_Rounding(t *testing.T) {
	events := []core.Event{
		ev(0, core.Arrival),
		ev(1, core.Observer),
		ev(2, core.Observer),
		ev(3, core.Departure),
		ev(4, core.Observer),
	}

	r, err := Summarize(events, 10, core.Unbounded)
	if err != nil {
		t.Fatal(err)
	}
	if r.MeanOccupancy != 0.66667 {
		t.Errorf("expected 0.66667, got %v", r.MeanOccupancy)
	}
	if r.Secondary != 33.33333 {
		t.Errorf("expected 33.33333, got %v", r.Secondary)
	}
}

func TestSummarize_DegenerateRun(t *testing.T) {
	events := []core.Event{ev(1, core.Arrival), ev(2, core.Departure), ev(9, core.Observer)}

	_, err := Summarize(events, 5, core.Unbounded)
	if !errors.Is(err, core.ErrDegenerateRun) {
		t.Errorf("expected ErrDegenerateRun, got %v", err)
	}

	_, err = Summarize(nil, 0, 10)
	if !errors.Is(err, core.ErrDegenerateRun) {
		t.Errorf("expected ErrDegenerateRun for empty stream, got %v", err)
	}
}

func TestSummarize_InvalidInput(t *testing.T) {
	if _, err := Summarize(timeline(), -1, core.Unbounded); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("negative horizon: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := Summarize(timeline(), 5, -2); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("capacity -2: expected ErrInvalidParameter, got %v", err)
	}
}
