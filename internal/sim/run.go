// Package sim executes a single simulation run: build the stream, summarize it,
// and record what happened.
package sim

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"qsim/internal/collector"
	"qsim/internal/core"
	"qsim/internal/logging"
	"qsim/internal/metrics"
	"qsim/internal/stream"
	"qsim/internal/variate"
)

// RunSpec identifies one run inside a sweep.
type RunSpec struct {
	Index     int
	Sweep     string
	Replicate int
	Seed      uint64
	Params    core.Params

	// Source overrides the PCG source seeded from Seed.
	Source variate.Source
}

// Run builds the event stream for spec and reduces it to metrics.
// The returned record always describes the run; on failure its Error field
// repeats the returned error.
func Run(ctx context.Context, spec RunSpec) (collector.Record, error) {
	rec := collector.Record{
		Index:     spec.Index,
		ID:        uuid.NewString(),
		Sweep:     spec.Sweep,
		Replicate: spec.Replicate,
		Seed:      spec.Seed,
		Params:    spec.Params,
	}
	if err := ctx.Err(); err != nil {
		rec.Error = err.Error()
		return rec, err
	}

	log := logging.With().
		Str("run", rec.ID).
		Str("sweep", spec.Sweep).
		Float64("p", spec.Params.Rho()).
		Stringer("capacity", spec.Params.Capacity).
		Uint64("seed", spec.Seed).
		Logger()

	src := spec.Source
	if src == nil {
		src = variate.NewSource(spec.Seed)
	}
	model := metrics.Model(spec.Params.Capacity.Finite())
	start := time.Now()

	s, err := stream.Build(spec.Params, src)
	if err == nil {
		rec.Events = len(s.Events)
		rec.Inversions = s.DepartureInversions
		metrics.RecordStream(s.Arrivals, s.Departures, s.Observers, s.DepartureInversions)
		if s.DepartureInversions > 0 {
			log.Warn().
				Int("inversions", s.DepartureInversions).
				Int("departures", s.Departures).
				Msg("departure order inverted")
		}
		rec.Result, err = collector.Summarize(s.Events, spec.Params.Horizon, spec.Params.Capacity)
	}
	rec.Elapsed = time.Since(start)
	metrics.RecordRun(model, outcome(err), rec.Elapsed)

	if err != nil {
		rec.Error = err.Error()
		log.Debug().Err(err).Msg("run failed")
		return rec, err
	}

	log.Debug().
		Int("events", rec.Events).
		Float64("mean_occupancy", rec.Result.MeanOccupancy).
		Float64(rec.Result.SecondaryName(), rec.Result.Secondary).
		Dur("elapsed", rec.Elapsed).
		Msg("run finished")
	return rec, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrDegenerateRun):
		return "degenerate"
	case errors.Is(err, core.ErrInvalidParameter):
		return "invalid"
	default:
		return "error"
	}
}
