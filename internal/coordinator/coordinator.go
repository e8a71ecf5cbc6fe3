// Package coordinator expands experiments into runs and executes them on a
// bounded worker pool.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"qsim/internal/collector"
	"qsim/internal/config"
	"qsim/internal/logging"
	"qsim/internal/metrics"
	"qsim/internal/ratelimit"
	"qsim/internal/sim"
	"qsim/internal/variate"
)

// Reporter receives one record per finished run.
type Reporter interface {
	Report(collector.Record)
}

// RunFunc executes a single run. sim.Run is the production implementation.
type RunFunc func(context.Context, sim.RunSpec) (collector.Record, error)

type Coordinator struct {
	reporter   Reporter
	workers    int
	limiter    *ratelimit.RateLimiter
	run        RunFunc
	dispatched atomic.Int64
}

// NewCoordinator runs at most workers runs at once; values below one mean one.
func NewCoordinator(reporter Reporter, workers int) *Coordinator {
	return &Coordinator{
		reporter: reporter,
		workers:  max(1, workers),
		run:      sim.Run,
	}
}

// SetRateLimiter paces dispatch. A nil limiter dispatches as fast as workers free up.
func (c *Coordinator) SetRateLimiter(rl *ratelimit.RateLimiter) {
	c.limiter = rl
}

// Dispatched returns how many runs have been handed to workers.
func (c *Coordinator) Dispatched() int {
	return int(c.dispatched.Load())
}

// Plan expands cfg into run specs ordered by sweep, capacity, intensity and
// replicate. Seeds are the base seed plus the run index. With the rngstream
// generator the base seed seeds the stream sequence, each run takes the next
// stream in index order and records the base seed.
func Plan(cfg *config.Config) ([]sim.RunSpec, error) {
	specs := make([]sim.RunSpec, 0, cfg.Runs())
	streams := cfg.Execution.RNG == config.RNGStream
	if streams {
		variate.SeedStreams(cfg.Execution.Seed)
	}
	for _, sw := range cfg.Sweeps {
		ps, err := sw.Intensity.Expand()
		if err != nil {
			return nil, fmt.Errorf("sweep %q: %w", sw.Name, err)
		}
		for _, k := range sw.Capacities {
			for _, p := range ps {
				for r := 0; r < sw.Replicates; r++ {
					idx := len(specs)
					spec := sim.RunSpec{
						Index:     idx,
						Sweep:     sw.Name,
						Replicate: r,
						Seed:      cfg.Execution.Seed + uint64(idx),
						Params:    cfg.Params(k, p),
					}
					if streams {
						spec.Seed = cfg.Execution.Seed
						spec.Source = variate.NewStreamSource(fmt.Sprintf("%s/%d", sw.Name, idx))
					}
					specs = append(specs, spec)
				}
			}
		}
	}
	return specs, nil
}

// Execute runs every spec and reports each record. It returns once all
// dispatched runs have finished; on cancellation the remaining specs are
// skipped and the context error is returned.
func (c *Coordinator) Execute(ctx context.Context, specs []sim.RunSpec) error {
	jobs := make(chan sim.RunSpec)
	metrics.SweepRunsPending.Set(float64(len(specs)))
	defer metrics.SweepRunsPending.Set(0)

	var wg sync.WaitGroup
	for i := 0; i < min(c.workers, max(1, len(specs))); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for spec := range jobs {
				c.runOne(ctx, spec)
			}
		}()
	}

dispatch:
	for _, spec := range specs {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				break
			}
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- spec:
			c.dispatched.Add(1)
		}
	}
	close(jobs)
	wg.Wait()

	if skipped := len(specs) - c.Dispatched(); skipped > 0 {
		logging.Warn().Int("skipped", skipped).Msg("sweep interrupted")
	}
	return ctx.Err()
}

func (c *Coordinator) runOne(ctx context.Context, spec sim.RunSpec) {
	defer metrics.SweepRunsPending.Dec()
	defer c.recoverPanic(spec)

	rec, _ := c.run(ctx, spec)
	c.reporter.Report(rec)
}

// recoverPanic recovers from panics in a run and reports it as a failed record.
func (c *Coordinator) recoverPanic(spec sim.RunSpec) {
	if r := recover(); r != nil {
		logging.Error().
			Int("index", spec.Index).
			Str("sweep", spec.Sweep).
			Interface("panic", r).
			Msg("run panicked")
		c.reporter.Report(collector.Record{
			Index:     spec.Index,
			Sweep:     spec.Sweep,
			Replicate: spec.Replicate,
			Seed:      spec.Seed,
			Params:    spec.Params,
			Error:     fmt.Sprintf("panic: %v", r),
		})
	}
}
