package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qsim/internal/collector"
	"qsim/internal/core"
	"qsim/internal/sim"
	"qsim/internal/variate"
)

func (a *app) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one queue configuration",
		Example: `  qsim run --intensity 0.5
  qsim run --intensity 1.2 --horizon 1000
  qsim run --intensity 0.9 --capacity 10 --output json`,
		Args: cobra.NoArgs,
		RunE: a.runSingle,
	}

	f := cmd.Flags()
	f.Float64("line-rate", 1e6, "transmission rate C in bits/s")
	f.Float64("packet-length", 2000, "average packet length L in bits")
	f.Float64("intensity", 0.5, "traffic intensity p; arrival rate is p*C/L")
	f.Float64("arrival-rate", 0, "arrival rate in packets/s, overrides --intensity when > 0")
	f.Float64("horizon", 1000, "simulated time T in seconds")
	f.String("capacity", "unbounded", "buffer size K in packets, or 'unbounded'")
	f.Uint64("seed", 1, "random seed")
	f.String("rng", "pcg", "random generator: pcg, rngstream")
	f.String("output", "text", "output format: text, json, csv")
	return cmd
}

func (a *app) runSingle(cmd *cobra.Command, _ []string) error {
	format := a.v.GetString("output")
	if err := checkOutput(format); err != nil {
		return err
	}
	capacity, err := core.ParseCapacity(a.v.GetString("capacity"))
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}

	spec := sim.RunSpec{
		Sweep: "run",
		Seed:  a.v.GetUint64("seed"),
		Params: core.Params{
			LineRate:     a.v.GetFloat64("line-rate"),
			PacketLength: a.v.GetFloat64("packet-length"),
			Intensity:    a.v.GetFloat64("intensity"),
			ArrivalRate:  a.v.GetFloat64("arrival-rate"),
			Horizon:      a.v.GetFloat64("horizon"),
			Capacity:     capacity,
		},
	}
	switch rng := a.v.GetString("rng"); rng {
	case "pcg":
	case "rngstream":
		spec.Source = variate.NewSeededStreamSource(spec.Seed, "run")
	default:
		return &exitError{code: ExitError, err: fmt.Errorf("--rng must be 'pcg' or 'rngstream', got %q", rng)}
	}

	rec, err := sim.Run(cmd.Context(), spec)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}

	report := collector.NewReport([]collector.Record{rec}, rec.Elapsed, nil)
	if err := writeReport(cmd.OutOrStdout(), format, report); err != nil {
		return &exitError{code: ExitError, err: err}
	}
	return nil
}
