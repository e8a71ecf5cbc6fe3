package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qsim/internal/variate"
)

func (a *app) newVariateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "variate",
		Short: "Check the exponential generator against its theoretical moments",
		Example: `  qsim variate
  qsim variate --rate 75 --n 100000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: a.runVariate,
	}

	f := cmd.Flags()
	f.Float64("rate", 75, "rate of the exponential distribution")
	f.Int("n", 1000, "number of draws")
	f.Uint64("seed", 1, "random seed")
	f.String("rng", "pcg", "random generator: pcg, rngstream")
	return cmd
}

func (a *app) runVariate(cmd *cobra.Command, _ []string) error {
	rate := a.v.GetFloat64("rate")
	n := a.v.GetInt("n")
	if !(rate > 0) {
		return &exitError{code: ExitError, err: fmt.Errorf("--rate must be greater than 0, got %v", rate)}
	}
	if n < 2 {
		return &exitError{code: ExitError, err: fmt.Errorf("--n must be at least 2, got %d", n)}
	}

	var src variate.Source
	switch rng := a.v.GetString("rng"); rng {
	case "pcg":
		src = variate.NewSource(a.v.GetUint64("seed"))
	case "rngstream":
		src = variate.NewSeededStreamSource(a.v.GetUint64("seed"), "variate")
	default:
		return &exitError{code: ExitError, err: fmt.Errorf("--rng must be 'pcg' or 'rngstream', got %q", rng)}
	}

	mean, variance := variate.Moments(variate.Sample(src, rate, n))

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Exponential(rate=%g), %d draws\n", rate, n)
	fmt.Fprintf(w, "  mean      %.6f  (expected %.6f)\n", mean, 1/rate)
	fmt.Fprintf(w, "  variance  %.6f  (expected %.6f)\n", variance, 1/(rate*rate))
	return nil
}
