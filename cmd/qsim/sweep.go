package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"qsim/internal/collector"
	"qsim/internal/config"
	"qsim/internal/coordinator"
	"qsim/internal/logging"
	"qsim/internal/metrics"
	"qsim/internal/progress"
	"qsim/internal/ratelimit"
)

func (a *app) newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run every sweep of an experiment file",
		Example: `  qsim sweep --config examples/lab.yaml
  qsim sweep --config examples/lab.yaml --workers 8 --output csv > lab.csv
  qsim sweep --config examples/lab.yaml --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: a.runSweep,
	}

	f := cmd.Flags()
	f.String("config", "", "path to YAML experiment file (required)")
	f.Int("workers", 0, "concurrent runs (0 = execution.workers from the config)")
	f.Float64("runs-per-sec", -1, "dispatch limit in runs/s (-1 = execution.runs_per_sec, 0 = unlimited)")
	f.Uint64("seed", 0, "base seed (0 = execution.seed from the config)")
	f.String("output", "text", "output format: text, json, csv")
	f.Bool("quiet", false, "suppress progress output during the sweep")
	f.String("metrics-addr", "", "serve Prometheus /metrics on this address while the sweep runs")
	return cmd
}

func (a *app) runSweep(cmd *cobra.Command, _ []string) error {
	format := a.v.GetString("output")
	if err := checkOutput(format); err != nil {
		return err
	}
	path := a.v.GetString("config")
	if path == "" {
		return &exitError{code: ExitError, err: errors.New("--config is required")}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}
	if w := a.v.GetInt("workers"); w > 0 {
		cfg.Execution.Workers = w
	}
	if r := a.v.GetFloat64("runs-per-sec"); r >= 0 {
		cfg.Execution.RunsPerSec = r
	}
	if s := a.v.GetUint64("seed"); s > 0 {
		cfg.Execution.Seed = s
	}

	plan, err := coordinator.Plan(cfg)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if addr := a.v.GetString("metrics-addr"); addr != "" {
		metricsCtx, cancelMetrics := context.WithCancel(context.Background())
		defer cancelMetrics()
		go func() {
			if err := metrics.Serve(metricsCtx, addr); err != nil {
				logging.Err(err).Str("addr", addr).Msg("metrics endpoint failed")
			}
		}()
		logging.Info().Str("addr", addr).Msg("serving /metrics")
	}

	coll := collector.NewCollector()
	coord := coordinator.NewCoordinator(coll, cfg.Execution.Workers)
	if cfg.Execution.RunsPerSec > 0 {
		coord.SetRateLimiter(ratelimit.NewRateLimiter(cfg.Execution.RunsPerSec))
	}

	prog := progress.NewProgress(coll, len(plan), a.v.GetBool("quiet"))
	prog.SetOutput(cmd.ErrOrStderr())
	prog.Printf("qsim starting: %d runs in %d sweeps, %d workers, horizon %gs, rng %s",
		len(plan), len(cfg.Sweeps), cfg.Execution.Workers, cfg.System.Horizon, cfg.Execution.RNG)

	prog.Start()
	execErr := coord.Execute(ctx, plan)
	coll.Close()
	prog.Stop()

	interrupted := execErr != nil
	if interrupted {
		prog.Print("Received interrupt signal, reporting completed runs")
	}

	report := collector.NewReport(coll.Records(), coll.Duration(), cfg.Thresholds)
	if err := writeReport(cmd.OutOrStdout(), format, report); err != nil {
		return &exitError{code: ExitError, err: err}
	}

	if interrupted {
		return nil
	}
	if !report.Thresholds.Passed {
		stderr := cmd.ErrOrStderr()
		fmt.Fprintln(stderr, "\nThreshold check failed!")
		for _, v := range report.Thresholds.Violations() {
			fmt.Fprintf(stderr, "  %s %s (actual: %s)\n", v.Name, v.Threshold, v.Actual)
		}
		return &exitError{code: ExitThresholdFailed}
	}
	return nil
}
