package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"qsim/internal/collector"
	"qsim/internal/logging"
)

const (
	ExitSuccess         = 0
	ExitThresholdFailed = 1
	ExitError           = 2
)

// exitError carries a specific exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return ExitError
}

// app holds state shared by every command of one invocation.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: newViper()}

	root := &cobra.Command{
		Use:   "qsim",
		Short: "qsim - discrete-event simulator for M/M/1 and M/M/1/K queues",
		Long: `qsim generates arrival, departure and observer events for a single-server
queue and reports the mean occupancy E[n] together with the idle probability
(unbounded buffer) or the loss probability (buffer of K packets).

Every flag can also be set through the environment: --line-rate is QSIM_LINE_RATE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			logging.Init(logging.Config{
				Level:  a.v.GetString("log-level"),
				Format: a.v.GetString("log-format"),
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	root.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error, disabled")
	root.PersistentFlags().String("log-format", "console", "log format: console, json")

	root.AddCommand(a.newRunCmd(), a.newSweepCmd(), a.newVariateCmd())
	return root
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("QSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func checkOutput(format string) error {
	switch format {
	case "text", "json", "csv":
		return nil
	}
	return &exitError{code: ExitError, err: fmt.Errorf("--output must be 'text', 'json' or 'csv', got %q", format)}
}

func writeReport(w io.Writer, format string, r *collector.Report) error {
	switch format {
	case "json":
		return collector.FormatJSON(w, r)
	case "csv":
		return collector.FormatCSV(w, r)
	default:
		collector.FormatText(w, r)
		return nil
	}
}
