// Package metrics exposes Prometheus instrumentation for simulation runs.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every qsim collector. It is separate from the default
// registry so tests and embedding programs stay isolated.
var Registry = prometheus.NewRegistry()

var (
	RunsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "qsim_runs_total",
			Help: "Simulation runs by queue model and outcome",
		},
		[]string{"model", "outcome"}, // model: mm1, mm1k; outcome: ok, degenerate, invalid, error
	)

	EventsGenerated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "qsim_events_generated_total",
			Help: "Events generated across all runs, by kind",
		},
		[]string{"kind"},
	)

	DepartureInversions = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "qsim_departure_inversions_total",
			Help: "Departures scheduled before the departure of the packet ahead of them",
		},
	)

	RunDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qsim_run_duration_seconds",
			Help:    "Wall time spent building and summarizing one run",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 9), // 1ms .. ~65s
		},
		[]string{"model"},
	)

	SweepRunsPending = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "qsim_sweep_runs_pending",
			Help: "Runs of the current sweep not yet finished",
		},
	)
)

// Model labels a capacity as mm1 or mm1k.
func Model(finite bool) string {
	if finite {
		return "mm1k"
	}
	return "mm1"
}

// RecordRun records the outcome of one run.
func RecordRun(model, outcome string, duration time.Duration) {
	RunsTotal.WithLabelValues(model, outcome).Inc()
	RunDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordStream records the size of a generated stream.
func RecordStream(arrivals, departures, observers, inversions int) {
	EventsGenerated.WithLabelValues("arrival").Add(float64(arrivals))
	EventsGenerated.WithLabelValues("departure").Add(float64(departures))
	EventsGenerated.WithLabelValues("observer").Add(float64(observers))
	if inversions > 0 {
		DepartureInversions.Add(float64(inversions))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln)
}

func serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
