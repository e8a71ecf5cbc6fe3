package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// FormatText writes the report in human-readable form.
func FormatText(w io.Writer, r *Report) {
	if len(r.Records) == 0 {
		fmt.Fprintln(w, "No runs completed")
		return
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "qsim - Queue Simulation Results")
	fmt.Fprintln(w, "===============================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Runs:        %s (%d failed)\n", formatNumber(len(r.Records)), r.Failed())
	fmt.Fprintf(w, "Events:      %s\n", formatNumber(r.Events()))
	fmt.Fprintf(w, "Wall time:   %s\n", FormatDuration(r.Duration))
	if inv := r.Inversions(); inv > 0 {
		fmt.Fprintf(w, "Inversions:  %s departures left before the packet ahead of them\n", formatNumber(inv))
	}

	for _, s := range r.Series {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "%s (K=%s)\n", s.Sweep, s.Capacity)
		fmt.Fprintf(w, "  %-8s %12s %12s %6s\n", "p", "E[n]", secondaryHeader(s.Secondary), "runs")
		for _, pt := range s.Points {
			fmt.Fprintf(w, "  %-8.2f %12.5f %12.5f %6d\n", pt.Intensity, pt.MeanOccupancy, pt.Secondary, pt.Runs)
		}
		if len(s.Points) > 1 {
			fmt.Fprintf(w, "  slope    dE[n]/dp=%s  d%s/dp=%s\n",
				formatSlope(s.OccupancySlope), secondaryHeader(s.Secondary), formatSlope(s.SecondarySlope))
		}
	}

	if failed := r.Failed(); failed > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Failed runs:")
		for _, rec := range r.Records {
			if rec.Failed() {
				fmt.Fprintf(w, "  #%d %s: %s\n", rec.Index, describe(rec), rec.Error)
			}
		}
	}

	if r.Thresholds != nil && len(r.Thresholds.Results) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Thresholds:")
		for _, result := range r.Thresholds.Results {
			symbol := "✓"
			if !result.Passed {
				symbol = "✗"
			}
			fmt.Fprintf(w, "  %s %s %s (actual: %s)\n",
				symbol, result.Name, result.Threshold, result.Actual)
		}
	}
}

// FormatJSON writes the report as indented JSON.
func FormatJSON(w io.Writer, r *Report) error {
	output := jsonReport{
		Duration:   r.Duration.String(),
		Runs:       len(r.Records),
		Failed:     r.Failed(),
		Events:     r.Events(),
		Inversions: r.Inversions(),
		Records:    make([]jsonRecord, 0, len(r.Records)),
		Series:     make([]jsonSeries, 0, len(r.Series)),
		Thresholds: r.Thresholds,
	}

	for _, rec := range r.Records {
		jr := jsonRecord{
			Index:      rec.Index,
			ID:         rec.ID,
			Sweep:      rec.Sweep,
			Replicate:  rec.Replicate,
			Seed:       rec.Seed,
			Intensity:  rec.Params.Rho(),
			Capacity:   rec.Params.Capacity.String(),
			Horizon:    rec.Params.Horizon,
			Events:     rec.Events,
			Inversions: rec.Inversions,
			Elapsed:    rec.Elapsed.String(),
			Error:      rec.Error,
		}
		if !rec.Failed() {
			jr.MeanOccupancy = ptr(rec.Result.MeanOccupancy)
			jr.SecondaryName = rec.Result.SecondaryName()
			jr.Secondary = ptr(rec.Result.Secondary)
			jr.Observers = rec.Result.Observers
		}
		output.Records = append(output.Records, jr)
	}

	for _, s := range r.Series {
		js := jsonSeries{
			Sweep:          s.Sweep,
			Capacity:       s.Capacity.String(),
			SecondaryName:  s.Secondary,
			OccupancySlope: finite(s.OccupancySlope),
			SecondarySlope: finite(s.SecondarySlope),
			Points:         make([]jsonPoint, len(s.Points)),
		}
		for i, pt := range s.Points {
			js.Points[i] = jsonPoint(pt)
		}
		output.Series = append(output.Series, js)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// FormatCSV writes one row per run, ready for an external plotter.
func FormatCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	header := []string{
		"index", "id", "sweep", "capacity", "intensity", "replicate", "seed",
		"mean_occupancy", "secondary_name", "secondary", "observers", "inversions", "error",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range r.Records {
		row := []string{
			strconv.Itoa(rec.Index),
			rec.ID,
			rec.Sweep,
			rec.Params.Capacity.String(),
			strconv.FormatFloat(rec.Params.Rho(), 'f', -1, 64),
			strconv.Itoa(rec.Replicate),
			strconv.FormatUint(rec.Seed, 10),
			"", "", "", "",
			strconv.Itoa(rec.Inversions),
			rec.Error,
		}
		if !rec.Failed() {
			row[7] = strconv.FormatFloat(rec.Result.MeanOccupancy, 'f', 5, 64)
			row[8] = rec.Result.SecondaryName()
			row[9] = strconv.FormatFloat(rec.Result.Secondary, 'f', 5, 64)
			row[10] = strconv.Itoa(rec.Result.Observers)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

type jsonReport struct {
	Duration   string            `json:"duration"`
	Runs       int               `json:"runs"`
	Failed     int               `json:"failed"`
	Events     int               `json:"events"`
	Inversions int               `json:"inversions"`
	Records    []jsonRecord      `json:"records"`
	Series     []jsonSeries      `json:"series"`
	Thresholds *ThresholdResults `json:"thresholds,omitempty"`
}

type jsonRecord struct {
	Index         int      `json:"index"`
	ID            string   `json:"id"`
	Sweep         string   `json:"sweep"`
	Replicate     int      `json:"replicate"`
	Seed          uint64   `json:"seed"`
	Intensity     float64  `json:"intensity"`
	Capacity      string   `json:"capacity"`
	Horizon       float64  `json:"horizon"`
	MeanOccupancy *float64 `json:"meanOccupancy,omitempty"`
	SecondaryName string   `json:"secondaryName,omitempty"`
	Secondary     *float64 `json:"secondary,omitempty"`
	Observers     int      `json:"observers,omitempty"`
	Events        int      `json:"events"`
	Inversions    int      `json:"inversions"`
	Elapsed       string   `json:"elapsed"`
	Error         string   `json:"error,omitempty"`
}

type jsonSeries struct {
	Sweep          string      `json:"sweep"`
	Capacity       string      `json:"capacity"`
	SecondaryName  string      `json:"secondaryName"`
	OccupancySlope *float64    `json:"occupancySlope"`
	SecondarySlope *float64    `json:"secondarySlope"`
	Points         []jsonPoint `json:"points"`
}

type jsonPoint struct {
	Intensity     float64 `json:"intensity"`
	MeanOccupancy float64 `json:"meanOccupancy"`
	Secondary     float64 `json:"secondary"`
	Runs          int     `json:"runs"`
}

func ptr(v float64) *float64 { return &v }

// finite maps NaN and Inf to null, which JSON cannot carry as numbers.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatSlope(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.3f", v)
}

func secondaryHeader(name string) string {
	if name == "p_loss" {
		return "P_loss%"
	}
	return "P_idle%"
}

func formatNumber(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
