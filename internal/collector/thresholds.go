package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Thresholds defines pass/fail criteria evaluated over every successful run.
type Thresholds struct {
	MaxLoss          string  `yaml:"max_loss"`           // e.g. "5%", finite-buffer runs only
	MinIdle          string  `yaml:"min_idle"`           // e.g. "10%", unbounded runs only
	MaxMeanOccupancy float64 `yaml:"max_mean_occupancy"` // 0 disables
}

// ThresholdResult represents the outcome of a single threshold check.
type ThresholdResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
}

// ThresholdResults contains all threshold check results.
type ThresholdResults struct {
	Passed  bool              `json:"passed"`
	Results []ThresholdResult `json:"results"`
}

// Check evaluates all thresholds against the worst run for each criterion.
func (t *Thresholds) Check(records []Record) *ThresholdResults {
	if t == nil {
		return &ThresholdResults{Passed: true, Results: nil}
	}

	results := &ThresholdResults{
		Passed:  true,
		Results: make([]ThresholdResult, 0),
	}

	if t.MaxLoss != "" {
		results.checkPercent("p_loss.max", t.MaxLoss, records, true,
			func(r Result) (float64, bool) { return r.LossProbability() })
	}
	if t.MinIdle != "" {
		results.checkPercent("p_idle.min", t.MinIdle, records, false,
			func(r Result) (float64, bool) { return r.IdleProbability() })
	}
	if t.MaxMeanOccupancy > 0 {
		results.checkOccupancy(t.MaxMeanOccupancy, records)
	}

	return results
}

// checkPercent finds the worst value among runs that carry the statistic.
// upper selects "must stay below" (loss) versus "must stay above" (idle).
func (r *ThresholdResults) checkPercent(name, raw string, records []Record, upper bool, pick func(Result) (float64, bool)) {
	limit, err := parsePercentage(raw)
	if err != nil {
		r.add(ThresholdResult{Name: name, Passed: false, Threshold: raw, Actual: err.Error()})
		return
	}

	worst, where, found := 0.0, "", false
	for _, rec := range records {
		if rec.Failed() {
			continue
		}
		v, ok := pick(rec.Result)
		if !ok {
			continue
		}
		if !found || (upper && v > worst) || (!upper && v < worst) {
			worst, where, found = v, describe(rec), true
		}
	}
	if !found {
		return
	}

	passed := worst < limit
	if !upper {
		passed = worst > limit
	}
	r.add(ThresholdResult{
		Name:      name,
		Passed:    passed,
		Threshold: raw,
		Actual:    fmt.Sprintf("%.2f%% at %s", worst, where),
	})
}

func (r *ThresholdResults) checkOccupancy(limit float64, records []Record) {
	worst, where, found := 0.0, "", false
	for _, rec := range records {
		if rec.Failed() {
			continue
		}
		if !found || rec.Result.MeanOccupancy > worst {
			worst, where, found = rec.Result.MeanOccupancy, describe(rec), true
		}
	}
	if !found {
		return
	}
	r.add(ThresholdResult{
		Name:      "mean_occupancy.max",
		Passed:    worst < limit,
		Threshold: strconv.FormatFloat(limit, 'g', -1, 64),
		Actual:    fmt.Sprintf("%.5f at %s", worst, where),
	})
}

func (r *ThresholdResults) add(res ThresholdResult) {
	if !res.Passed {
		r.Passed = false
	}
	r.Results = append(r.Results, res)
}

func describe(rec Record) string {
	return fmt.Sprintf("%s K=%s p=%.2f", rec.Sweep, rec.Params.Capacity, rec.Params.Rho())
}

func parsePercentage(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("invalid percentage format: %s", s)
	}
	s = strings.TrimSuffix(s, "%")
	return strconv.ParseFloat(s, 64)
}

// FormatDuration formats a wall-clock duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// Violations returns only the failed threshold results.
func (r *ThresholdResults) Violations() []ThresholdResult {
	violations := make([]ThresholdResult, 0)
	for _, result := range r.Results {
		if !result.Passed {
			violations = append(violations, result)
		}
	}
	return violations
}

// Validate rejects malformed percentages before any run starts.
func (t *Thresholds) Validate() error {
	if t == nil {
		return nil
	}
	for name, raw := range map[string]string{"max_loss": t.MaxLoss, "min_idle": t.MinIdle} {
		if raw == "" {
			continue
		}
		if _, err := parsePercentage(raw); err != nil {
			return fmt.Errorf("thresholds.%s: %w", name, err)
		}
	}
	if t.MaxMeanOccupancy < 0 {
		return fmt.Errorf("thresholds.max_mean_occupancy must not be negative")
	}
	return nil
}
