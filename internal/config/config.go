// Package config handles YAML experiment parsing.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"qsim/internal/collector"
	"qsim/internal/core"
	"qsim/internal/validation"
)

const (
	RNGPCG       = "pcg"
	RNGStream    = "rngstream"
	DefaultSeed  = 1
	maxSweepRuns = 1_000_000
)

// ErrInvalidConfig wraps every configuration problem.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root experiment structure.
type Config struct {
	System     SystemConfig          `yaml:"system"`
	Sweeps     []Sweep               `yaml:"sweeps" validate:"required,min=1,dive"`
	Execution  ExecutionConfig       `yaml:"execution,omitempty"`
	Thresholds *collector.Thresholds `yaml:"thresholds,omitempty"`
}

// SystemConfig holds the link every sweep shares.
type SystemConfig struct {
	LineRate     float64 `yaml:"line_rate" validate:"gt=0"`     // bits/s
	PacketLength float64 `yaml:"packet_length" validate:"gt=0"` // bits
	Horizon      float64 `yaml:"horizon" validate:"gt=0"`       // seconds
}

// Sweep is one family of runs: every capacity crossed with every intensity.
type Sweep struct {
	Name       string          `yaml:"name" validate:"required"`
	Capacities []core.Capacity `yaml:"capacities"`
	Intensity  Range           `yaml:"intensity"`
	Replicates int             `yaml:"replicates" validate:"gte=0"`
}

// Range lists intensities explicitly or as an arithmetic progression.
type Range struct {
	From   float64   `yaml:"from" validate:"gte=0"`
	To     float64   `yaml:"to" validate:"gte=0"`
	Step   float64   `yaml:"step" validate:"gte=0"`
	Values []float64 `yaml:"values,omitempty" validate:"dive,gt=0"`
}

// ExecutionConfig controls how runs are scheduled.
type ExecutionConfig struct {
	Workers    int     `yaml:"workers" validate:"gte=0"`
	RunsPerSec float64 `yaml:"runs_per_sec" validate:"gte=0"`
	Seed       uint64  `yaml:"seed"`
	RNG        string  `yaml:"rng" validate:"omitempty,oneof=pcg rngstream"`
}

// LoadConfig reads and parses a YAML experiment file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates an experiment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every zero value that has a sensible default.
func (c *Config) ApplyDefaults() {
	if c.Execution.Workers == 0 {
		c.Execution.Workers = runtime.NumCPU()
	}
	if c.Execution.RNG == "" {
		c.Execution.RNG = RNGPCG
	}
	if c.Execution.Seed == 0 {
		c.Execution.Seed = DefaultSeed
	}
	for i := range c.Sweeps {
		s := &c.Sweeps[i]
		if len(s.Capacities) == 0 {
			s.Capacities = []core.Capacity{core.Unbounded}
		}
		if s.Replicates == 0 {
			s.Replicates = 1
		}
	}
}

// Validate checks field rules first, then the cross-field ones.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	seen := make(map[string]bool, len(c.Sweeps))
	total := 0
	for _, s := range c.Sweeps {
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate sweep name %q", ErrInvalidConfig, s.Name)
		}
		seen[s.Name] = true

		for _, k := range s.Capacities {
			if k < core.Unbounded {
				return fmt.Errorf("%w: sweep %q: capacity %d", ErrInvalidConfig, s.Name, int(k))
			}
		}
		ps, err := s.Intensity.Expand()
		if err != nil {
			return fmt.Errorf("%w: sweep %q: %w", ErrInvalidConfig, s.Name, err)
		}
		total += len(s.Capacities) * len(ps) * s.Replicates
	}
	if total > maxSweepRuns {
		return fmt.Errorf("%w: %d runs exceeds the limit of %d", ErrInvalidConfig, total, maxSweepRuns)
	}
	return nil
}

// Expand returns the intensities of the range in ascending order of definition.
// Progression points are rounded to 9 decimals so 0.25 + 7*0.1 prints as 0.95.
func (r Range) Expand() ([]float64, error) {
	if len(r.Values) > 0 {
		out := make([]float64, len(r.Values))
		copy(out, r.Values)
		return out, nil
	}

	switch {
	case r.From <= 0:
		return nil, fmt.Errorf("intensity.from must be greater than 0")
	case r.To == 0 || r.To == r.From:
		return []float64{r.From}, nil
	case r.To < r.From:
		return nil, fmt.Errorf("intensity.to (%v) is below intensity.from (%v)", r.To, r.From)
	case r.Step <= 0:
		return nil, fmt.Errorf("intensity.step must be greater than 0 when to > from")
	}

	n := int(math.Floor((r.To-r.From)/r.Step+1e-9)) + 1
	if n > maxSweepRuns {
		return nil, fmt.Errorf("intensity range yields %d points", n)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = roundTo(r.From+float64(i)*r.Step, 9)
	}
	return out, nil
}

// Params builds the run parameters for one point of the sweep.
func (c *Config) Params(k core.Capacity, p float64) core.Params {
	return core.Params{
		LineRate:     c.System.LineRate,
		PacketLength: c.System.PacketLength,
		Intensity:    p,
		Horizon:      c.System.Horizon,
		Capacity:     k,
	}
}

// Runs is the total number of runs the experiment expands to.
func (c *Config) Runs() int {
	total := 0
	for _, s := range c.Sweeps {
		ps, err := s.Intensity.Expand()
		if err != nil {
			continue
		}
		total += len(s.Capacities) * len(ps) * s.Replicates
	}
	return total
}

func roundTo(x float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(x*scale) / scale
}
