package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"qsim/internal/validation"
)

// ObserverFactor scales the arrival rate into the observer sampling rate.
const ObserverFactor = 5

// Capacity is the buffer bound K. Unbounded selects M/M/1 semantics,
// any value >= 0 selects M/M/1/K.
type Capacity int

// Unbounded is the sentinel for an infinite buffer.
const Unbounded Capacity = -1

// Finite reports whether c bounds the queue.
func (c Capacity) Finite() bool {
	return c >= 0
}

func (c Capacity) String() string {
	if !c.Finite() {
		return "unbounded"
	}
	return strconv.Itoa(int(c))
}

// ParseCapacity accepts "unbounded", "inf", "-1" or a non-negative integer.
func ParseCapacity(s string) (Capacity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unbounded", "inf", "infinite", "-1", "":
		return Unbounded, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: capacity %q: %v", ErrInvalidParameter, s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: capacity %d is negative", ErrInvalidParameter, n)
	}
	return Capacity(n), nil
}

// UnmarshalYAML lets experiment files write `capacity: unbounded`.
func (c *Capacity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: capacity must be a scalar", node.Line)
	}
	parsed, err := ParseCapacity(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = parsed
	return nil
}

// MarshalYAML writes the unbounded sentinel as a word.
func (c Capacity) MarshalYAML() (interface{}, error) {
	if !c.Finite() {
		return "unbounded", nil
	}
	return int(c), nil
}

// Params describes one simulation run.
//
// Rates are derived: the service rate is LineRate/PacketLength, and the arrival
// rate is ServiceRate*Intensity unless ArrivalRate is given directly.
type Params struct {
	LineRate     float64  `yaml:"line_rate" validate:"gt=0"`     // C, bits/sec
	PacketLength float64  `yaml:"packet_length" validate:"gt=0"` // L, bits
	Intensity    float64  `yaml:"intensity" validate:"gte=0"`    // p
	ArrivalRate  float64  `yaml:"arrival_rate" validate:"gte=0"` // overrides Intensity when > 0
	Horizon      float64  `yaml:"horizon" validate:"gte=0"`      // T
	Capacity     Capacity `yaml:"capacity" validate:"gte=-1"`    // K
}

// Validate checks every precondition of a run.
func (p Params) Validate() error {
	if err := validation.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if p.Intensity <= 0 && p.ArrivalRate <= 0 {
		return fmt.Errorf("%w: intensity or arrival_rate must be greater than 0", ErrInvalidParameter)
	}
	if math.IsInf(p.Horizon, 0) {
		return fmt.Errorf("%w: horizon must be finite", ErrInvalidParameter)
	}
	return nil
}

// ServiceRate is mu = C/L.
func (p Params) ServiceRate() float64 {
	return p.LineRate / p.PacketLength
}

// Lambda is the packet arrival rate.
func (p Params) Lambda() float64 {
	if p.ArrivalRate > 0 {
		return p.ArrivalRate
	}
	return p.ServiceRate() * p.Intensity
}

// ObserverRate is the rate of the independent sampling process.
func (p Params) ObserverRate() float64 {
	return ObserverFactor * p.Lambda()
}

// Rho is the effective traffic intensity lambda/mu.
func (p Params) Rho() float64 {
	if p.ArrivalRate > 0 {
		return p.ArrivalRate / p.ServiceRate()
	}
	return p.Intensity
}
