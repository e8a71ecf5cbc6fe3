package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validParams() Params {
	return Params{
		LineRate:     1_000_000,
		PacketLength: 2000,
		Intensity:    0.5,
		Horizon:      1000,
		Capacity:     Unbounded,
	}
}

func TestParams_DerivedRates(t *testing.T) {
	p := validParams()

	assert.InDelta(t, 500.0, p.ServiceRate(), 1e-9)
	assert.InDelta(t, 250.0, p.Lambda(), 1e-9)
	assert.InDelta(t, 1250.0, p.ObserverRate(), 1e-9)
	assert.InDelta(t, 0.5, p.Rho(), 1e-9)
}

func TestParams_ArrivalRateOverridesIntensity(t *testing.T) {
	p := validParams()
	p.Intensity = 0
	p.ArrivalRate = 600

	require.NoError(t, p.Validate())
	assert.InDelta(t, 600.0, p.Lambda(), 1e-9)
	assert.InDelta(t, 1.2, p.Rho(), 1e-9)
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		ok     bool
	}{
		{"valid", func(*Params) {}, true},
		{"zero horizon", func(p *Params) { p.Horizon = 0 }, true},
		{"finite capacity", func(p *Params) { p.Capacity = 0 }, true},
		{"zero line rate", func(p *Params) { p.LineRate = 0 }, false},
		{"negative packet length", func(p *Params) { p.PacketLength = -1 }, false},
		{"no load", func(p *Params) { p.Intensity = 0 }, false},
		{"negative intensity", func(p *Params) { p.Intensity = -0.5 }, false},
		{"NaN intensity", func(p *Params) { p.Intensity = math.NaN() }, false},
		{"negative horizon", func(p *Params) { p.Horizon = -1 }, false},
		{"infinite horizon", func(p *Params) { p.Horizon = math.Inf(1) }, false},
		{"capacity below sentinel", func(p *Params) { p.Capacity = -2 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter), "expected ErrInvalidParameter, got %v", err)
		})
	}
}

func TestParseCapacity(t *testing.T) {
	tests := []struct {
		in      string
		want    Capacity
		wantErr bool
	}{
		{"unbounded", Unbounded, false},
		{"INF", Unbounded, false},
		{"-1", Unbounded, false},
		{"0", 0, false},
		{" 25 ", 25, false},
		{"-3", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseCapacity(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidParameter, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestCapacity_YAML(t *testing.T) {
	var doc struct {
		Caps []Capacity `yaml:"caps"`
	}
	err := yaml.Unmarshal([]byte("caps: [unbounded, 10, 50, -1]"), &doc)
	require.NoError(t, err)
	assert.Equal(t, []Capacity{Unbounded, 10, 50, Unbounded}, doc.Caps)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "unbounded")

	err = yaml.Unmarshal([]byte("caps: [-7]"), &doc)
	assert.Error(t, err)
}

func TestCapacity_String(t *testing.T) {
	assert.Equal(t, "unbounded", Unbounded.String())
	assert.Equal(t, "10", Capacity(10).String())
	assert.False(t, Unbounded.Finite())
	assert.True(t, Capacity(0).Finite())
}
