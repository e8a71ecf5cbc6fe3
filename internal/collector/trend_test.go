package collector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qsim/internal/core"
)

func rec(sweep string, k core.Capacity, p, occ, sec float64) Record {
	return Record{
		Sweep:  sweep,
		Params: core.Params{LineRate: 1, PacketLength: 1, Intensity: p, Capacity: k},
		Result: Result{Capacity: k, MeanOccupancy: occ, Secondary: sec, Observers: 1},
	}
}

func TestSlope(t *testing.T) {
	assert.InDelta(t, 2.0, Slope([]float64{0, 1, 2}, []float64{1, 3, 5}), 1e-12)
	assert.InDelta(t, -0.5, Slope([]float64{0, 2, 4}, []float64{4, 3, 2}), 1e-12)
	assert.True(t, math.IsNaN(Slope([]float64{1, 1}, []float64{1, 2})))
	assert.True(t, math.IsNaN(Slope([]float64{1}, []float64{1})))
	assert.True(t, math.IsNaN(Slope([]float64{1, 2}, []float64{1})))
}

func TestBuildSeries_GroupsAndAverages(t *testing.T) {
	records := []Record{
		rec("mm1", core.Unbounded, 0.5, 1.0, 50),
		rec("mm1", core.Unbounded, 0.25, 0.3, 75),
		rec("mm1", core.Unbounded, 0.5, 1.2, 48),
		rec("mm1k", 10, 0.5, 0.9, 0),
		{Sweep: "mm1", Error: "degenerate"},
	}

	series := BuildSeries(records)
	require.Len(t, series, 2)

	mm1 := series[0]
	assert.Equal(t, "mm1", mm1.Sweep)
	assert.Equal(t, core.Unbounded, mm1.Capacity)
	assert.Equal(t, "p_idle", mm1.Secondary)
	require.Len(t, mm1.Points, 2)
	assert.Equal(t, 0.25, mm1.Points[0].Intensity)
	assert.Equal(t, 0.5, mm1.Points[1].Intensity)
	assert.Equal(t, 2, mm1.Points[1].Runs)
	assert.InDelta(t, 1.1, mm1.Points[1].MeanOccupancy, 1e-9)
	assert.InDelta(t, 49.0, mm1.Points[1].Secondary, 1e-9)
	assert.Greater(t, mm1.OccupancySlope, 0.0)
	assert.Less(t, mm1.SecondarySlope, 0.0)

	mm1k := series[1]
	assert.Equal(t, core.Capacity(10), mm1k.Capacity)
	assert.Equal(t, "p_loss", mm1k.Secondary)
	assert.True(t, math.IsNaN(mm1k.OccupancySlope))
}
