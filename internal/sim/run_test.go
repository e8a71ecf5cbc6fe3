package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qsim/internal/collector"
	"qsim/internal/core"
	"qsim/internal/variate"
)

func labParams(p, horizon float64, k core.Capacity) core.Params {
	return core.Params{
		LineRate:     1_000_000,
		PacketLength: 2000,
		Intensity:    p,
		Horizon:      horizon,
		Capacity:     k,
	}
}

func mustRun(t *testing.T, spec RunSpec) collector.Record {
	t.Helper()
	rec, err := Run(context.Background(), spec)
	require.NoError(t, err)
	require.False(t, rec.Failed())
	return rec
}

func TestRun_RecordFields(t *testing.T) {
	rec := mustRun(t, RunSpec{Index: 3, Sweep: "mm1", Replicate: 1, Seed: 11, Params: labParams(0.5, 10, core.Unbounded)})

	assert.Equal(t, 3, rec.Index)
	assert.Equal(t, "mm1", rec.Sweep)
	assert.Equal(t, 1, rec.Replicate)
	assert.Equal(t, uint64(11), rec.Seed)
	assert.Len(t, rec.ID, 36)
	assert.Positive(t, rec.Events)
	assert.Positive(t, rec.Result.Observers)
	assert.GreaterOrEqual(t, rec.Result.Arrivals, rec.Result.Departures)
}

func TestRun_SameSeedSameResult(t *testing.T) {
	spec := RunSpec{Seed: 99, Params: labParams(0.75, 20, 25)}

	a := mustRun(t, spec)
	b := mustRun(t, spec)

	assert.Equal(t, a.Result, b.Result)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRun_UnboundedBounds(t *testing.T) {
	for i, p := range []float64{0.25, 0.55, 0.85} {
		rec := mustRun(t, RunSpec{Seed: uint64(i + 1), Params: labParams(p, 50, core.Unbounded)})

		idle, ok := rec.Result.IdleProbability()
		require.True(t, ok)
		assert.GreaterOrEqual(t, rec.Result.MeanOccupancy, 0.0, "p=%v", p)
		assert.GreaterOrEqual(t, idle, 0.0, "p=%v", p)
		assert.LessOrEqual(t, idle, 100.0, "p=%v", p)
	}
}

func TestRun_FiniteBounds(t *testing.T) {
	for i, p := range []float64{0.5, 1.0, 1.5} {
		for _, k := range []core.Capacity{0, 10, 25} {
			rec := mustRun(t, RunSpec{Seed: uint64(10 + i), Params: labParams(p, 20, k)})

			loss, ok := rec.Result.LossProbability()
			require.True(t, ok)
			assert.GreaterOrEqual(t, rec.Result.MeanOccupancy, 0.0, "p=%v K=%d", p, k)
			assert.LessOrEqual(t, rec.Result.MeanOccupancy, float64(k), "p=%v K=%d", p, k)
			assert.GreaterOrEqual(t, loss, 0.0, "p=%v K=%d", p, k)
			assert.LessOrEqual(t, loss, 100.0, "p=%v K=%d", p, k)
		}
	}
}

func TestRun_LossVanishesAtLightLoad(t *testing.T) {
	rec := mustRun(t, RunSpec{Seed: 5, Params: labParams(0.01, 200, 10)})

	loss, _ := rec.Result.LossProbability()
	assert.Zero(t, loss)
}

func TestRun_LossSaturatesUnderOverload(t *testing.T) {
	rec := mustRun(t, RunSpec{Seed: 5, Params: labParams(20, 2, 5)})

	loss, _ := rec.Result.LossProbability()
	assert.Greater(t, loss, 95.0)
	assert.InDelta(t, 5.0, rec.Result.MeanOccupancy, 0.25)
}

func TestRun_SmallerBufferLosesMore(t *testing.T) {
	for seed := uint64(1); seed <= 3; seed++ {
		k10 := mustRun(t, RunSpec{Seed: seed, Params: labParams(1.1, 50, 10)})
		k50 := mustRun(t, RunSpec{Seed: seed, Params: labParams(1.1, 50, 50)})

		l10, _ := k10.Result.LossProbability()
		l50, _ := k50.Result.LossProbability()
		assert.GreaterOrEqual(t, l10, l50, "seed %d", seed)
	}
}

func TestRun_OverloadTerminates(t *testing.T) {
	light := mustRun(t, RunSpec{Seed: 8, Params: labParams(0.25, 50, core.Unbounded)})
	heavy := mustRun(t, RunSpec{Seed: 8, Params: labParams(1.2, 50, core.Unbounded)})

	assert.False(t, math.IsInf(heavy.Result.MeanOccupancy, 0))
	assert.False(t, math.IsNaN(heavy.Result.MeanOccupancy))
	assert.Greater(t, heavy.Result.MeanOccupancy, 100.0)
	assert.Greater(t, heavy.Result.MeanOccupancy, 50*light.Result.MeanOccupancy)

	// bounded by lambda*T: 600/s over 50s plus observers at 5x
	assert.Less(t, heavy.Events, int(1.2*(600*50*2+3000*50)))
}

func TestRun_TrendsAcrossSeeds(t *testing.T) {
	var ps, occ, idle []float64
	for seed := uint64(1); seed <= 3; seed++ {
		for p := 0.25; p < 0.96; p += 0.10 {
			rec := mustRun(t, RunSpec{Seed: seed*100 + uint64(p*100), Params: labParams(p, 100, core.Unbounded)})
			ps = append(ps, p)
			occ = append(occ, rec.Result.MeanOccupancy)
			pIdle, _ := rec.Result.IdleProbability()
			idle = append(idle, pIdle)
		}
	}

	assert.Greater(t, collector.Slope(ps, occ), 0.0, "E[n] should rise with p")
	assert.Less(t, collector.Slope(ps, idle), 0.0, "P_idle should fall with p")
}

func TestRun_DegenerateHorizon(t *testing.T) {
	rec, err := Run(context.Background(), RunSpec{Seed: 1, Params: labParams(0.5, 0, core.Unbounded)})

	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDegenerateRun))
	assert.True(t, rec.Failed())
	assert.Contains(t, rec.Error, "degenerate")
}

func TestRun_InvalidParams(t *testing.T) {
	_, err := Run(context.Background(), RunSpec{Params: labParams(-1, 10, core.Unbounded)})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := Run(ctx, RunSpec{Params: labParams(0.5, 10, core.Unbounded)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, rec.Failed())
}

func TestRun_CustomSource(t *testing.T) {
	rec := mustRun(t, RunSpec{
		Params: labParams(0.5, 10, core.Unbounded),
		Source: variate.NewStreamSource("custom"),
	})
	assert.Positive(t, rec.Result.Observers)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "degenerate", outcome(core.ErrDegenerateRun))
	assert.Equal(t, "invalid", outcome(core.ErrInvalidParameter))
	assert.Equal(t, "error", outcome(context.Canceled))
}
