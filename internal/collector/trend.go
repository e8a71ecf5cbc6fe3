package collector

import (
	"math"
	"slices"

	"qsim/internal/core"
)

// Point is the replicate average of one (sweep, capacity, intensity) cell.
type Point struct {
	Intensity     float64
	MeanOccupancy float64
	Secondary     float64
	Runs          int
}

// Series groups the runs of one sweep at one capacity, ordered by intensity.
type Series struct {
	Sweep     string
	Capacity  core.Capacity
	Secondary string
	Points    []Point

	// Least-squares slopes over every successful run, not over the averages,
	// so replicates weigh in.
	OccupancySlope float64
	SecondarySlope float64
}

type seriesKey struct {
	sweep    string
	capacity core.Capacity
}

// BuildSeries groups records into series in order of first appearance.
// Failed runs are skipped.
func BuildSeries(records []Record) []Series {
	var (
		order  []seriesKey
		groups = make(map[seriesKey][]Record)
	)
	for _, r := range records {
		if r.Failed() {
			continue
		}
		k := seriesKey{sweep: r.Sweep, capacity: r.Params.Capacity}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	out := make([]Series, 0, len(order))
	for _, k := range order {
		out = append(out, buildSeries(k, groups[k]))
	}
	return out
}

func buildSeries(k seriesKey, recs []Record) Series {
	s := Series{
		Sweep:     k.sweep,
		Capacity:  k.capacity,
		Secondary: secondaryName(k.capacity),
	}

	xs := make([]float64, len(recs))
	occ := make([]float64, len(recs))
	sec := make([]float64, len(recs))
	cells := make(map[float64]*Point)

	for i, r := range recs {
		p := r.Params.Rho()
		xs[i], occ[i], sec[i] = p, r.Result.MeanOccupancy, r.Result.Secondary

		pt, ok := cells[p]
		if !ok {
			pt = &Point{Intensity: p}
			cells[p] = pt
		}
		pt.MeanOccupancy += r.Result.MeanOccupancy
		pt.Secondary += r.Result.Secondary
		pt.Runs++
	}

	for _, pt := range cells {
		pt.MeanOccupancy = round(pt.MeanOccupancy / float64(pt.Runs))
		pt.Secondary = round(pt.Secondary / float64(pt.Runs))
		s.Points = append(s.Points, *pt)
	}
	slices.SortFunc(s.Points, func(a, b Point) int {
		switch {
		case a.Intensity < b.Intensity:
			return -1
		case a.Intensity > b.Intensity:
			return 1
		}
		return 0
	})

	s.OccupancySlope = Slope(xs, occ)
	s.SecondarySlope = Slope(xs, sec)
	return s
}

// Slope is the ordinary least-squares slope of ys against xs.
// It is NaN when xs has no spread or the lengths differ.
func Slope(xs, ys []float64) float64 {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return math.NaN()
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - mx
		sxy += dx * (ys[i] - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return math.NaN()
	}
	return sxy / sxx
}
