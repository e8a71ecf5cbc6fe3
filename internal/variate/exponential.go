package variate

import (
	"fmt"
	"math"
)

// Exponential draws one exponentially distributed duration with mean 1/rate
// using the inverse CDF, -ln(1-U)/rate. U is in [0,1), so the log argument is never zero.
//
// rate must be positive and finite; anything else panics, like rand.Intn(0).
func Exponential(src Source, rate float64) float64 {
	if !(rate > 0) || math.IsInf(rate, 1) {
		panic(fmt.Sprintf("variate: invalid parameter: rate %v must be positive and finite", rate))
	}
	u := src.Float64()
	return -math.Log(1-u) / rate
}

// Sample draws n exponential durations.
func Sample(src Source, rate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = Exponential(src, rate)
	}
	return out
}

// Moments returns the sample mean and the unbiased (n-1) sample variance.
// Variance is 0 for fewer than two values.
func Moments(xs []float64) (mean, variance float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs) - 1)
	return mean, variance
}
