package crossval

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the absolute validation errors of a single fold run.
type Stats struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	Std    float64
	MSE    float64
}

// Summarize computes the six fold-level statistics from a sequence of
// absolute errors. Std is the sample standard deviation of the mean-centered
// errors (Bessel's correction, N-1 denominator); with a single error it is
// undefined and reported as NaN rather than 0. MSE is the mean of the
// squared errors.
func Summarize(absErrs []float64) Stats {
	n := len(absErrs)
	if n == 0 {
		nan := math.NaN()
		return Stats{Min: nan, Max: nan, Mean: nan, Median: nan, Std: nan, MSE: nan}
	}

	s := Stats{
		Min:  floats.Min(absErrs),
		Max:  floats.Max(absErrs),
		Mean: stat.Mean(absErrs, nil),
	}

	sorted := make([]float64, n)
	copy(sorted, absErrs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		s.Median = sorted[n/2]
	} else {
		s.Median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	if n < 2 {
		s.Std = math.NaN()
	} else {
		s.Std = stat.StdDev(absErrs, nil)
	}

	sq := 0.0
	for _, e := range absErrs {
		sq += e * e
	}
	s.MSE = sq / float64(n)

	return s
}

// valid reports whether every statistic is a finite number.
func (s Stats) valid() bool {
	for _, v := range [...]float64{s.Min, s.Max, s.Mean, s.Median, s.Std, s.MSE} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
