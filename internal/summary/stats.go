package summary

import (
	"math"
	"sort"
)

// Stats are descriptive statistics of a numeric column. Std is the sample
// standard deviation and is nil with fewer than two values. Quartiles use
// linear interpolation between closest ranks.
type Stats struct {
	Count int      `json:"count"`
	Mean  float64  `json:"mean"`
	Std   *float64 `json:"std"`
	Min   float64  `json:"min"`
	P25   float64  `json:"25%"`
	P50   float64  `json:"50%"`
	P75   float64  `json:"75%"`
	Max   float64  `json:"max"`
}

// Describe computes Stats over values. It returns nil for no values.
func Describe(values []float64) *Stats {
	n := len(values)
	if n == 0 {
		return nil
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	s := &Stats{
		Count: n,
		Mean:  mean,
		Min:   sorted[0],
		P25:   quantile(sorted, 0.25),
		P50:   quantile(sorted, 0.50),
		P75:   quantile(sorted, 0.75),
		Max:   sorted[n-1],
	}
	if n > 1 {
		var ss float64
		for _, v := range sorted {
			ss += (v - mean) * (v - mean)
		}
		std := math.Sqrt(ss / float64(n-1))
		s.Std = &std
	}
	return s
}

func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(n) / float64(total) * 100)
}
