package postprocess

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes object sizes in pixels.
type Stats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}

// SizeStats computes Stats over sizes. An empty input gives the zero value.
func SizeStats(sizes []int) Stats {
	if len(sizes) == 0 {
		return Stats{}
	}

	xs := make([]float64, len(sizes))
	for i, n := range sizes {
		xs[i] = float64(n)
	}
	sort.Float64s(xs)

	s := Stats{
		Count:  len(xs),
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
		Mean:   stat.Mean(xs, nil),
		Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, xs, nil),
	}
	if len(xs) > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	return s
}
