package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData marks a computation whose input sample is too small for
// the statistic to be defined.
var ErrInsufficientData = errors.New("insufficient data")

// Summary holds the descriptive statistics of one numeric sample. Std is the
// sample standard deviation (n-1 denominator) and is NaN when the sample has
// fewer than two observations.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	P25    float64
	Median float64
	P75    float64
	Max    float64
}

// Describe computes the Summary of xs. An empty sample yields Count 0 with
// every statistic NaN.
func Describe(xs []float64) Summary {
	n := len(xs)
	if n == 0 {
		nan := math.NaN()
		return Summary{Std: nan, Mean: nan, Min: nan, P25: nan, Median: nan, P75: nan, Max: nan}
	}

	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)

	std := math.NaN()
	if n > 1 {
		std = math.Sqrt(stat.Variance(xs, nil))
	}

	return Summary{
		Count:  n,
		Mean:   stat.Mean(xs, nil),
		Std:    std,
		Min:    sorted[0],
		P25:    Percentile(sorted, 0.25),
		Median: Percentile(sorted, 0.5),
		P75:    Percentile(sorted, 0.75),
		Max:    sorted[n-1],
	}
}

// Percentile returns the p-quantile (0 ≤ p ≤ 1) of an ascending-sorted sample
// using linear interpolation between adjacent order statistics, i.e. the
// h = p·(n-1) definition spreadsheet tools and dataframe libraries default to.
// An empty sample yields NaN.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	frac := h - float64(lo)
	if frac == 0 {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Fences holds the quartiles and the Tukey outlier fences of one sample.
type Fences struct {
	Q1    float64
	Q3    float64
	IQR   float64
	Lower float64
	Upper float64
}

// IQRFences computes the quartiles of xs and the fences Q1-1.5·IQR and
// Q3+1.5·IQR. An empty sample yields NaN fences.
func IQRFences(xs []float64) Fences {
	if len(xs) == 0 {
		nan := math.NaN()
		return Fences{Q1: nan, Q3: nan, IQR: nan, Lower: nan, Upper: nan}
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	q1 := Percentile(sorted, 0.25)
	q3 := Percentile(sorted, 0.75)
	iqr := q3 - q1
	return Fences{
		Q1:    q1,
		Q3:    q3,
		IQR:   iqr,
		Lower: q1 - 1.5*iqr,
		Upper: q3 + 1.5*iqr,
	}
}

// MeanPercentChange averages the year-over-year percent changes of an ordered
// series. The first point has no predecessor and contributes nothing. Equal
// neighbours contribute exactly zero, so a constant series returns 0 rather
// than accumulating float noise. Fewer than two points is ErrInsufficientData.
func MeanPercentChange(series []float64) (float64, error) {
	if len(series) < 2 {
		return 0, ErrInsufficientData
	}
	changes := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		if cur == prev {
			changes = append(changes, 0)
			continue
		}
		changes = append(changes, (cur-prev)/prev*100)
	}
	return stat.Mean(changes, nil), nil
}
