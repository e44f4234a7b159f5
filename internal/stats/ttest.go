package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TTestResult is the outcome of a Welch two-sample t-test.
type TTestResult struct {
	T     float64
	P     float64
	DF    float64
	MeanA float64
	MeanB float64
	NA    int
	NB    int
}

// WelchT runs Welch's unequal-variance t-test on two independent samples and
// returns the t statistic with a two-sided p-value. Both samples need at
// least two observations, otherwise ErrInsufficientData.
//
// When both samples have zero variance the standard error vanishes: equal
// means report (t=0, p=1), unequal means report (t=±Inf, p=0). Swapping the
// samples negates t and leaves p unchanged.
func WelchT(a, b []float64) (TTestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return TTestResult{}, ErrInsufficientData
	}

	na, nb := float64(len(a)), float64(len(b))
	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)

	res := TTestResult{
		MeanA: meanA,
		MeanB: meanB,
		NA:    len(a),
		NB:    len(b),
	}

	sa, sb := varA/na, varB/nb
	se := math.Sqrt(sa + sb)
	if se == 0 {
		res.DF = na + nb - 2
		if meanA == meanB {
			res.T, res.P = 0, 1
			return res, nil
		}
		res.T = math.Inf(1)
		if meanA < meanB {
			res.T = math.Inf(-1)
		}
		res.P = 0
		return res, nil
	}

	res.T = (meanA - meanB) / se
	// Welch–Satterthwaite approximation of the degrees of freedom.
	res.DF = (sa + sb) * (sa + sb) / (sa*sa/(na-1) + sb*sb/(nb-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: res.DF}
	res.P = 2 * dist.CDF(-math.Abs(res.T))
	return res, nil
}
