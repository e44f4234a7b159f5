package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{"min", 0, 1},
		{"q1 interpolates", 0.25, 1.75},
		{"median interpolates", 0.5, 2.5},
		{"q3 interpolates", 0.75, 3.25},
		{"max", 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(sorted, tt.p), 1e-12)
		})
	}

	t.Run("exact order statistic when h is whole", func(t *testing.T) {
		assert.Equal(t, 2.0, Percentile([]float64{1, 2, 3}, 0.5))
	})

	t.Run("single element", func(t *testing.T) {
		assert.Equal(t, 7.0, Percentile([]float64{7}, 0.5))
	})

	t.Run("empty is NaN", func(t *testing.T) {
		assert.True(t, math.IsNaN(Percentile(nil, 0.5)))
	})
}

func TestDescribe(t *testing.T) {
	t.Run("basic sample", func(t *testing.T) {
		s := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})
		assert.Equal(t, 8, s.Count)
		assert.InDelta(t, 5.0, s.Mean, 1e-12)
		// Sample std with n-1 denominator.
		assert.InDelta(t, math.Sqrt(32.0/7.0), s.Std, 1e-12)
		assert.Equal(t, 2.0, s.Min)
		assert.Equal(t, 9.0, s.Max)
		assert.InDelta(t, 4.0, s.P25, 1e-12)
		assert.InDelta(t, 4.5, s.Median, 1e-12)
		assert.InDelta(t, 5.5, s.P75, 1e-12)
	})

	t.Run("single observation has no deviation", func(t *testing.T) {
		s := Describe([]float64{3.5})
		assert.Equal(t, 1, s.Count)
		assert.Equal(t, 3.5, s.Mean)
		assert.True(t, math.IsNaN(s.Std))
		assert.Equal(t, 3.5, s.Median)
	})

	t.Run("empty sample is all NaN", func(t *testing.T) {
		s := Describe(nil)
		assert.Equal(t, 0, s.Count)
		assert.True(t, math.IsNaN(s.Mean))
		assert.True(t, math.IsNaN(s.Std))
		assert.True(t, math.IsNaN(s.Median))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		xs := []float64{3, 1, 2}
		Describe(xs)
		assert.Equal(t, []float64{3, 1, 2}, xs)
	})
}

func TestIQRFences(t *testing.T) {
	t.Run("fences from interpolated quartiles", func(t *testing.T) {
		f := IQRFences([]float64{1, 2, 3, 4, 5, 6, 7, 8})
		assert.InDelta(t, 2.75, f.Q1, 1e-12)
		assert.InDelta(t, 6.25, f.Q3, 1e-12)
		assert.InDelta(t, 3.5, f.IQR, 1e-12)
		assert.InDelta(t, -2.5, f.Lower, 1e-12)
		assert.InDelta(t, 11.5, f.Upper, 1e-12)
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		xs := []float64{5, 1, 9, 3, 3, 7}
		assert.Equal(t, IQRFences(xs), IQRFences(xs))
	})

	t.Run("unsorted input", func(t *testing.T) {
		a := IQRFences([]float64{8, 1, 6, 3, 5, 2, 7, 4})
		b := IQRFences([]float64{1, 2, 3, 4, 5, 6, 7, 8})
		assert.Equal(t, b, a)
	})
}

func TestWelchT(t *testing.T) {
	t.Run("known value", func(t *testing.T) {
		res, err := WelchT([]float64{1, 2, 3, 4}, []float64{2, 3, 4, 5})
		require.NoError(t, err)
		assert.InDelta(t, -1.0954451150103321, res.T, 1e-12)
		assert.InDelta(t, 6.0, res.DF, 1e-9)
		assert.InDelta(t, 0.3153, res.P, 0.005)
	})

	t.Run("identical samples", func(t *testing.T) {
		xs := []float64{4, 5, 6, 7}
		res, err := WelchT(xs, xs)
		require.NoError(t, err)
		assert.Zero(t, res.T)
		assert.InDelta(t, 1.0, res.P, 1e-12)
	})

	t.Run("symmetric up to sign", func(t *testing.T) {
		a := []float64{3, 6, 7, 8, 9}
		b := []float64{2, 4, 4, 5}
		ab, err := WelchT(a, b)
		require.NoError(t, err)
		ba, err := WelchT(b, a)
		require.NoError(t, err)
		assert.InDelta(t, -ab.T, ba.T, 1e-12)
		assert.InDelta(t, ab.P, ba.P, 1e-12)
		assert.InDelta(t, ab.DF, ba.DF, 1e-12)
	})

	t.Run("requires two observations per sample", func(t *testing.T) {
		_, err := WelchT([]float64{1}, []float64{2, 3})
		require.ErrorIs(t, err, ErrInsufficientData)
		_, err = WelchT([]float64{1, 2}, []float64{3})
		require.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("zero variance equal means", func(t *testing.T) {
		res, err := WelchT([]float64{5, 5, 5}, []float64{5, 5})
		require.NoError(t, err)
		assert.Zero(t, res.T)
		assert.Equal(t, 1.0, res.P)
	})

	t.Run("zero variance unequal means", func(t *testing.T) {
		res, err := WelchT([]float64{6, 6}, []float64{5, 5})
		require.NoError(t, err)
		assert.True(t, math.IsInf(res.T, 1))
		assert.Zero(t, res.P)
	})
}

func TestMeanPercentChange(t *testing.T) {
	t.Run("mean of year over year changes", func(t *testing.T) {
		got, err := MeanPercentChange([]float64{100, 110, 121})
		require.NoError(t, err)
		assert.InDelta(t, 10.0, got, 1e-12)
	})

	t.Run("first point excluded", func(t *testing.T) {
		// Four points, three changes: +20%, -25%, +100%.
		got, err := MeanPercentChange([]float64{50, 60, 45, 90})
		require.NoError(t, err)
		assert.InDelta(t, 95.0/3.0, got, 1e-12)
	})

	t.Run("constant series is exactly zero", func(t *testing.T) {
		got, err := MeanPercentChange([]float64{7.25, 7.25, 7.25, 7.25})
		require.NoError(t, err)
		assert.Zero(t, got)
	})

	t.Run("fewer than two points", func(t *testing.T) {
		_, err := MeanPercentChange([]float64{42})
		require.ErrorIs(t, err, ErrInsufficientData)
		_, err = MeanPercentChange(nil)
		require.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestAverageRanks(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{"distinct values", []float64{9, 8, 7}, []float64{1, 2, 3}},
		{"pair tied for second", []float64{9.1, 8.0, 8.0, 7.5}, []float64{1, 2.5, 2.5, 4}},
		{"all tied", []float64{5, 5, 5}, []float64{2, 2, 2}},
		{"empty", nil, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AverageRanks(tt.values))
		})
	}
}
