package stats_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"go-correlation-report/pkg/stats"
)

type PearsonSuite struct {
	suite.Suite
}

func TestPearsonSuite(t *testing.T) {
	suite.Run(t, new(PearsonSuite))
}

// TestKnownValues checks r and p against hand-computed references.
func (s *PearsonSuite) TestKnownValues() {
	cases := []struct {
		name string
		x, y []float64
		r, p float64
	}{
		{"moderate positive", []float64{1, 2, 3, 4, 5}, []float64{2, 4, 5, 4, 5}, 0.7745967, 0.1240271},
		{"strong negative", []float64{1, 2, 3, 4, 5, 6, 7, 8}, []float64{8, 6, 7, 5, 3, 4, 2, 1}, -0.9523810, 0.0002604},
		{"borderline significant", []float64{1, 2, 3, 4, 5, 6}, []float64{2, 1, 4, 3, 6, 5}, 0.8285714, 0.0415627},
	}
	for _, tc := range cases {
		got, err := stats.Pearson(tc.x, tc.y)
		require.NoError(s.T(), err, tc.name)
		require.InDelta(s.T(), tc.r, got.R, 1e-6, tc.name)
		require.InDelta(s.T(), tc.p, got.P, 1e-5, tc.name)
		require.Equal(s.T(), len(tc.x), got.N, tc.name)
	}
}

// TestPerfectCorrelation: r = ±1 gives p = 0 once n > 2.
func (s *PearsonSuite) TestPerfectCorrelation() {
	got, err := stats.Pearson([]float64{1, 0, 1}, []float64{5, 3, 5})
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 1.0, got.R, 1e-12)
	require.InDelta(s.T(), 0.0, got.P, 1e-6)

	got, err = stats.Pearson([]float64{1, 2, 3, 4}, []float64{4, 3, 2, 1})
	require.NoError(s.T(), err)
	require.InDelta(s.T(), -1.0, got.R, 1e-12)
	require.GreaterOrEqual(s.T(), got.R, -1.0)
}

// TestTwoPairs: two points always correlate perfectly with p = 1.
func (s *PearsonSuite) TestTwoPairs() {
	got, err := stats.Pearson([]float64{1, 2}, []float64{3, 7})
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 1.0, got.R, 1e-12)
	require.Equal(s.T(), 1.0, got.P)
}

// TestMissingValuesDroppedPairwise: NaN in either vector removes the row.
func (s *PearsonSuite) TestMissingValuesDroppedPairwise() {
	nan := math.NaN()
	x := []float64{1, 2, nan, 3, 4, 5}
	y := []float64{2, 4, 9, 5, nan, 4}

	got, err := stats.Pearson(x, y)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 4, got.N)

	ref, err := stats.Pearson([]float64{1, 2, 3, 5}, []float64{2, 4, 5, 4})
	require.NoError(s.T(), err)
	require.Equal(s.T(), ref, got)
}

// TestConstantInput yields ErrConstantInput for either side.
func (s *PearsonSuite) TestConstantInput() {
	_, err := stats.Pearson([]float64{1, 2, 3}, []float64{7, 7, 7})
	require.ErrorIs(s.T(), err, stats.ErrConstantInput)

	_, err = stats.Pearson([]float64{0.1, 0.1, 0.1}, []float64{1, 2, 3})
	require.ErrorIs(s.T(), err, stats.ErrConstantInput)
}

// TestDegenerateInputs covers length mismatch and too few pairs.
func (s *PearsonSuite) TestDegenerateInputs() {
	_, err := stats.Pearson([]float64{1, 2, 3}, []float64{1, 2})
	require.ErrorIs(s.T(), err, stats.ErrLengthMismatch)

	_, err = stats.Pearson([]float64{1}, []float64{2})
	require.ErrorIs(s.T(), err, stats.ErrTooFewPairs)

	_, err = stats.Pearson(nil, nil)
	require.ErrorIs(s.T(), err, stats.ErrTooFewPairs)

	nan := math.NaN()
	_, err = stats.Pearson([]float64{1, nan, 3}, []float64{nan, 2, nan})
	require.ErrorIs(s.T(), err, stats.ErrTooFewPairs)
}

// TestInfiniteValues are rejected instead of yielding NaN.
func (s *PearsonSuite) TestInfiniteValues() {
	_, err := stats.Pearson([]float64{1, 0, 1, 0}, []float64{math.Inf(1), 3, 5, 2})
	require.ErrorIs(s.T(), err, stats.ErrNonFinite)

	_, err = stats.Pearson([]float64{math.Inf(-1), 2, 3}, []float64{1, 2, 3})
	require.ErrorIs(s.T(), err, stats.ErrNonFinite)

	// an infinite value on a dropped row does not count
	nan := math.NaN()
	got, err := stats.Pearson([]float64{1, 2, 3, math.Inf(1)}, []float64{2, 4, 5, nan})
	require.NoError(s.T(), err)
	require.Equal(s.T(), 3, got.N)
}

// TestLargeMagnitudes: r does not collapse when sums of squares would overflow.
func (s *PearsonSuite) TestLargeMagnitudes() {
	y := []float64{1, 0, 1, 0}
	got, err := stats.Pearson([]float64{1e200, 2e200, 4e200, 1e200}, y)
	require.NoError(s.T(), err)

	ref, err := stats.Pearson([]float64{1, 2, 4, 1}, y)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 1/math.Sqrt(6), got.R, 1e-9)
	require.InDelta(s.T(), ref.R, got.R, 1e-12)
	require.InDelta(s.T(), ref.P, got.P, 1e-9)

	got, err = stats.Pearson([]float64{-1e300, 1e300, 1e300, -1e300}, y)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 0.0, got.R, 1e-12)

	got, err = stats.Pearson([]float64{1e-300, 2e-300, 4e-300, 1e-300}, y)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 1/math.Sqrt(6), got.R, 1e-9)
}

// TestInputsUntouched: Pearson must not reorder or modify its arguments.
func (s *PearsonSuite) TestInputsUntouched() {
	x := []float64{3, 1, 2}
	y := []float64{9, 4, 1}
	_, err := stats.Pearson(x, y)
	require.NoError(s.T(), err)
	require.Equal(s.T(), []float64{3, 1, 2}, x)
	require.Equal(s.T(), []float64{9, 4, 1}, y)
}

// TestComputationErrorUnwraps exposes the cause through errors.Is / As.
func (s *PearsonSuite) TestComputationErrorUnwraps() {
	var err error = &stats.ComputationError{Variable: "Age", Err: stats.ErrConstantInput}
	require.ErrorIs(s.T(), err, stats.ErrConstantInput)

	var ce *stats.ComputationError
	require.True(s.T(), errors.As(err, &ce))
	require.Equal(s.T(), "Age", ce.Variable)
	require.Contains(s.T(), err.Error(), "Age: ")
}

func TestRound(t *testing.T) {
	require.Equal(t, 0.77, stats.Round(0.7745966, 2))
	require.Equal(t, 0.12403, stats.Round(0.1240271, 5))
	require.Equal(t, -0.95, stats.Round(-0.952381, 2))
	require.Equal(t, 0.13, stats.Round(0.125, 2))
	require.Equal(t, -0.13, stats.Round(-0.125, 2))
	require.True(t, math.IsNaN(stats.Round(math.NaN(), 2)))
}
