package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrLengthMismatch = errors.New("x and y must have the same length")
	ErrTooFewPairs    = errors.New("at least 2 complete pairs are required")
	ErrConstantInput  = errors.New("an input array is constant; the correlation coefficient is not defined")
	ErrNonFinite      = errors.New("input contains infinite values")
	ErrUndefined      = errors.New("the correlation coefficient is not finite")
)

// CorrelationStats holds a Pearson coefficient and its two-tailed p-value.
type CorrelationStats struct {
	R float64
	P float64
	N int // complete pairs used
}

// ComputationError reports why a correlation could not be computed for a
// predictor.
type ComputationError struct {
	Variable string
	Err      error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Variable, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// Pearson computes the Pearson product-moment correlation of x and y and the
// two-tailed p-value for the null hypothesis of no correlation. Rows where
// either value is NaN are dropped pairwise.
func Pearson(x, y []float64) (CorrelationStats, error) {
	if len(x) != len(y) {
		return CorrelationStats{}, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(x), len(y))
	}

	xs, ys := CompletePairs(x, y)
	n := len(xs)
	if n < 2 {
		return CorrelationStats{N: n}, fmt.Errorf("%w: got %d", ErrTooFewPairs, n)
	}
	if i := firstInf(xs, ys); i >= 0 {
		return CorrelationStats{N: n}, fmt.Errorf("%w: pair %d", ErrNonFinite, i)
	}
	if isConstant(xs) || isConstant(ys) {
		return CorrelationStats{N: n}, ErrConstantInput
	}

	// r is scale invariant; scaling to [-1, 1] keeps the sums of squares
	// from overflowing on large magnitudes
	r := stat.Correlation(scaled(xs), scaled(ys), nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return CorrelationStats{N: n}, ErrUndefined
	}
	// floating point error can push r slightly outside [-1, 1]
	r = math.Max(-1, math.Min(1, r))

	return CorrelationStats{R: r, P: pValue(r, n), N: n}, nil
}

// CompletePairs returns the values of x and y at the indexes where neither is
// NaN. Inputs are not modified.
func CompletePairs(x, y []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// pValue is the two-tailed probability of |t| under Student's t with n-2
// degrees of freedom.
func pValue(r float64, n int) float64 {
	if n == 2 {
		return 1
	}
	if math.Abs(r) == 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return math.Max(0, math.Min(1, p))
}

func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

func firstInf(x, y []float64) int {
	for i := range x {
		if math.IsInf(x[i], 0) || math.IsInf(y[i], 0) {
			return i
		}
	}
	return -1
}

// scaled returns x divided by its largest magnitude.
func scaled(x []float64) []float64 {
	m := floats.Max(x)
	if lo := -floats.Min(x); lo > m {
		m = lo
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v / m
	}
	return out
}
