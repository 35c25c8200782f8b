package curvefit

import (
	"fmt"
	"math"

	"github.com/arloliu/loadkit/errs"
)

// RSquared returns the coefficient of determination of f against y.
//
// Positions where either y or f is NaN are ignored. The result is
// max(0, 1 - SS_res/SS_tot) and is 0 when y has no variance.
//
// Parameters:
//   - y: Observed values
//   - f: Fitted values
//
// Returns:
//   - float64: R² in [0, 1]
//   - error: errs.ErrShape when the lengths differ
func RSquared(y, f []float64) (float64, error) {
	if len(y) != len(f) {
		return 0, fmt.Errorf("%w: %d observed vs %d fitted values", errs.ErrShape, len(y), len(f))
	}

	return calculateRSquared(y, f), nil
}

// RMSE returns the root mean square error of f against y, ignoring NaN positions.
func RMSE(y, f []float64) (float64, error) {
	if len(y) != len(f) {
		return 0, fmt.Errorf("%w: %d observed vs %d fitted values", errs.ErrShape, len(y), len(f))
	}

	return calculateRMSE(y, f), nil
}

func calculateRSquared(observed, predicted []float64) float64 {
	var sum float64
	var n int
	for i, o := range observed {
		if math.IsNaN(o) || math.IsNaN(predicted[i]) {
			continue
		}
		sum += o
		n++
	}
	if n == 0 {
		return 0
	}

	mean := sum / float64(n)
	ssTot, ssRes := 0.0, 0.0
	for i, o := range observed {
		p := predicted[i]
		if math.IsNaN(o) || math.IsNaN(p) {
			continue
		}
		ssTot += (o - mean) * (o - mean)
		ssRes += (o - p) * (o - p)
	}

	if ssTot == 0 {
		return 0
	}

	return math.Max(0, 1.0-ssRes/ssTot)
}

func calculateRMSE(observed, predicted []float64) float64 {
	sumSq := 0.0
	n := 0
	for i, o := range observed {
		diff := o - predicted[i]
		if math.IsNaN(diff) {
			continue
		}
		sumSq += diff * diff
		n++
	}
	if n == 0 {
		return 0
	}

	return math.Sqrt(sumSq / float64(n))
}
