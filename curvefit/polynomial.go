package curvefit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/loadkit/errs"
)

// fitLinear solves the least-squares problem y ≈ Σ p[j]·x^exps[j] by QR factorisation
// of the design matrix.
//
// Parameters:
//   - x, y: Cleaned samples
//   - exps: Exponent of each coefficient
//
// Returns:
//   - []float64: Coefficients in exps order
//   - error: errs.ErrShape when there are fewer samples than coefficients,
//     errs.ErrFitConvergence when the design matrix is singular
func fitLinear(x, y, exps []float64) ([]float64, error) {
	n, k := len(x), len(exps)
	if n < k {
		return nil, fmt.Errorf("%w: %d samples for %d polynomial coefficients", errs.ErrShape, n, k)
	}

	a := designMatrix(x, exps)
	b := mat.NewVecDense(n, y)
	c := mat.NewVecDense(k, nil)

	qr := new(mat.QR)
	qr.Factorize(a)
	if err := qr.SolveVecTo(c, false, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: could not solve QR: %w", errs.ErrFitConvergence, err)
		}
	}

	coeffs := make([]float64, k)
	for j := range coeffs {
		coeffs[j] = c.AtVec(j)
		if math.IsNaN(coeffs[j]) || math.IsInf(coeffs[j], 0) {
			return nil, fmt.Errorf("%w: singular polynomial design matrix", errs.ErrFitConvergence)
		}
	}

	return coeffs, nil
}

// designMatrix returns the n×k matrix with entries x[i]^exps[j].
func designMatrix(x, exps []float64) *mat.Dense {
	a := mat.NewDense(len(x), len(exps), nil)
	for i, xi := range x {
		for j, e := range exps {
			a.Set(i, j, pow(xi, e))
		}
	}

	return a
}

// pow special-cases small integer exponents, which dominate polynomial fits.
func pow(x, e float64) float64 {
	switch e {
	case 0:
		return 1
	case 1:
		return x
	case 2:
		return x * x
	case 3:
		return x * x * x
	}

	return math.Pow(x, e)
}
