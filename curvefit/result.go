package curvefit

import (
	"fmt"
	"maps"
	"slices"
)

// Result is the outcome of a single fit. It is read-only and independent of later
// re-fits of the model that produced it.
type Result struct {
	// Kind is the fitted model family.
	Kind Kind
	// YFit holds the fitted values at every input x, in input order.
	YFit []float64
	// Coeffs holds the fitted coefficients in parameter order.
	Coeffs []float64
	// CoeffMap holds the fitted coefficients keyed by name.
	CoeffMap map[string]float64
	// Names lists the coefficient names in parameter order.
	Names []string
	// Consts holds the constants used during the fit.
	Consts map[string]float64
	// RSquared is the coefficient of determination, clipped at 0.
	RSquared float64
	// RMSE is the root mean square error over the finite samples.
	RMSE float64
	// Formula is the model template with {name} placeholders.
	Formula string
	// Iterations is the number of solver iterations, 0 for linear fitters.
	Iterations int

	eval evalFunc
}

func (m *Model) newResult(x, y []float64, iterations int) (*Result, error) {
	eval, coeffs, consts := m.snapshot()

	yfit, err := eval(x, coeffs, consts)
	if err != nil {
		return nil, err
	}

	return &Result{
		Kind:       m.Kind,
		YFit:       yfit,
		Coeffs:     coeffs,
		CoeffMap:   m.CoeffMap(),
		Names:      slices.Clone(m.Names),
		Consts:     consts,
		RSquared:   calculateRSquared(y, yfit),
		RMSE:       calculateRMSE(y, yfit),
		Formula:    m.Formula,
		Iterations: iterations,
		eval:       eval,
	}, nil
}

// Func evaluates the fitted function at x.
func (r *Result) Func(x []float64) []float64 {
	out, err := r.eval(x, r.Coeffs, r.Consts)
	if err != nil {
		// formulas are shape-checked when the model is built
		panic(err)
	}

	return out
}

// At evaluates the fitted function at a single x.
func (r *Result) At(x float64) float64 {
	return r.Func([]float64{x})[0]
}

// FormulaNum returns the formula with coefficients and constants substituted using
// format. A nil format selects DefaultFormat.
func (r *Result) FormulaNum(format FormatFunc) string {
	values := maps.Clone(r.CoeffMap)
	maps.Copy(values, r.Consts)

	s := Render(r.Formula, values, format)
	if r.Kind.Linear() {
		s = cleanFormula(s)
	}

	return s
}

// String returns a summary of the result.
func (r *Result) String() string {
	return fmt.Sprintf("Result{Kind: %s, R²: %.4f, RMSE: %.4g, Formula: %s}",
		r.Kind, r.RSquared, r.RMSE, r.FormulaNum(nil))
}
