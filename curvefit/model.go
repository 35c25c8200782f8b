package curvefit

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/arloliu/loadkit/curvefit/expr"
	"github.com/arloliu/loadkit/errs"
)

// evalFunc evaluates a model for coefficient vector p and constants c.
type evalFunc func(x, p []float64, c map[string]float64) ([]float64, error)

// Model is a curve-fit model and its current coefficient values.
//
// Values are updated in place by every successful Fit, so a Model must not be
// fitted from several goroutines at once.
type Model struct {
	// Kind is the model family.
	Kind Kind
	// Name is the predefined model or fitter name, empty for formulas.
	Name string
	// Names lists the coefficients in parameter order.
	Names []string
	// Values holds the current coefficient values, parallel to Names.
	Values []float64
	// Consts holds the constants, fixed during fitting.
	Consts map[string]float64
	// Formula is the display template with {name} placeholders.
	Formula string
	// Lower and Upper are the model's default bounds, nil when unbounded.
	Lower, Upper []float64
	// Guess is the model's default initial guess, nil when it has none.
	Guess []float64

	spec      Spec
	eval      evalFunc
	exponents []float64
}

// NewModel builds a model from spec.
//
// For formula models, placeholders named in consts are held fixed and every other
// placeholder becomes a fit coefficient. For predefined models consts override the
// declared constant defaults.
//
// Parameters:
//   - spec: Parsed model specification
//   - consts: Constant values, may be nil
//
// Returns:
//   - *Model: Model with default coefficient values
//   - error: errs.ErrModelDefinition or errs.ErrUnknownModel
func NewModel(spec Spec, consts map[string]float64) (*Model, error) {
	m := &Model{Kind: spec.Kind, Name: spec.Name, spec: spec, Consts: map[string]float64{}}

	var err error
	switch spec.Kind {
	case KindFormula:
		err = m.initFormula(spec.Formula, consts)
	case KindPredefined:
		err = m.initPredefined(spec.Name, consts)
	case KindPolynomialContinuous:
		exps := make([]float64, spec.Order+1)
		for i := range exps {
			exps[i] = float64(spec.Order - i)
		}
		m.initPolynomial(exps)
	case KindPolynomialDiscrete:
		if len(spec.Exponents) == 0 {
			return nil, fmt.Errorf("%w: discrete polynomial without exponents", errs.ErrModelDefinition)
		}
		m.initPolynomial(slices.Clone(spec.Exponents))
	case KindSinusoid:
		m.initSinusoid()
	case KindGaussian:
		m.initGaussian(consts)
	default:
		return nil, fmt.Errorf("%w: kind %d", errs.ErrUnknownModel, int(spec.Kind))
	}
	if err != nil {
		return nil, err
	}

	if m.Values == nil {
		m.Values = make([]float64, len(m.Names))
		if m.Guess != nil {
			copy(m.Values, m.Guess)
		}
	}

	return m, nil
}

// ParseModel parses s and builds the model.
func ParseModel(s string, consts map[string]float64) (*Model, error) {
	spec, err := ParseSpec(s)
	if err != nil {
		return nil, err
	}

	return NewModel(spec, consts)
}

// Spec returns the specification the model was built from.
func (m *Model) Spec() Spec { return m.spec }

// CoeffMap returns the current coefficient values keyed by name.
func (m *Model) CoeffMap() map[string]float64 {
	out := make(map[string]float64, len(m.Names))
	for i, name := range m.Names {
		out[name] = m.Values[i]
	}

	return out
}

// Evaluate evaluates the model at x with its current coefficients.
func (m *Model) Evaluate(x []float64) ([]float64, error) {
	return m.eval(x, m.Values, m.Consts)
}

// String returns a summary of the model.
func (m *Model) String() string {
	parts := make([]string, len(m.Names))
	for i, name := range m.Names {
		parts[i] = name + "=" + DefaultFormat(m.Values[i])
	}

	return fmt.Sprintf("Model{Kind: %s, Coeffs: [%s], Formula: %s}", m.Kind, strings.Join(parts, " "), m.Formula)
}

func (m *Model) initFormula(formula string, consts map[string]float64) error {
	prog, err := expr.Compile(formula)
	if err != nil {
		return err
	}

	// slot[i] is the coefficient index of placeholder i, or -1 for a constant.
	params := prog.Params()
	slot := make([]int, len(params))
	for i, name := range params {
		if v, ok := consts[name]; ok {
			m.Consts[name] = v
			slot[i] = -1

			continue
		}
		slot[i] = len(m.Names)
		m.Names = append(m.Names, name)
	}
	if len(m.Names) == 0 {
		return fmt.Errorf("%w: formula %q has no fit parameters", errs.ErrModelDefinition, formula)
	}

	m.Formula = formula
	m.eval = func(x, p []float64, c map[string]float64) ([]float64, error) {
		full := make([]float64, len(params))
		for i, s := range slot {
			if s >= 0 {
				full[i] = p[s]
			} else {
				full[i] = c[params[i]]
			}
		}

		return prog.Eval(nil, x, full)
	}

	// Throwaway evaluation with a nonzero guess catches formulas that cannot
	// produce one value per sample.
	probe := make([]float64, len(m.Names))
	for i := range probe {
		probe[i] = 1
	}
	if _, err := m.eval([]float64{0.5, 1, 2}, probe, m.Consts); err != nil {
		return err
	}

	return nil
}

func (m *Model) initPredefined(name string, consts map[string]float64) error {
	pm, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: predefined model %q", errs.ErrUnknownModel, name)
	}

	desc := pm.Describe()
	m.Names = desc.Coeffs
	m.Guess = desc.Defaults
	m.Formula = desc.Formula
	m.Lower, m.Upper = desc.Lower, desc.Upper
	for _, c := range desc.Consts {
		if v, ok := consts[c]; ok {
			m.Consts[c] = v
		} else {
			m.Consts[c] = desc.ConstDefaults[c]
		}
	}
	m.eval = func(x, p []float64, c map[string]float64) ([]float64, error) {
		return pm.Evaluate(x, p, c), nil
	}

	return nil
}

// initPolynomial sets up y = Σ p[j]·x^exps[j] with coefficients named a, b, c, ...
func (m *Model) initPolynomial(exps []float64) {
	m.exponents = exps
	m.Names = make([]string, len(exps))
	terms := make([]string, len(exps))
	for j, e := range exps {
		m.Names[j] = coeffName(j)
		terms[j] = fmt.Sprintf("{%s}*x**%s", m.Names[j], strconv.FormatFloat(e, 'g', -1, 64))
	}
	m.Formula = cleanFormula(strings.Join(terms, " + "))
	m.eval = func(x, p []float64, _ map[string]float64) ([]float64, error) {
		out := make([]float64, len(x))
		for i, xi := range x {
			for j, e := range exps {
				out[i] += p[j] * pow(xi, e)
			}
		}

		return out, nil
	}
}

func coeffName(j int) string {
	if j < 26 {
		return string(rune('a' + j))
	}

	return "c" + strconv.Itoa(j)
}

func (m *Model) snapshot() (evalFunc, []float64, map[string]float64) {
	return m.eval, slices.Clone(m.Values), maps.Clone(m.Consts)
}
