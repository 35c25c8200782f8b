package curvefit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/loadkit/errs"
)

// Kind identifies the model family and, with it, the fitting strategy.
type Kind int

const (
	// KindPredefined is a model from the predefined registry ("predef: <name>").
	KindPredefined Kind = iota + 1
	// KindFormula is a user formula with {coeff} placeholders ("eval: <expr>").
	KindFormula
	// KindPolynomialContinuous fits every power from 0 to the order.
	KindPolynomialContinuous
	// KindPolynomialDiscrete fits a selected list of exponents.
	KindPolynomialDiscrete
	// KindSinusoid fits A*sin(omega*x+phi)+B seeded from the spectrum of y.
	KindSinusoid
	// KindGaussian fits a scaled gaussian seeded from the moments of y.
	KindGaussian
)

var kindNames = map[Kind]string{
	KindPredefined:           "predefined",
	KindFormula:              "formula",
	KindPolynomialContinuous: "polynomial_continuous",
	KindPolynomialDiscrete:   "polynomial_discrete",
	KindSinusoid:             "sinusoid",
	KindGaussian:             "gaussian",
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}

// Linear reports whether the kind is solved by linear least squares without iteration.
func (k Kind) Linear() bool {
	return k == KindPolynomialContinuous || k == KindPolynomialDiscrete
}

// Spec is a parsed model specification string.
type Spec struct {
	Kind Kind
	// Name is the predefined model or fitter name.
	Name string
	// Formula is the expression of an "eval:" spec.
	Formula string
	// Order is the polynomial order of a continuous polynomial.
	Order int
	// Exponents lists the powers of a discrete polynomial in coefficient order.
	Exponents []float64
}

const (
	prefixEval   = "eval:"
	prefixPredef = "predef:"
	prefixFitter = "fitter:"
)

// ParseSpec parses a model specification.
//
// Recognised forms, after trimming surrounding whitespace:
//
//	eval: {a}*x + {b}
//	predef: gaussian
//	fitter: polynomial_continuous 3
//	fitter: polynomial_discrete 0 3 5
//	fitter: sinusoid
//	fitter: gaussian
//
// Parameters:
//   - s: Model specification
//
// Returns:
//   - Spec: Parsed specification
//   - error: errs.ErrUnknownModel for an unknown prefix, predefined model or fitter;
//     errs.ErrModelDefinition for malformed fitter arguments or an empty formula
func ParseSpec(s string) (Spec, error) {
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, prefixEval):
		formula := strings.TrimSpace(s[len(prefixEval):])
		if formula == "" {
			return Spec{}, fmt.Errorf("%w: empty formula", errs.ErrModelDefinition)
		}

		return Spec{Kind: KindFormula, Formula: formula}, nil

	case strings.HasPrefix(s, prefixPredef):
		name := strings.TrimSpace(s[len(prefixPredef):])
		if _, ok := Lookup(name); !ok {
			return Spec{}, fmt.Errorf("%w: predefined model %q", errs.ErrUnknownModel, name)
		}

		return Spec{Kind: KindPredefined, Name: name}, nil

	case strings.HasPrefix(s, prefixFitter):
		return parseFitter(strings.Fields(s[len(prefixFitter):]))
	}

	return Spec{}, fmt.Errorf("%w: unrecognised specification %q", errs.ErrUnknownModel, s)
}

func parseFitter(fields []string) (Spec, error) {
	if len(fields) == 0 {
		return Spec{}, fmt.Errorf("%w: missing fitter name", errs.ErrUnknownModel)
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "polynomial_continuous":
		if len(args) != 1 {
			return Spec{}, fmt.Errorf("%w: polynomial_continuous takes one order, got %d arguments",
				errs.ErrModelDefinition, len(args))
		}
		order, err := strconv.Atoi(args[0])
		if err != nil || order < 0 {
			return Spec{}, fmt.Errorf("%w: invalid polynomial order %q", errs.ErrModelDefinition, args[0])
		}

		return Spec{Kind: KindPolynomialContinuous, Name: name, Order: order}, nil

	case "polynomial_discrete":
		if len(args) == 0 {
			return Spec{}, fmt.Errorf("%w: polynomial_discrete needs at least one exponent", errs.ErrModelDefinition)
		}
		exps := make([]float64, len(args))
		for i, arg := range args {
			e, err := strconv.ParseFloat(strings.Trim(arg, ","), 64)
			if err != nil {
				return Spec{}, fmt.Errorf("%w: invalid exponent %q", errs.ErrModelDefinition, arg)
			}
			exps[i] = e
		}

		return Spec{Kind: KindPolynomialDiscrete, Name: name, Exponents: exps}, nil

	case "sinusoid":
		return Spec{Kind: KindSinusoid, Name: name}, nil

	case "gaussian":
		return Spec{Kind: KindGaussian, Name: name}, nil
	}

	return Spec{}, fmt.Errorf("%w: fitter %q", errs.ErrUnknownModel, name)
}

// String returns the canonical specification text, suitable for ParseSpec.
func (s Spec) String() string {
	switch s.Kind {
	case KindFormula:
		return prefixEval + " " + s.Formula
	case KindPredefined:
		return prefixPredef + " " + s.Name
	case KindPolynomialContinuous:
		return fmt.Sprintf("%s polynomial_continuous %d", prefixFitter, s.Order)
	case KindPolynomialDiscrete:
		parts := make([]string, len(s.Exponents))
		for i, e := range s.Exponents {
			parts[i] = strconv.FormatFloat(e, 'g', -1, 64)
		}

		return prefixFitter + " polynomial_discrete " + strings.Join(parts, " ")
	case KindSinusoid, KindGaussian:
		return prefixFitter + " " + s.Kind.String()
	}

	return ""
}
