package curvefit

import (
	"maps"
	"math"
	"slices"
)

// Description is the self-description of a predefined model.
type Description struct {
	// Coeffs lists the fit coefficients in parameter order.
	Coeffs []string
	// Defaults holds the default initial value of each coefficient.
	Defaults []float64
	// Consts lists the constants the model requires, in declaration order.
	Consts []string
	// ConstDefaults holds the value used for a constant the caller does not supply.
	ConstDefaults map[string]float64
	// Formula is the display template with {name} placeholders for coefficients and constants.
	Formula string
	// Lower and Upper are the default bounds, nil when the model is unbounded.
	Lower, Upper []float64
}

// Predefined is a model from the static registry.
//
// Evaluate must not retain x or p and must return a new slice of len(x).
type Predefined interface {
	Describe() Description
	Evaluate(x, p []float64, consts map[string]float64) []float64
}

type predefined struct {
	desc Description
	fn   func(x float64, p []float64, c map[string]float64) float64
}

func (m predefined) Describe() Description {
	d := m.desc
	d.Coeffs = slices.Clone(d.Coeffs)
	d.Defaults = slices.Clone(d.Defaults)
	d.Consts = slices.Clone(d.Consts)
	d.Lower = slices.Clone(d.Lower)
	d.Upper = slices.Clone(d.Upper)
	d.ConstDefaults = maps.Clone(d.ConstDefaults)

	return d
}

func (m predefined) Evaluate(x, p []float64, consts map[string]float64) []float64 {
	c := make(map[string]float64, len(m.desc.Consts))
	for _, name := range m.desc.Consts {
		if v, ok := consts[name]; ok {
			c[name] = v
		} else {
			c[name] = m.desc.ConstDefaults[name]
		}
	}

	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = m.fn(xi, p, c)
	}

	return out
}

func gaussianPDF(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return 1 / (sigma * math.Sqrt(2*math.Pi)) * math.Exp(-0.5*z*z)
}

var registry = map[string]Predefined{
	"gaussian": predefined{
		desc: Description{
			Coeffs:   []string{"mu", "sigma"},
			Defaults: []float64{0, 1},
			Formula:  "1/({sigma}*sqrt(2*pi)) * exp(-1/2 * ((x-{mu})/{sigma})**2)",
		},
		fn: func(x float64, p []float64, _ map[string]float64) float64 {
			return gaussianPDF(x, p[0], p[1])
		},
	},
	"gaussian-yoff": predefined{
		desc: Description{
			Coeffs:   []string{"sigma", "mu", "y0"},
			Defaults: []float64{1, 0, 0},
			Formula:  "1/({sigma}*sqrt(2*pi)) * exp(-1/2 * ((x-{mu})/{sigma})**2) + {y0}",
		},
		fn: func(x float64, p []float64, _ map[string]float64) float64 {
			return gaussianPDF(x, p[1], p[0]) + p[2]
		},
	},
	"expdecay": predefined{
		desc: Description{
			Coeffs:   []string{"A", "k", "B"},
			Defaults: []float64{1, 1, 0},
			Formula:  "{A}*exp(-{k}*x)+{B}",
		},
		fn: func(x float64, p []float64, _ map[string]float64) float64 {
			return p[0]*math.Exp(-p[1]*x) + p[2]
		},
	},
	"logarithmic": predefined{
		desc: Description{
			Coeffs:   []string{"a", "b"},
			Defaults: []float64{1, 0},
			Formula:  "{a}*log(x)+{b}",
		},
		fn: func(x float64, p []float64, _ map[string]float64) float64 {
			return p[0]*math.Log(x) + p[1]
		},
	},
	"powerlaw_all": predefined{
		desc: Description{
			Coeffs:   []string{"alpha", "u_ref", "z_ref"},
			Defaults: []float64{0.1, 10, 100},
			Formula:  "{u_ref} * (x / {z_ref}) ** {alpha}",
		},
		fn: func(x float64, p []float64, _ map[string]float64) float64 {
			return p[1] * math.Pow(x/p[2], p[0])
		},
	},
	"powerlaw_alpha": predefined{
		desc: Description{
			Coeffs:        []string{"alpha"},
			Defaults:      []float64{0.1},
			Consts:        []string{"u_ref", "z_ref"},
			ConstDefaults: map[string]float64{"u_ref": 10, "z_ref": 100},
			Formula:       "{u_ref} * (x / {z_ref}) ** {alpha}",
			Lower:         []float64{-1},
			Upper:         []float64{1},
		},
		fn: func(x float64, p []float64, c map[string]float64) float64 {
			return c["u_ref"] * math.Pow(x/c["z_ref"], p[0])
		},
	},
	"powerlaw_u_alpha": predefined{
		desc: Description{
			Coeffs:        []string{"alpha", "u_ref"},
			Defaults:      []float64{0.1, 10},
			Consts:        []string{"z_ref"},
			ConstDefaults: map[string]float64{"z_ref": 100},
			Formula:       "{u_ref} * (x / {z_ref}) ** {alpha}",
			Lower:         []float64{-1, 0},
			Upper:         []float64{1, math.Inf(1)},
		},
		fn: func(x float64, p []float64, c map[string]float64) float64 {
			return p[1] * math.Pow(x/c["z_ref"], p[0])
		},
	},
	"weibull_pdf": predefined{
		desc: Description{
			Coeffs:   []string{"A", "k"},
			Defaults: []float64{1, 1},
			Formula:  "{k}/{A} * (x/{A})**({k}-1) * exp(-(x/{A})**{k})",
		},
		fn: func(x float64, p []float64, _ map[string]float64) float64 {
			if x < 0 {
				return 0
			}
			a, k := p[0], p[1]

			return k / a * math.Pow(x/a, k-1) * math.Exp(-math.Pow(x/a, k))
		},
	},
}

// Lookup returns the predefined model registered under name.
func Lookup(name string) (Predefined, bool) {
	m, ok := registry[name]
	return m, ok
}

// Names returns the registered predefined model names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}
