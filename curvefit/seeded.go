package curvefit

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// The sinusoid and gaussian fitters are nonlinear models whose default guess is
// derived from the data instead of fixed values, which keeps the solver out of the
// wrong basin for periodic or narrow-peaked data.

func (m *Model) initSinusoid() {
	m.Names = []string{"A", "omega", "phi", "B"}
	m.Formula = "{A}*sin({omega}*x+{phi})+{B}"
	m.eval = func(x, p []float64, _ map[string]float64) ([]float64, error) {
		out := make([]float64, len(x))
		for i, xi := range x {
			out[i] = p[0]*math.Sin(p[1]*xi+p[2]) + p[3]
		}

		return out, nil
	}
}

func (m *Model) initGaussian(consts map[string]float64) {
	m.Names = []string{"A", "mu", "sigma"}
	m.Consts["offset"] = consts["offset"]
	m.Formula = "{A}*exp(-1/2*((x-{mu})/{sigma})**2)+{offset}"
	m.eval = func(x, p []float64, c map[string]float64) ([]float64, error) {
		off := c["offset"]
		out := make([]float64, len(x))
		for i, xi := range x {
			z := (xi - p[1]) / p[2]
			out[i] = p[0]*math.Exp(-0.5*z*z) + off
		}

		return out, nil
	}
}

// dataGuess returns a data-derived initial guess, or nil when the model kind has none.
func (m *Model) dataGuess(x, y []float64) []float64 {
	switch m.Kind {
	case KindSinusoid:
		return seedSinusoid(x, y)
	case KindGaussian:
		return seedGaussian(x, y, m.Consts["offset"])
	default:
		return nil
	}
}

// seedSinusoid estimates amplitude, angular frequency, phase and offset from the
// dominant bin of the real FFT, assuming roughly uniform sampling.
func seedSinusoid(x, y []float64) []float64 {
	n := len(y)
	mean, std := stat.PopMeanStdDev(y, nil)
	amp := math.Sqrt2 * std
	if n < 4 || x[n-1] == x[0] {
		return []float64{amp, 1, 0, mean}
	}

	centered := make([]float64, n)
	for i, v := range y {
		centered[i] = v - mean
	}
	coeffs := fourier.NewFFT(n).Coefficients(nil, centered)

	best := 1
	for k := 2; k < len(coeffs); k++ {
		if cmplx.Abs(coeffs[k]) > cmplx.Abs(coeffs[best]) {
			best = k
		}
	}

	dx := (x[n-1] - x[0]) / float64(n-1)
	omega := 2 * math.Pi * float64(best) / (float64(n) * dx)
	phi := cmplx.Phase(coeffs[best]) + math.Pi/2 - omega*x[0]
	phi = math.Remainder(phi, 2*math.Pi)

	return []float64{amp, omega, phi, mean}
}

// seedGaussian estimates height, centre and width from the moments of y-offset,
// using only the positive part as weights.
func seedGaussian(x, y []float64, offset float64) []float64 {
	w := make([]float64, len(y))
	for i, v := range y {
		w[i] = math.Max(v-offset, 0)
	}

	height := floats.Max(w)
	if floats.Sum(w) == 0 {
		mu, sigma := stat.PopMeanStdDev(x, nil)
		if sigma == 0 {
			sigma = 1
		}

		return []float64{floats.Max(y) - offset, mu, sigma}
	}

	mu, variance := stat.PopMeanVariance(x, w)
	sigma := math.Sqrt(variance)
	if sigma == 0 || math.IsNaN(sigma) {
		sigma = 1
	}

	return []float64{height, mu, sigma}
}
