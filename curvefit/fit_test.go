package curvefit

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/loadkit/errs"
)

func linspace(a, b float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = a + (b-a)*float64(i)/float64(n-1)
	}

	return out
}

func sample(x []float64, fn func(float64) float64) []float64 {
	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = fn(xi)
	}

	return y
}

func TestFit_PolynomialContinuousCubic(t *testing.T) {
	x := linspace(-3, 3, 41)
	for _, k := range []float64{-2.5, 0.1, 1, 7} {
		y := sample(x, func(v float64) float64 { return k * v * v * v })

		res, err := Fit("fitter: polynomial_continuous 3", x, y)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b", "c", "d"}, res.Names)
		require.InDelta(t, k, res.CoeffMap["a"], 1e-10)
		require.InDelta(t, 0, res.CoeffMap["b"], 1e-10)
		require.InDelta(t, 0, res.CoeffMap["c"], 1e-10)
		require.InDelta(t, 0, res.CoeffMap["d"], 1e-10)
		require.InDelta(t, 1.0, res.RSquared, 1e-12)
		require.Zero(t, res.Iterations)
	}
}

func TestFit_PolynomialDiscrete(t *testing.T) {
	x := linspace(-2, 2, 50)
	y := sample(x, func(v float64) float64 { return 1.5 - 0.5*math.Pow(v, 3) + 0.25*math.Pow(v, 5) })

	res, err := Fit("fitter: polynomial_discrete 0 3 5", x, y)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1.5, -0.5, 0.25}, res.Coeffs, 1e-6)
	require.Equal(t, "{a} + {b}*x**3 + {c}*x**5", res.Formula)
}

func TestFit_FormulaMatchesDiscretePolynomial(t *testing.T) {
	x := linspace(-2, 2, 50)
	y := sample(x, func(v float64) float64 { return 1.5 - 0.5*math.Pow(v, 3) + 0.25*math.Pow(v, 5) })

	discrete, err := Fit("fitter: polynomial_discrete 0 3 5", x, y)
	require.NoError(t, err)

	formula, err := Fit("eval: {a} + {b}*x**3 + {c}*x**5", x, y)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, formula.Names)
	require.InDeltaSlice(t, discrete.Coeffs, formula.Coeffs, 1e-6)
}

func TestFit_PredefinedGaussian(t *testing.T) {
	tests := []struct {
		name      string
		x         []float64
		mu, sigma float64
	}{
		{"unit_interval", linspace(0, 1, 10), 0.5, 1.2},
		{"wide", linspace(-4, 4, 81), 0.3, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := sample(tt.x, func(v float64) float64 { return gaussianPDF(v, tt.mu, tt.sigma) })

			res, err := Fit("predef: gaussian", tt.x, y)
			require.NoError(t, err)
			require.InDelta(t, tt.mu, res.CoeffMap["mu"], 1e-6)
			require.InDelta(t, tt.sigma, res.CoeffMap["sigma"], 1e-6)
			require.InDelta(t, 1.0, res.RSquared, 1e-9)
			require.Greater(t, res.Iterations, 0)
		})
	}
}

func TestFit_PowerlawConstants(t *testing.T) {
	x := make([]float64, 100)
	for i := range x {
		x[i] = float64(10 + i)
	}

	t.Run("default_constants", func(t *testing.T) {
		y := sample(x, func(v float64) float64 { return 10 * math.Pow(v/100, 0.14) })
		res, err := Fit("predef: powerlaw_alpha", x, y)
		require.NoError(t, err)
		require.InDelta(t, 0.14, res.CoeffMap["alpha"], 1e-8)
		require.Equal(t, map[string]float64{"u_ref": 10, "z_ref": 100}, res.Consts)
		require.Equal(t, "10 * (x / 100) ** 0.14", res.FormulaNum(PrecisionFormat(6)))
	})

	t.Run("override", func(t *testing.T) {
		y := sample(x, func(v float64) float64 { return 8 * math.Pow(v/50, 0.2) })
		res, err := Fit("predef: powerlaw_alpha", x, y,
			WithConstants(map[string]float64{"u_ref": 8, "z_ref": 50}))
		require.NoError(t, err)
		require.InDelta(t, 0.2, res.CoeffMap["alpha"], 1e-8)
	})

	t.Run("formula_constants", func(t *testing.T) {
		y := sample(x, func(v float64) float64 { return 10 * math.Pow(v/100, 0.14) })
		res, err := Fit("eval: {u_ref}*(x/{z_ref})**{alpha}", x, y,
			WithConstants(map[string]float64{"u_ref": 10, "z_ref": 100}),
			WithGuess(0.1))
		require.NoError(t, err)
		require.Equal(t, []string{"alpha"}, res.Names)
		require.InDelta(t, 0.14, res.Coeffs[0], 1e-8)
	})

	t.Run("bounded_u_alpha", func(t *testing.T) {
		y := sample(x, func(v float64) float64 { return 12 * math.Pow(v/100, 0.3) })
		res, err := Fit("predef: powerlaw_u_alpha", x, y)
		require.NoError(t, err)
		require.InDelta(t, 0.3, res.CoeffMap["alpha"], 1e-6)
		require.InDelta(t, 12, res.CoeffMap["u_ref"], 1e-6)
	})
}

func TestFit_ExpDecayWithBounds(t *testing.T) {
	x := linspace(0, 5, 60)
	y := sample(x, func(v float64) float64 { return 3*math.Exp(-0.7*v) + 0.4 })

	res, err := Fit("predef: expdecay", x, y,
		WithBoundsMap(map[string][2]float64{"k": {0, 10}, "all": {-100, 100}}))
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{3, 0.7, 0.4}, res.Coeffs, 1e-6)
}

func TestFit_Sinusoid(t *testing.T) {
	x := make([]float64, 200)
	for i := range x {
		x[i] = float64(i) * 0.05
	}
	omega := 2 * math.Pi * 0.4
	y := sample(x, func(v float64) float64 { return 2*math.Sin(omega*v+0.5) + 1 })

	res, err := Fit("fitter: sinusoid", x, y)
	require.NoError(t, err)
	require.InDelta(t, 2, res.CoeffMap["A"], 1e-6)
	require.InDelta(t, omega, res.CoeffMap["omega"], 1e-6)
	require.InDelta(t, 0.5, res.CoeffMap["phi"], 1e-6)
	require.InDelta(t, 1, res.CoeffMap["B"], 1e-6)
}

func TestFit_GaussianFitter(t *testing.T) {
	x := linspace(-5, 5, 101)
	y := sample(x, func(v float64) float64 {
		z := (v - 0.7) / 1.3
		return 3*math.Exp(-0.5*z*z) + 0.5
	})

	res, err := Fit("fitter: gaussian", x, y, WithConstants(map[string]float64{"offset": 0.5}))
	require.NoError(t, err)
	require.InDelta(t, 3, res.CoeffMap["A"], 1e-6)
	require.InDelta(t, 0.7, res.CoeffMap["mu"], 1e-6)
	require.InDelta(t, 1.3, res.CoeffMap["sigma"], 1e-6)
}

func TestFit_IgnoresNaNAndKeepsInputOrder(t *testing.T) {
	x := []float64{0, 1, math.NaN(), 3, 4, 5}
	y := []float64{1, 3, 5, math.NaN(), 9, 11}

	res, err := Fit("fitter: polynomial_continuous 1", x, y)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{2, 1}, res.Coeffs, 1e-12)
	require.Len(t, res.YFit, len(x))
	require.InDelta(t, 7.0, res.YFit[3], 1e-12)
	require.True(t, math.IsNaN(res.YFit[2]))
	require.InDelta(t, 1.0, res.RSquared, 1e-12)
}

func TestFit_RSquaredRoundTrip(t *testing.T) {
	x := linspace(0.5, 4, 30)
	y := sample(x, func(v float64) float64 { return 2*math.Log(v) + 1 })

	res, err := Fit("predef: logarithmic", x, y)
	require.NoError(t, err)

	r2, err := RSquared(y, res.Func(x))
	require.NoError(t, err)
	require.InDelta(t, 1.0, r2, 1e-12)
	require.InDelta(t, 2*math.Log(2.0)+1, res.At(2), 1e-8)
}

func TestResult_FuncEmptyInput(t *testing.T) {
	x := linspace(0, 4, 9)
	y := sample(x, func(v float64) float64 { return 3*v - 2 })

	for _, spec := range []string{"eval: {a}*x+{b}", "fitter: polynomial_continuous 1"} {
		res, err := Fit(spec, x, y)
		require.NoError(t, err, spec)
		require.NotPanics(t, func() {
			require.Empty(t, res.Func(nil), spec)
			require.Empty(t, res.Func([]float64{}), spec)
		}, spec)
	}
}

func TestFit_Errors(t *testing.T) {
	x := linspace(0, 1, 10)
	y := sample(x, func(v float64) float64 { return 2 * v })

	tests := []struct {
		name string
		spec string
		x, y []float64
		opts []Option
		want error
	}{
		{"no_x", "eval: {a} + {b}", x, y, nil, errs.ErrModelDefinition},
		{"no_params", "eval: 2*x", x, y, nil, errs.ErrModelDefinition},
		{"syntax", "eval: {a}*(x", x, y, nil, errs.ErrModelDefinition},
		{"unknown_predef", "predef: nope", x, y, nil, errs.ErrUnknownModel},
		{"unknown_fitter", "fitter: spline 3", x, y, nil, errs.ErrUnknownModel},
		{"unknown_prefix", "fit: a*x", x, y, nil, errs.ErrUnknownModel},
		{"length_mismatch", "eval: {a}*x", x, y[:5], nil, errs.ErrShape},
		{"all_nan", "eval: {a}*x", []float64{math.NaN()}, []float64{1}, nil, errs.ErrShape},
		{"empty", "eval: {a}*x", nil, nil, nil, errs.ErrShape},
		{"too_few_points", "fitter: polynomial_continuous 4", x[:3], y[:3], nil, errs.ErrShape},
		{"guess_length", "eval: {a}*x + {b}", x, y, []Option{WithGuess(1)}, errs.ErrGuess},
		{"guess_map", "eval: {a}*x + {b}", x, y, []Option{WithGuessMap(map[string]float64{"a": 1})}, errs.ErrGuess},
		{"bounds_length", "eval: {a}*x + {b}", x, y,
			[]Option{WithBounds([]float64{0, 0, 0}, []float64{1})}, errs.ErrBounds},
		{"bounds_map", "eval: {a}*x + {b}", x, y,
			[]Option{WithBoundsMap(map[string][2]float64{"a": {0, 1}})}, errs.ErrBounds},
		{"bounds_inverted", "eval: {a}*x", x, y, []Option{WithScalarBounds(1, 0)}, errs.ErrBounds},
		{"iteration_cap", "predef: gaussian", linspace(-4, 4, 81),
			sample(linspace(-4, 4, 81), func(v float64) float64 { return gaussianPDF(v, 0.3, 0.8) }),
			[]Option{WithMaxIterations(1)}, errs.ErrFitConvergence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.spec, tt.x, tt.y, tt.opts...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFit_NameInError(t *testing.T) {
	_, err := Fit("eval: {a}*x", []float64{1, 2}, []float64{1}, WithName("tower/Fx"))
	require.ErrorIs(t, err, errs.ErrShape)
	require.ErrorContains(t, err, "tower/Fx")
}

func TestFit_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	x := linspace(0, 1, 10)
	y := sample(x, func(v float64) float64 { return gaussianPDF(v, 0.5, 1.2) })
	_, err := Fit("predef: gaussian", x, y, WithLogger(logger), WithName("signal"))
	require.NoError(t, err)
	require.Contains(t, buf.String(), "curve fit completed")
	require.Contains(t, buf.String(), "name=signal")
}

func TestModel_Refit(t *testing.T) {
	m, err := ParseModel("eval: {a}*x + {b}", nil)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0}, m.Values)

	x := linspace(0, 1, 5)
	first, err := m.Fit(x, sample(x, func(v float64) float64 { return 2*v + 1 }))
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{2, 1}, m.Values, 1e-8)

	second, err := m.Fit(x, sample(x, func(v float64) float64 { return -v + 4 }))
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{-1, 4}, m.Values, 1e-8)

	// Earlier results keep their own coefficients.
	require.InDeltaSlice(t, []float64{2, 1}, first.Coeffs, 1e-8)
	require.InDelta(t, 3.0, first.At(1), 1e-8)
	require.InDelta(t, 3.0, second.At(1), 1e-8)

	got, err := m.Evaluate([]float64{2})
	require.NoError(t, err)
	require.InDelta(t, 2.0, got[0], 1e-8)
	require.Contains(t, m.String(), "Kind: formula")
}

func TestRSquared(t *testing.T) {
	r2, err := RSquared([]float64{1, 2, 3, math.NaN()}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	require.InDelta(t, 1.0, r2, 1e-15)

	// Worse than the mean clips to zero.
	r2, err = RSquared([]float64{1, 2, 3}, []float64{3, 2, 1e3})
	require.NoError(t, err)
	require.Zero(t, r2)

	_, err = RSquared([]float64{1, 2}, []float64{1})
	require.ErrorIs(t, err, errs.ErrShape)

	rmse, err := RMSE([]float64{1, 2, 3}, []float64{2, 3, 4})
	require.NoError(t, err)
	require.InDelta(t, 1.0, rmse, 1e-15)
}
