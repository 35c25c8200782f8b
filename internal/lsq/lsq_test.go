package lsq

import (
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

func curveProblem(x, y []float64, model func(x float64, p []float64) float64) Problem {
	return Problem{
		M: len(x),
		Residuals: func(dst, p []float64) {
			for i, xi := range x {
				dst[i] = model(xi, p) - y[i]
			}
		},
	}
}

func gaussian(x float64, p []float64) float64 {
	return 1 / (p[1] * math.Sqrt(2*math.Pi)) * math.Exp(-0.5*math.Pow((x-p[0])/p[1], 2))
}

func TestMinimize_Gaussian(t *testing.T) {
	tests := []struct {
		name      string
		x         []float64
		mu, sigma float64
	}{
		{"wide", linspace(0, 1, 10), 0.5, 1.2},
		{"narrow", linspace(0, 1, 100), 0.3, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := make([]float64, len(tt.x))
			for i, xi := range tt.x {
				y[i] = gaussian(xi, []float64{tt.mu, tt.sigma})
			}

			res, err := Minimize(curveProblem(tt.x, y, gaussian), []float64{0, 1}, nil, nil, nil)
			require.NoError(t, err)
			require.InDelta(t, tt.mu, res.X[0], 1e-6)
			require.InDelta(t, tt.sigma, res.X[1], 1e-6)
			require.Less(t, res.Cost, 1e-16)
		})
	}
}

func TestMinimize_Polynomial(t *testing.T) {
	x := linspace(-2, 2, 50)
	model := func(x float64, p []float64) float64 {
		return p[0] + p[1]*math.Pow(x, 3) + p[2]*math.Pow(x, 5)
	}
	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = model(xi, []float64{1.5, -0.5, 0.25})
	}

	for _, guess := range [][]float64{{0, 0, 0}, {1, 1, 1}} {
		res, err := Minimize(curveProblem(x, y, model), guess, nil, nil, nil)
		require.NoError(t, err)
		require.InDeltaSlice(t, []float64{1.5, -0.5, 0.25}, res.X, 1e-8)
	}
}

func TestMinimize_Bounded(t *testing.T) {
	x := make([]float64, 100)
	y := make([]float64, 100)
	model := func(x float64, p []float64) float64 { return 10 * math.Pow(x/100, p[0]) }
	for i := range x {
		x[i] = float64(10 + i)
		y[i] = model(x[i], []float64{0.14})
	}

	res, err := Minimize(curveProblem(x, y, model), []float64{0.1}, []float64{-1}, []float64{1}, nil)
	require.NoError(t, err)
	require.InDelta(t, 0.14, res.X[0], 1e-8)
}

func TestMinimize_ActiveBound(t *testing.T) {
	// The unconstrained optimum of (p-3)² lies outside [0, 1].
	prob := Problem{M: 1, Residuals: func(dst, p []float64) { dst[0] = p[0] - 3 }}

	res, err := Minimize(prob, []float64{0.5}, []float64{0}, []float64{1}, nil)
	require.NoError(t, err)
	require.InDelta(t, 1.0, res.X[0], 1e-12)
}

func TestMinimize_GuessClipped(t *testing.T) {
	prob := Problem{M: 1, Residuals: func(dst, p []float64) { dst[0] = p[0] - 0.25 }}

	res, err := Minimize(prob, []float64{5}, []float64{0}, []float64{1}, nil)
	require.NoError(t, err)
	require.InDelta(t, 0.25, res.X[0], 1e-10)
}

func TestMinimize_IterationCap(t *testing.T) {
	x := linspace(0, 1, 100)
	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = gaussian(xi, []float64{0.3, 0.2})
	}

	_, err := Minimize(curveProblem(x, y, gaussian), []float64{0, 1}, nil, nil, &Settings{MaxIterations: 1})
	require.ErrorIs(t, err, errs.ErrFitConvergence)
}

func TestMinimize_Errors(t *testing.T) {
	prob := Problem{M: 2, Residuals: func(dst, p []float64) { dst[0], dst[1] = p[0], p[0] }}

	_, err := Minimize(Problem{}, []float64{1}, nil, nil, nil)
	require.ErrorIs(t, err, errs.ErrFitConvergence)

	_, err = Minimize(prob, []float64{1, 2, 3}, nil, nil, nil)
	require.ErrorIs(t, err, errs.ErrFitConvergence)

	_, err = Minimize(prob, []float64{1}, []float64{0, 0}, nil, nil)
	require.ErrorIs(t, err, errs.ErrBounds)

	_, err = Minimize(prob, []float64{1}, []float64{2}, []float64{1}, nil)
	require.ErrorIs(t, err, errs.ErrBounds)

	nan := Problem{M: 1, Residuals: func(dst, p []float64) { dst[0] = math.NaN() }}
	_, err = Minimize(nan, []float64{1}, nil, nil, nil)
	require.ErrorIs(t, err, errs.ErrFitConvergence)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "cost converged", CostConverged.String())
	require.Equal(t, "damping saturated", DampingSaturated.String())
	require.Equal(t, "unknown", Status(0).String())
}
