// Package lsq implements a box-bounded Levenberg-Marquardt solver for nonlinear
// least-squares problems.
//
// The Jacobian is approximated by forward differences and each step solves the damped
// normal equations (JᵀJ + λ·diag(JᵀJ))δ = -Jᵀr with gonum/mat. Trial points are projected
// onto the bounds before their cost is evaluated, so every accepted iterate is feasible.
package lsq

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/loadkit/errs"
)

const (
	// DefaultMaxIterations is the outer iteration cap used when Settings leaves it zero.
	DefaultMaxIterations = 1000
	// DefaultTolerance is the relative cost and step tolerance used when Settings leaves it zero.
	DefaultTolerance = 1e-15

	diffStep   = 1.4901161193847656e-08 // sqrt(machine epsilon)
	lambdaInit = 1e-3
	lambdaMin  = 1e-15
	lambdaMax  = 1e16
	diagFloor  = 1e-12
)

// Status reports why the solver stopped.
type Status int

const (
	// CostConverged means the relative cost reduction fell below the tolerance.
	CostConverged Status = iota + 1
	// StepConverged means the step length fell below the tolerance.
	StepConverged
	// GradientConverged means the gradient vanished, typically at an exact fit.
	GradientConverged
	// DampingSaturated means no step reduced the cost even with maximal damping.
	DampingSaturated
)

func (s Status) String() string {
	switch s {
	case CostConverged:
		return "cost converged"
	case StepConverged:
		return "step converged"
	case GradientConverged:
		return "gradient converged"
	case DampingSaturated:
		return "damping saturated"
	default:
		return "unknown"
	}
}

// ResidualFunc writes the residuals for parameters p into dst.
// len(dst) is the number of observations of the Problem.
type ResidualFunc func(dst, p []float64)

// Problem describes a least-squares problem with M residuals.
type Problem struct {
	Residuals ResidualFunc
	M         int
}

// Settings tunes the solver. The zero value selects the defaults.
type Settings struct {
	MaxIterations int
	Tolerance     float64
	Logger        *slog.Logger
}

// Result is the outcome of a successful Minimize call.
type Result struct {
	X          []float64
	Cost       float64
	Iterations int
	Status     Status
}

// Minimize searches for parameters within [lower, upper] that minimise the sum of
// squared residuals of prob, starting at x0.
//
// Nil lower or upper means unbounded on that side. x0 is clipped into the bounds.
// Exceeding the iteration cap or a non-finite cost at x0 returns an error wrapping
// errs.ErrFitConvergence.
func Minimize(prob Problem, x0, lower, upper []float64, settings *Settings) (*Result, error) {
	n := len(x0)
	if prob.Residuals == nil || prob.M == 0 || n == 0 {
		return nil, fmt.Errorf("%w: empty problem", errs.ErrFitConvergence)
	}
	if prob.M < n {
		return nil, fmt.Errorf("%w: %d observations for %d parameters", errs.ErrFitConvergence, prob.M, n)
	}

	s := resolveSettings(settings)
	lo, hi, err := resolveBounds(n, lower, upper)
	if err != nil {
		return nil, err
	}

	w := newWorkspace(prob, n)
	p := make([]float64, n)
	project(p, x0, lo, hi)

	prob.Residuals(w.r, p)
	cost := floats.Dot(w.r, w.r)
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return nil, fmt.Errorf("%w: non-finite cost at initial guess %v", errs.ErrFitConvergence, p)
	}

	lambda := lambdaInit
	for iter := 0; iter < s.MaxIterations; iter++ {
		w.jacobian(p, hi)

		w.jtj.Mul(w.jac.T(), w.jac)
		w.grad.MulVec(w.jac.T(), mat.NewVecDense(prob.M, w.r))
		if mat.Norm(&w.grad, math.Inf(1)) < 1e-30 {
			return done(p, cost, iter, GradientConverged), nil
		}

		for {
			if w.step(lambda) {
				project(w.trial, addInto(w.trial, p, w.delta.RawVector().Data), lo, hi)
				prob.Residuals(w.rTrial, w.trial)
				trialCost := floats.Dot(w.rTrial, w.rTrial)

				if trialCost <= cost {
					stepLen := floats.Distance(w.trial, p, 2)
					pNorm := floats.Norm(p, 2)
					drop := cost - trialCost
					prev := cost

					copy(p, w.trial)
					copy(w.r, w.rTrial)
					cost = trialCost
					lambda = math.Max(lambda/10, lambdaMin)

					if s.Logger != nil {
						s.Logger.Debug("lsq step accepted",
							slog.Int("iteration", iter),
							slog.Float64("cost", cost),
							slog.Float64("lambda", lambda))
					}

					if drop <= s.Tolerance*prev {
						return done(p, cost, iter+1, CostConverged), nil
					}
					if stepLen <= s.Tolerance*(pNorm+s.Tolerance) {
						return done(p, cost, iter+1, StepConverged), nil
					}

					break
				}
			}

			lambda *= 10
			if lambda > lambdaMax {
				return done(p, cost, iter+1, DampingSaturated), nil
			}
		}
	}

	return nil, fmt.Errorf("%w: iteration cap %d reached (cost %g)", errs.ErrFitConvergence, s.MaxIterations, cost)
}

func resolveSettings(settings *Settings) Settings {
	var s Settings
	if settings != nil {
		s = *settings
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = DefaultMaxIterations
	}
	if s.Tolerance <= 0 {
		s.Tolerance = DefaultTolerance
	}

	return s
}

func resolveBounds(n int, lower, upper []float64) ([]float64, []float64, error) {
	lo := make([]float64, n)
	hi := make([]float64, n)
	for i := range n {
		lo[i] = math.Inf(-1)
		hi[i] = math.Inf(1)
	}
	if lower != nil {
		if len(lower) != n {
			return nil, nil, fmt.Errorf("%w: %d lower bounds for %d parameters", errs.ErrBounds, len(lower), n)
		}
		copy(lo, lower)
	}
	if upper != nil {
		if len(upper) != n {
			return nil, nil, fmt.Errorf("%w: %d upper bounds for %d parameters", errs.ErrBounds, len(upper), n)
		}
		copy(hi, upper)
	}
	for i := range n {
		if lo[i] > hi[i] {
			return nil, nil, fmt.Errorf("%w: lower bound %g exceeds upper bound %g", errs.ErrBounds, lo[i], hi[i])
		}
	}

	return lo, hi, nil
}

func done(p []float64, cost float64, iterations int, status Status) *Result {
	return &Result{X: p, Cost: cost, Iterations: iterations, Status: status}
}

func project(dst, src, lo, hi []float64) {
	for i, v := range src {
		dst[i] = math.Min(math.Max(v, lo[i]), hi[i])
	}
}

func addInto(dst, a, b []float64) []float64 {
	for i := range a {
		dst[i] = a[i] + b[i]
	}

	return dst
}

type workspace struct {
	prob   Problem
	r      []float64
	rTrial []float64
	rProbe []float64
	probe  []float64
	trial  []float64

	jac   *mat.Dense
	jtj   mat.Dense
	grad  mat.VecDense
	damp  *mat.Dense
	rhs   *mat.VecDense
	delta mat.VecDense
}

func newWorkspace(prob Problem, n int) *workspace {
	return &workspace{
		prob:   prob,
		r:      make([]float64, prob.M),
		rTrial: make([]float64, prob.M),
		rProbe: make([]float64, prob.M),
		probe:  make([]float64, n),
		trial:  make([]float64, n),
		jac:    mat.NewDense(prob.M, n, nil),
		damp:   mat.NewDense(n, n, nil),
		rhs:    mat.NewVecDense(n, nil),
	}
}

// jacobian fills w.jac by forward differences around p. The probe steps backwards
// when a forward step would leave the upper bound.
func (w *workspace) jacobian(p, hi []float64) {
	copy(w.probe, p)
	for j := range p {
		h := diffStep * math.Max(math.Abs(p[j]), 1)
		if p[j]+h > hi[j] {
			h = -h
		}
		w.probe[j] = p[j] + h
		w.prob.Residuals(w.rProbe, w.probe)
		for i := range w.rProbe {
			w.jac.Set(i, j, (w.rProbe[i]-w.r[i])/h)
		}
		w.probe[j] = p[j]
	}
}

// step solves the damped normal equations for w.delta and reports whether a usable
// step was found.
func (w *workspace) step(lambda float64) bool {
	n, _ := w.jtj.Dims()
	w.damp.Copy(&w.jtj)
	for i := range n {
		d := w.jtj.At(i, i)
		w.damp.Set(i, i, d+lambda*math.Max(d, diagFloor))
		w.rhs.SetVec(i, -w.grad.AtVec(i))
	}

	if err := w.delta.SolveVec(w.damp, w.rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return false
		}
	}

	for i := range n {
		if v := w.delta.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
