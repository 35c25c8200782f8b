package curvefit

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/internal/lsq"
	"github.com/arloliu/loadkit/internal/options"
)

// FitConfig holds the per-call settings of a fit.
type FitConfig struct {
	// Guess is a positional initial guess, nil when unset.
	Guess []float64
	// GuessMap is an initial guess keyed by coefficient name, nil when unset.
	GuessMap map[string]float64
	// Lower and Upper are positional bounds; a single-element side is broadcast.
	Lower, Upper []float64
	// BoundsMap holds bounds keyed by coefficient name, "all" acting as a wildcard.
	BoundsMap map[string][2]float64
	// Constants overrides the values of model constants.
	Constants map[string]float64
	// MaxIterations caps the nonlinear solver.
	MaxIterations int
	// Tolerance is the solver's relative cost and step tolerance.
	Tolerance float64
	// Name identifies the data in error messages, typically "table/column".
	Name string
	// Logger receives debug records; nil keeps the fit silent.
	Logger *slog.Logger
}

func defaultFitConfig() FitConfig {
	return FitConfig{
		MaxIterations: lsq.DefaultMaxIterations,
		Tolerance:     lsq.DefaultTolerance,
	}
}

// Option is a functional option for FitConfig.
type Option = options.Option[*FitConfig]

// WithGuess sets a positional initial guess. Its length must match the coefficient count.
func WithGuess(guess ...float64) Option {
	return options.NoError(func(cfg *FitConfig) {
		cfg.Guess = guess
		cfg.GuessMap = nil
	})
}

// WithGuessMap sets the initial guess by coefficient name. Every coefficient must be present.
func WithGuessMap(guess map[string]float64) Option {
	return options.NoError(func(cfg *FitConfig) {
		cfg.GuessMap = guess
		cfg.Guess = nil
	})
}

// WithBounds sets positional lower and upper bounds.
//
// Each side either has one entry per coefficient or a single entry that is
// broadcast to all of them. Use math.Inf for an open side.
func WithBounds(lower, upper []float64) Option {
	return options.New(func(cfg *FitConfig) error {
		if len(lower) == 0 || len(upper) == 0 {
			return fmt.Errorf("%w: both bound sides are required", errs.ErrBounds)
		}
		cfg.Lower, cfg.Upper = lower, upper
		cfg.BoundsMap = nil

		return nil
	})
}

// WithScalarBounds applies the same [lower, upper] range to every coefficient.
func WithScalarBounds(lower, upper float64) Option {
	return WithBounds([]float64{lower}, []float64{upper})
}

// WithBoundsMap sets bounds keyed by coefficient name. The key "all" applies to
// every coefficient without its own entry.
func WithBoundsMap(bounds map[string][2]float64) Option {
	return options.NoError(func(cfg *FitConfig) {
		cfg.BoundsMap = bounds
		cfg.Lower, cfg.Upper = nil, nil
	})
}

// WithConstants sets the values of model constants. Constants are held fixed and
// substituted into the numeric formula.
func WithConstants(consts map[string]float64) Option {
	return options.NoError(func(cfg *FitConfig) {
		cfg.Constants = consts
	})
}

// WithMaxIterations caps the nonlinear solver iterations. Exceeding the cap fails
// the fit with errs.ErrFitConvergence.
func WithMaxIterations(n int) Option {
	return options.New(func(cfg *FitConfig) error {
		if n <= 0 {
			return fmt.Errorf("%w: max iterations must be positive, got %d", errs.ErrFitConvergence, n)
		}
		cfg.MaxIterations = n

		return nil
	})
}

// WithTolerance sets the relative cost and step tolerance of the nonlinear solver.
func WithTolerance(tol float64) Option {
	return options.New(func(cfg *FitConfig) error {
		if tol <= 0 || math.IsNaN(tol) {
			return fmt.Errorf("%w: tolerance must be positive, got %g", errs.ErrFitConvergence, tol)
		}
		cfg.Tolerance = tol

		return nil
	})
}

// WithName labels the fitted data in error messages.
func WithName(name string) Option {
	return options.NoError(func(cfg *FitConfig) {
		cfg.Name = name
	})
}

// WithLogger enables debug logging of fits and solver progress.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(cfg *FitConfig) {
		cfg.Logger = logger
	})
}
