package curvefit

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/internal/lsq"
	"github.com/arloliu/loadkit/internal/options"
)

// Fit parses spec, builds the model and fits it to (x, y).
//
// Parameters:
//   - spec: Model specification, see ParseSpec
//   - x, y: Samples; positions where either is NaN are ignored
//   - opts: Guess, bounds, constants, solver and logging options
//
// Returns:
//   - *Result: Fitted values, coefficients, R² and formulas
//   - error: errs.ErrShape, errs.ErrModelDefinition, errs.ErrUnknownModel,
//     errs.ErrBounds, errs.ErrGuess or errs.ErrFitConvergence
//
// Example:
//
//	res, err := curvefit.Fit("eval: {a}*exp(-{k}*x)", x, y, curvefit.WithGuess(1, 0.5))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.FormulaNum(curvefit.PrecisionFormat(4)))
func Fit(spec string, x, y []float64, opts ...Option) (*Result, error) {
	cfg := defaultFitConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	s, err := ParseSpec(spec)
	if err != nil {
		return nil, cfg.wrap(err)
	}
	m, err := NewModel(s, cfg.Constants)
	if err != nil {
		return nil, cfg.wrap(err)
	}

	return m.fit(x, y, &cfg)
}

// Fit fits the model to (x, y) and updates its coefficient values.
func (m *Model) Fit(x, y []float64, opts ...Option) (*Result, error) {
	cfg := defaultFitConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return m.fit(x, y, &cfg)
}

func (m *Model) fit(x, y []float64, cfg *FitConfig) (*Result, error) {
	for name, v := range cfg.Constants {
		if _, ok := m.Consts[name]; ok {
			m.Consts[name] = v
		}
	}

	cx, cy, err := cleanSamples(x, y)
	if err != nil {
		return nil, cfg.wrap(err)
	}

	var coeffs []float64
	iterations := 0
	if m.Kind.Linear() {
		if cfg.Guess != nil || cfg.GuessMap != nil || cfg.Lower != nil || cfg.BoundsMap != nil {
			cfg.debug("guess and bounds ignored by linear fitter", slog.String("kind", m.Kind.String()))
		}
		coeffs, err = fitLinear(cx, cy, m.exponents)
		if err != nil {
			return nil, cfg.wrap(err)
		}
	} else {
		coeffs, iterations, err = m.fitNonlinear(cx, cy, cfg)
		if err != nil {
			return nil, cfg.wrap(err)
		}
	}

	copy(m.Values, coeffs)

	res, err := m.newResult(x, y, iterations)
	if err != nil {
		return nil, cfg.wrap(err)
	}
	cfg.debug("curve fit completed",
		slog.String("kind", m.Kind.String()),
		slog.Int("iterations", iterations),
		slog.Float64("r2", res.RSquared))

	return res, nil
}

func (m *Model) fitNonlinear(x, y []float64, cfg *FitConfig) ([]float64, int, error) {
	lo, hi, err := resolveBounds(m.Names, m.Lower, m.Upper, cfg)
	if err != nil {
		return nil, 0, err
	}

	def := m.Guess
	if seeded := m.dataGuess(x, y); seeded != nil {
		def = seeded
	}
	guess, err := resolveGuess(m.Names, def, lo, hi, cfg)
	if err != nil {
		return nil, 0, err
	}
	cfg.debug("nonlinear fit starting", slog.Any("coeffs", m.Names), slog.Any("guess", guess))

	var evalErr error
	prob := lsq.Problem{
		M: len(x),
		Residuals: func(dst, p []float64) {
			f, err := m.eval(x, p, m.Consts)
			if err != nil {
				evalErr = err
				for i := range dst {
					dst[i] = math.NaN()
				}

				return
			}
			for i := range dst {
				dst[i] = f[i] - y[i]
			}
		},
	}

	res, err := lsq.Minimize(prob, guess, lo, hi, &lsq.Settings{
		MaxIterations: cfg.MaxIterations,
		Tolerance:     cfg.Tolerance,
		Logger:        cfg.Logger,
	})
	if evalErr != nil {
		return nil, 0, evalErr
	}
	if err != nil {
		return nil, 0, err
	}
	cfg.debug("nonlinear fit converged", slog.String("status", res.Status.String()), slog.Float64("cost", res.Cost))

	return res.X, res.Iterations, nil
}

// cleanSamples drops positions where x or y is NaN.
func cleanSamples(x, y []float64) ([]float64, []float64, error) {
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("%w: %d x values vs %d y values", errs.ErrShape, len(x), len(y))
	}

	cx := make([]float64, 0, len(x))
	cy := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		cx = append(cx, x[i])
		cy = append(cy, y[i])
	}
	if len(cx) == 0 {
		return nil, nil, fmt.Errorf("%w: no finite samples", errs.ErrShape)
	}

	return cx, cy, nil
}

func (cfg *FitConfig) wrap(err error) error {
	if cfg.Name == "" {
		return err
	}

	return fmt.Errorf("%s: %w", cfg.Name, err)
}

func (cfg *FitConfig) debug(msg string, attrs ...slog.Attr) {
	if cfg.Logger == nil {
		return
	}
	if cfg.Name != "" {
		attrs = append(attrs, slog.String("name", cfg.Name))
	}
	cfg.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}
