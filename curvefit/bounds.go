package curvefit

import (
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/loadkit/errs"
)

const boundsWildcard = "all"

// resolveBounds turns the caller's bounds into one [lower, upper] pair per coefficient.
//
// Without caller bounds the model defaults apply, and without those every coefficient
// is unbounded.
func resolveBounds(names []string, defLower, defUpper []float64, cfg *FitConfig) ([]float64, []float64, error) {
	n := len(names)

	switch {
	case cfg.BoundsMap != nil:
		lo, hi := make([]float64, n), make([]float64, n)
		wild, hasWild := cfg.BoundsMap[boundsWildcard]
		for i, name := range names {
			b, ok := cfg.BoundsMap[name]
			if !ok {
				if !hasWild {
					return nil, nil, fmt.Errorf("%w: no bounds for coefficient %q", errs.ErrBounds, name)
				}
				b = wild
			}
			lo[i], hi[i] = b[0], b[1]
		}

		return lo, hi, checkBounds(names, lo, hi)

	case cfg.Lower != nil || cfg.Upper != nil:
		lo, err := broadcast(cfg.Lower, n, "lower")
		if err != nil {
			return nil, nil, err
		}
		hi, err := broadcast(cfg.Upper, n, "upper")
		if err != nil {
			return nil, nil, err
		}

		return lo, hi, checkBounds(names, lo, hi)

	case defLower != nil && defUpper != nil:
		return slices.Clone(defLower), slices.Clone(defUpper), nil
	}

	lo, hi := make([]float64, n), make([]float64, n)
	for i := range n {
		lo[i], hi[i] = math.Inf(-1), math.Inf(1)
	}

	return lo, hi, nil
}

func broadcast(side []float64, n int, label string) ([]float64, error) {
	switch len(side) {
	case n:
		return slices.Clone(side), nil
	case 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = side[0]
		}

		return out, nil
	}

	return nil, fmt.Errorf("%w: %d %s bounds for %d coefficients", errs.ErrBounds, len(side), label, n)
}

func checkBounds(names []string, lo, hi []float64) error {
	for i, name := range names {
		if math.IsNaN(lo[i]) || math.IsNaN(hi[i]) || lo[i] > hi[i] {
			return fmt.Errorf("%w: coefficient %q has bounds [%g, %g]", errs.ErrBounds, name, lo[i], hi[i])
		}
	}

	return nil
}

// resolveGuess returns the initial guess, clipped into [lo, hi].
//
// Precedence: caller guess, model default, then a guess derived from the bounds.
func resolveGuess(names []string, modelDefault, lo, hi []float64, cfg *FitConfig) ([]float64, error) {
	var guess []float64

	switch {
	case cfg.GuessMap != nil:
		guess = make([]float64, len(names))
		for i, name := range names {
			v, ok := cfg.GuessMap[name]
			if !ok {
				return nil, fmt.Errorf("%w: no guess for coefficient %q", errs.ErrGuess, name)
			}
			guess[i] = v
		}

	case cfg.Guess != nil:
		if len(cfg.Guess) != len(names) {
			return nil, fmt.Errorf("%w: %d values for %d coefficients", errs.ErrGuess, len(cfg.Guess), len(names))
		}
		guess = slices.Clone(cfg.Guess)

	case modelDefault != nil:
		guess = slices.Clone(modelDefault)

	default:
		guess = make([]float64, len(names))
		for i := range names {
			guess[i] = guessFromBounds(lo[i], hi[i])
		}
	}

	for i := range guess {
		guess[i] = math.Min(math.Max(guess[i], lo[i]), hi[i])
	}

	return guess, nil
}

// guessFromBounds picks a starting point inside [lo, hi]: the midpoint when both
// sides are finite, a point max(|b|, 1) inside a single finite side b, zero otherwise.
func guessFromBounds(lo, hi float64) float64 {
	loInf, hiInf := math.IsInf(lo, 0), math.IsInf(hi, 0)
	switch {
	case !loInf && !hiInf:
		return (lo + hi) / 2
	case !loInf:
		return lo + math.Max(math.Abs(lo), 1)
	case !hiInf:
		return hi - math.Max(math.Abs(hi), 1)
	}

	return 0
}
