package fatigue

import (
	"fmt"
	"math"

	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/internal/options"
)

// EqLoadResult holds damage-equivalent loads together with the amplitude spectrum
// they were derived from.
type EqLoadResult struct {
	// Loads holds the equivalent loads indexed [neq][m].
	Loads [][]float64
	// Cycles holds the full-cycle count per amplitude bin.
	Cycles []float64
	// AmplBinMean holds the mean amplitude per bin, NaN for empty bins.
	AmplBinMean []float64
	// AmplEdges holds the amplitude bin edges.
	AmplEdges []float64
}

// EqLoadAndCycles computes damage-equivalent loads of weighted load cases.
//
// The cycles are binned into nBins amplitude bins from zero to the largest amplitude
// and a single mean bin. For every Wöhler exponent m and equivalent cycle count neq:
//
//	Leq = (Σ cycles·amplBinMean^m / neq)^(1/m)
//
// Empty bins do not contribute.
//
// Returns:
//   - *EqLoadResult: Loads and the amplitude spectrum
//   - error: errs.ErrShape for empty m or neq, errs.ErrInvalidOption for non-positive
//     m or neq, or any error of CycleMatrix
func EqLoadAndCycles(loads []LoadCase, nBins int, m, neq []float64, counter Counter, opts ...MatrixOption) (*EqLoadResult, error) {
	if len(m) == 0 || len(neq) == 0 {
		return nil, fmt.Errorf("%w: at least one Wöhler exponent and one equivalent count are required", errs.ErrShape)
	}
	for _, v := range m {
		if !(v > 0) {
			return nil, fmt.Errorf("%w: Wöhler exponent must be positive, got %g", errs.ErrInvalidOption, v)
		}
	}
	for _, v := range neq {
		if !(v > 0) {
			return nil, fmt.Errorf("%w: equivalent cycle count must be positive, got %g", errs.ErrInvalidOption, v)
		}
	}

	matrix, err := CycleMatrix(loads, BinCount(nBins), BinCount(1), counter, opts...)
	if err != nil {
		return nil, err
	}

	res := &EqLoadResult{
		Loads:       make([][]float64, len(neq)),
		Cycles:      make([]float64, len(matrix.Cycles)),
		AmplBinMean: matrix.AmplBinMean,
		AmplEdges:   matrix.AmplEdges,
	}
	for i, row := range matrix.Cycles {
		res.Cycles[i] = row[0]
	}
	for i, n := range neq {
		res.Loads[i] = make([]float64, len(m))
		for j, exp := range m {
			res.Loads[i][j] = equivalent(res.Cycles, res.AmplBinMean, exp, n)
		}
	}

	return res, nil
}

// EqLoad is EqLoadAndCycles for a single signal, returning only the loads.
func EqLoad(signal []float64, nBins int, m, neq []float64, counter Counter, opts ...MatrixOption) ([][]float64, error) {
	res, err := EqLoadAndCycles([]LoadCase{{Weight: 1, Signal: signal}}, nBins, m, neq, counter, opts...)
	if err != nil {
		return nil, err
	}

	return res.Loads, nil
}

// EquivalentLoad returns the damage-equivalent load of a time series.
//
// The equivalent cycle count is the duration of t divided by teq, so teq = 1 with t
// in seconds gives the 1 Hz equivalent load.
//
// Parameters:
//   - t: Sample times, ascending
//   - signal: Load samples aligned with t
//   - m: Wöhler exponent
//   - teq: Equivalent period, in units of t
//   - nBins: Number of amplitude bins
//   - method: Counting backend
//
// Returns:
//   - float64: The equivalent load
//   - error: errs.ErrShape for mismatched or too short inputs, errs.ErrNoVariation for
//     a constant signal, errs.ErrUnknownModel for an unknown method
func EquivalentLoad(t, signal []float64, m, teq float64, nBins int, method Method, opts ...MatrixOption) (float64, error) {
	cfg := defaultMatrixConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return 0, err
	}

	if len(t) != len(signal) {
		return 0, cfg.wrap(fmt.Errorf("%w: %d times for %d samples", errs.ErrShape, len(t), len(signal)))
	}
	// NaN samples are dropped by the counters, so the duration spans valid samples only.
	first, last, valid := -1, -1, 0
	for i, v := range signal {
		if math.IsNaN(v) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
		valid++
	}
	if valid < 2 {
		return 0, cfg.wrap(fmt.Errorf("%w: at least two valid samples are required", errs.ErrShape))
	}
	if !(teq > 0) {
		return 0, cfg.wrap(fmt.Errorf("%w: equivalent period must be positive, got %g", errs.ErrInvalidOption, teq))
	}

	counter, err := CounterFor(method)
	if err != nil {
		return 0, cfg.wrap(err)
	}

	neq := (t[last] - t[first]) / teq
	loads, err := EqLoad(signal, nBins, []float64{m}, []float64{neq}, counter, opts...)
	if err != nil {
		return 0, err
	}

	return loads[0][0], nil
}

func equivalent(cycles, amplitudes []float64, m, neq float64) float64 {
	damage := 0.0
	for i, c := range cycles {
		term := c * math.Pow(amplitudes[i], m)
		if math.IsNaN(term) {
			continue
		}
		damage += term
	}

	return math.Pow(damage/neq, 1/m)
}
