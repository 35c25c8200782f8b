package fatigue

import (
	"fmt"
	"math"

	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/format"
)

// Cycle is a counted half-cycle.
type Cycle struct {
	// Amplitude is the stress range of the cycle, always >= 0.
	Amplitude float64
	// Mean is the mean value of the cycle.
	Mean float64
}

// Counter counts the half-cycles of a raw signal.
type Counter func(signal []float64) ([]Cycle, error)

// Method selects a counting backend.
type Method = format.CountingMethod

// Counting methods.
const (
	MethodWindap    = format.MethodWindap
	MethodASTM      = format.MethodASTM
	MethodFourPoint = format.MethodFourPoint
)

// CounterFor returns the Counter of method with default settings.
func CounterFor(method Method) (Counter, error) {
	switch method {
	case MethodWindap:
		return RainflowWindapCounter(), nil
	case MethodASTM:
		return RainflowASTM, nil
	case MethodFourPoint:
		return RainflowFourPointCounter(), nil
	}

	return nil, fmt.Errorf("%w: counting method %d", errs.ErrUnknownModel, uint8(method))
}

// Amplitudes returns the amplitudes of cycles.
func Amplitudes(cycles []Cycle) []float64 {
	out := make([]float64, len(cycles))
	for i, c := range cycles {
		out[i] = c.Amplitude
	}

	return out
}

// Means returns the mean values of cycles.
func Means(cycles []Cycle) []float64 {
	out := make([]float64, len(cycles))
	for i, c := range cycles {
		out[i] = c.Mean
	}

	return out
}

func newCycle(a, b float64) Cycle {
	return Cycle{Amplitude: math.Abs(a - b), Mean: (a + b) / 2}
}

// cleanSignal drops NaN samples and rejects signals that cannot be counted.
func cleanSignal(signal []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("%w: empty signal", errs.ErrShape)
	}

	clean := signal
	for i, v := range signal {
		if !math.IsNaN(v) {
			continue
		}
		// Copy lazily, most signals have no gaps.
		clean = make([]float64, i, len(signal))
		copy(clean, signal[:i])
		for _, w := range signal[i+1:] {
			if !math.IsNaN(w) {
				clean = append(clean, w)
			}
		}

		break
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: signal has only NaN samples", errs.ErrShape)
	}

	lo, hi := clean[0], clean[0]
	for _, v := range clean[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return nil, fmt.Errorf("%w: constant signal %g", errs.ErrNoVariation, lo)
	}

	return clean, nil
}
