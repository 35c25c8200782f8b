// Package loadkit provides engineering post-processing for structural load signals:
// curve fitting, rainflow-based fatigue analysis and damping estimation.
//
// The engines live in their own packages; this package offers short wrappers for the
// most common calls, taking counting methods by name.
//
// # Core Features
//
//   - Curve fitting of formulas, predefined models, polynomials, sinusoids and gaussians
//   - Rainflow counting (WindAP, ASTM E1049-85, four-point) with weighted cycle matrices
//   - Damage-equivalent loads for one or many Wöhler exponents
//   - Compact cycle set encoding with Gorilla columns and zstd, S2 or LZ4 compression
//   - Log-decrement damping estimation from free-decay signals
//
// # Basic Usage
//
// Fitting a model:
//
//	res, err := loadkit.Fit("predef: powerlaw_alpha", z, u,
//	    curvefit.WithConstants(map[string]float64{"u_ref": 10, "z_ref": 100}))
//
// Equivalent load of a time series at 1 Hz with m=10:
//
//	leq, err := loadkit.EquivalentLoad(t, signal, 10, 1, 100, "rainflow_windap")
//
// Damping of a free decay:
//
//	decay, err := loadkit.LogDecFromDecay(x, t)
//	fmt.Println(decay.NaturalFreq, decay.DampingRatio)
//
// # Package Structure
//
//   - curvefit: model specifications, fitting and formula rendering
//   - curvefit/expr: the formula language
//   - fatigue: rainflow counting, cycle matrices and equivalent loads
//   - fatigue/cycleset: binary cycle set encoding
//   - damping: peak picking and log-decrement estimation
//   - compress, endian, format, errs: shared infrastructure
package loadkit

import (
	"fmt"

	"github.com/arloliu/loadkit/curvefit"
	"github.com/arloliu/loadkit/damping"
	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/fatigue"
	"github.com/arloliu/loadkit/fatigue/cycleset"
	"github.com/arloliu/loadkit/format"
)

// Fit parses spec and fits the resulting model to (x, y). See curvefit.Fit.
func Fit(spec string, x, y []float64, opts ...curvefit.Option) (*curvefit.Result, error) {
	return curvefit.Fit(spec, x, y, opts...)
}

// ParseMethod returns the counting method for a name such as "rainflow_windap",
// "rainflow_astm" or "fatpack".
func ParseMethod(name string) (fatigue.Method, error) {
	method, ok := format.ParseCountingMethod(name)
	if !ok {
		return 0, fmt.Errorf("%w: counting method %q", errs.ErrUnknownModel, name)
	}

	return method, nil
}

// EquivalentLoad returns the damage-equivalent load of a time series, with the
// counting method given by name. See fatigue.EquivalentLoad.
//
// Parameters:
//   - t: Sample times, ascending
//   - signal: Load samples aligned with t
//   - m: Wöhler exponent
//   - teq: Equivalent period, 1 for the 1 Hz equivalent load when t is in seconds
//   - nBins: Number of amplitude bins
//   - method: "rainflow_windap", "rainflow_astm" or "fatpack"
func EquivalentLoad(t, signal []float64, m, teq float64, nBins int, method string, opts ...fatigue.MatrixOption) (float64, error) {
	mt, err := ParseMethod(method)
	if err != nil {
		return 0, err
	}

	return fatigue.EquivalentLoad(t, signal, m, teq, nBins, mt, opts...)
}

// CycleMatrix counts the weighted load cases with the named method and bins the
// cycles into amplBins × meanBins equal-width bins. See fatigue.CycleMatrix.
func CycleMatrix(loads []fatigue.LoadCase, amplBins, meanBins int, method string, opts ...fatigue.MatrixOption) (*fatigue.Matrix, error) {
	mt, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}
	counter, err := fatigue.CounterFor(mt)
	if err != nil {
		return nil, err
	}

	return fatigue.CycleMatrix(loads, fatigue.BinCount(amplBins), fatigue.BinCount(meanBins), counter, opts...)
}

// CountCycles counts signal with the named method and encodes the cycles as a cycle set.
func CountCycles(signal []float64, weight float64, method string, opts ...cycleset.Option) ([]byte, error) {
	mt, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}
	set, err := cycleset.Count(fatigue.LoadCase{Weight: weight, Signal: signal}, mt)
	if err != nil {
		return nil, err
	}

	return cycleset.Encode(set, opts...)
}

// LogDecFromDecay estimates period, frequencies and damping of a free decay. See
// damping.LogDecFromDecay.
func LogDecFromDecay(x, t []float64, opts ...damping.Option) (*damping.Decay, error) {
	return damping.LogDecFromDecay(x, t, opts...)
}
