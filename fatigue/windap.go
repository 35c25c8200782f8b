package fatigue

import (
	"math"

	"github.com/arloliu/loadkit/internal/options"
	"github.com/arloliu/loadkit/internal/pool"
)

// RainflowWindap counts the half-cycles of signal the way WindAP does.
//
// The signal is shifted to start at zero, scaled to cfg.Levels quantisation steps and
// rounded half to even. The peak-trough filter removes swings below cfg.Threshold
// steps and the pair-range algorithm counts what remains. Amplitudes and means are
// rounded to multiples of the threshold before being scaled back to signal units.
//
// NaN samples are dropped before counting.
//
// Parameters:
//   - signal: Raw load history
//   - opts: WithLevels, WithThreshold
//
// Returns:
//   - []Cycle: Half-cycles, a closed loop appearing twice
//   - error: errs.ErrShape for empty or NaN-only input, errs.ErrNoVariation for a
//     constant signal, errs.ErrInvalidOption for bad options
func RainflowWindap(signal []float64, opts ...WindapOption) ([]Cycle, error) {
	cfg := defaultWindapConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	clean, err := cleanSignal(signal)
	if err != nil {
		return nil, err
	}

	offset := clean[0]
	for _, v := range clean {
		offset = math.Min(offset, v)
	}

	quantised, cleanup := pool.GetFloat64Slice(len(clean))
	defer cleanup()
	top := 0.0
	for i, v := range clean {
		quantised[i] = v - offset
		top = math.Max(top, quantised[i])
	}
	gain := top / cfg.Levels
	for i, v := range quantised {
		quantised[i] = math.RoundToEven(v / gain)
	}

	th := cfg.Threshold
	cycles := pairRange(PeakTrough(quantised, th))
	for i, c := range cycles {
		cycles[i] = Cycle{
			Amplitude: math.RoundToEven(c.Amplitude/th) * th * gain,
			Mean:      math.RoundToEven(c.Mean/th)*th*gain + offset,
		}
	}

	return cycles, nil
}

// RainflowWindapCounter returns a Counter running RainflowWindap with opts.
func RainflowWindapCounter(opts ...WindapOption) Counter {
	return func(signal []float64) ([]Cycle, error) {
		return RainflowWindap(signal, opts...)
	}
}

// CountPairRange counts a sequence of turning points with the pair-range algorithm.
//
// Whenever the middle pair of the last four points lies inside the range of its
// neighbours, the pair is counted as a full cycle, emitted twice, and removed. The
// residue is counted as half-cycles.
func CountPairRange(extrema []float64) []Cycle {
	if len(extrema) == 0 {
		return nil
	}

	base := extrema[0]
	for _, v := range extrema {
		base = math.Min(base, v)
	}

	cycles := pairRange(extrema)
	for i := range cycles {
		cycles[i].Mean += base
	}

	return cycles
}

// pairRange counts extrema measured from their minimum; means are reported
// relative to that minimum.
func pairRange(extrema []float64) []Cycle {
	if len(extrema) == 0 {
		return nil
	}

	base := extrema[0]
	for _, v := range extrema {
		base = math.Min(base, v)
	}

	// s is 1-indexed, s[0] is unused.
	s, cleanup := pool.GetFloat64Slice(len(extrema) + 1)
	defer cleanup()

	var out []Cycle
	p := 1
	s[1] = extrema[0] - base
	for _, x := range extrema[1:] {
		p++
		s[p] = x - base
		for p >= 4 {
			rising := s[p-2] > s[p-3] && s[p-1] >= s[p-3] && s[p] >= s[p-2]
			falling := s[p-2] < s[p-3] && s[p-1] <= s[p-3] && s[p] <= s[p-2]
			if !rising && !falling {
				break
			}

			c := newCycle(s[p-2], s[p-1])
			out = append(out, c, c)
			s[p-2] = s[p]
			p -= 2
		}
	}

	for q := 1; q < p; q++ {
		out = append(out, newCycle(s[q], s[q+1]))
	}

	return out
}
