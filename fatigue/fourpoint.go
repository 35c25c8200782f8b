package fatigue

import (
	"math"

	"github.com/arloliu/loadkit/internal/options"
	"github.com/arloliu/loadkit/internal/pool"
)

// RainflowFourPoint counts the half-cycles of signal with the four-point rule.
//
// The signal is snapped to a grid of 2·HysteresisBins cells spanning its range and
// reduced to reversals, which discards oscillations smaller than one cell. Reversals
// are counted with the four-point rule; the residue is closed by counting it
// concatenated with itself, as for a repeated load block. Each full cycle is
// returned as two half-cycles so the output mixes freely with the other counters.
//
// NaN samples are dropped before counting.
func RainflowFourPoint(signal []float64, opts ...FourPointOption) ([]Cycle, error) {
	cfg := FourPointConfig{HysteresisBins: DefaultHysteresisBins}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	clean, err := cleanSignal(signal)
	if err != nil {
		return nil, err
	}

	reversals := FindReversals(clean, cfg.HysteresisBins)
	full, residue := countFourPoint(reversals)
	if len(residue) >= 2 {
		closing, _ := countFourPoint(concatReversals(residue, residue))
		full = append(full, closing...)
	}

	out := make([]Cycle, 0, 2*len(full))
	for _, c := range full {
		out = append(out, c, c)
	}

	return out, nil
}

// RainflowFourPointCounter returns a Counter running RainflowFourPoint with opts.
func RainflowFourPointCounter(opts ...FourPointOption) Counter {
	return func(signal []float64) ([]Cycle, error) {
		return RainflowFourPoint(signal, opts...)
	}
}

// FindReversals snaps signal to a grid of 2k cells over its range and returns the
// values of the turning points of the snapped signal. Consecutive reversals always
// alternate in direction.
func FindReversals(signal []float64, k int) []float64 {
	if len(signal) == 0 || k <= 0 {
		return nil
	}

	lo, hi := signal[0], signal[0]
	for _, v := range signal {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []float64{lo}
	}

	step := (hi - lo) / float64(2*k)
	snapped, cleanup := pool.GetFloat64Slice(len(signal))
	defer cleanup()
	for i, v := range signal {
		snapped[i] = lo + math.Round((v-lo)/step)*step
	}

	idx := findExtremes(snapped)
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = snapped[j]
	}

	return out
}

// countFourPoint returns the full cycles closed by the four-point rule and the
// unclosed residue.
func countFourPoint(reversals []float64) ([]Cycle, []float64) {
	var cycles []Cycle
	residue := make([]float64, 0, len(reversals))
	for _, r := range reversals {
		residue = append(residue, r)
		for n := len(residue); n >= 4; n = len(residue) {
			s0, s1, s2, s3 := residue[n-4], residue[n-3], residue[n-2], residue[n-1]
			inner := math.Abs(s2 - s1)
			if inner > math.Abs(s1-s0) || inner > math.Abs(s3-s2) {
				break
			}
			cycles = append(cycles, newCycle(s1, s2))
			residue = append(residue[:n-3], s3)
		}
	}

	return cycles, residue
}

// concatReversals joins two reversal sequences so the result still alternates,
// dropping the join points that would become intermediate values.
func concatReversals(first, second []float64) []float64 {
	start := second[1] - second[0]
	end := first[len(first)-1] - first[len(first)-2]
	join := second[0] - first[len(first)-1]
	t1, t2 := end*start, end*join

	a, b := first, second
	switch {
	case t1 > 0 && t2 < 0:
	case t1 > 0 && t2 >= 0:
		a, b = first[:len(first)-1], second[1:]
	case t1 < 0 && t2 >= 0:
		b = second[1:]
	case t1 < 0 && t2 < 0:
		a = first[:len(first)-1]
	default:
		return nil
	}

	out := make([]float64, 0, len(a)+len(b))
	out = append(out, a...)

	return append(out, b...)
}
