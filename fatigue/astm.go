package fatigue

import (
	"math"

	"github.com/arloliu/loadkit/internal/pool"
)

// RainflowASTM counts the half-cycles of signal with the ASTM E1049-85 rules.
//
// NaN samples are dropped before counting.
//
// Returns:
//   - []Cycle: Half-cycles, a closed loop appearing twice
//   - error: errs.ErrShape for empty or NaN-only input, errs.ErrNoVariation for a constant signal
func RainflowASTM(signal []float64) ([]Cycle, error) {
	clean, err := cleanSignal(signal)
	if err != nil {
		return nil, err
	}

	idx := findExtremes(clean)
	ext, cleanup := pool.GetFloat64Slice(len(idx))
	defer cleanup()
	for i, k := range idx {
		ext[i] = clean[k]
	}

	return CountASTM(ext), nil
}

// CountASTM applies the ASTM stack rules to a sequence of turning points.
//
// Each point is pushed on a stack; while the range of the two newest points reaches
// the range of the two before them, that older range is counted. A range touching
// the start of the history is a half-cycle, any other is a full cycle and is emitted
// twice. The residue is counted as half-cycles. Zero ranges are skipped.
func CountASTM(extrema []float64) []Cycle {
	stack, cleanup := pool.GetFloat64Slice(len(extrema))
	defer cleanup()
	stack = stack[:0]

	var out []Cycle
	for _, x := range extrema {
		stack = append(stack, x)
		for n := len(stack); n > 2; n = len(stack) {
			s0, s1, s2 := stack[n-3], stack[n-2], stack[n-1]
			if math.Abs(s0-s1) > math.Abs(s1-s2) {
				break
			}

			c := newCycle(s0, s1)
			if n == 3 {
				stack = append(stack[:0], stack[1:]...)
				if c.Amplitude > 0 {
					out = append(out, c)
				}

				continue
			}

			stack = append(stack[:n-3], s2)
			if c.Amplitude > 0 {
				out = append(out, c, c)
			}
		}
	}

	for i := 1; i < len(stack); i++ {
		if c := newCycle(stack[i-1], stack[i]); c.Amplitude > 0 {
			out = append(out, c)
		}
	}

	return out
}
