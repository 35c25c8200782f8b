package fatigue

import (
	"fmt"
	"math"

	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/internal/pool"
)

// FindExtremes returns the indices of the turning points of signal.
//
// The first and last samples are always included. Inside a plateau the slope of the
// preceding segment is carried forward, so a flat stretch never produces a turning
// point of its own; a leading plateau takes the slope of the first non-flat segment.
// A signal without any variation yields [0].
//
// Parameters:
//   - signal: Samples to scan, must be non-empty and free of NaN
//
// Returns:
//   - []int: Ascending sample indices
//   - error: errs.ErrShape for empty or NaN-containing input
func FindExtremes(signal []float64) ([]int, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("%w: empty signal", errs.ErrShape)
	}
	for i, v := range signal {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: NaN at sample %d", errs.ErrShape, i)
		}
	}

	return findExtremes(signal), nil
}

// Extremes returns the signal values at its turning points.
func Extremes(signal []float64) ([]float64, error) {
	idx, err := FindExtremes(signal)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(idx))
	for i, k := range idx {
		out[i] = signal[k]
	}

	return out, nil
}

func findExtremes(signal []float64) []int {
	if len(signal) == 1 {
		return []int{0}
	}

	slopes, cleanup := pool.GetInt8Slice(len(signal) - 1)
	defer cleanup()

	first := -1
	for i := range slopes {
		slopes[i] = slopeSign(signal[i+1] - signal[i])
		if first < 0 && slopes[i] != 0 {
			first = i
		}
	}
	if first < 0 {
		return []int{0}
	}

	slopes[0] = slopes[first]
	for i := 1; i < len(slopes); i++ {
		if slopes[i] == 0 {
			slopes[i] = slopes[i-1]
		}
	}

	idx := []int{0}
	for i := 1; i < len(slopes); i++ {
		if slopes[i] != slopes[i-1] {
			idx = append(idx, i)
		}
	}

	return append(idx, len(signal)-1)
}

func slopeSign(d float64) int8 {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	default:
		return 0
	}
}
