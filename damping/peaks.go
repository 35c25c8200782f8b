package damping

import (
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/internal/options"
	"github.com/arloliu/loadkit/internal/pool"
)

// IndexConfig configures Indexes.
type IndexConfig struct {
	// Absolute interprets the threshold as a value rather than a fraction of the range.
	Absolute bool
}

// IndexOption is a functional option for IndexConfig.
type IndexOption = options.Option[*IndexConfig]

// WithAbsThreshold makes Indexes compare samples against the threshold value directly.
func WithAbsThreshold() IndexOption {
	return options.NoError(func(cfg *IndexConfig) {
		cfg.Absolute = true
	})
}

// Indexes returns the indices of the local maxima of y above threshold.
//
// By default threshold is a fraction of the range of y, so 0.3 keeps peaks higher than
// min + 0.3·(max-min). Plateaus take the slope of their neighbours, split at the
// plateau median, so a flat top yields one peak. When minDist > 1, peaks are visited
// from highest to lowest and every peak within minDist samples of a kept one is
// dropped. A constant signal has no peaks.
//
// Parameters:
//   - y: Samples
//   - threshold: Relative (default) or absolute threshold
//   - minDist: Minimum distance between peaks, in samples
//   - opts: WithAbsThreshold
//
// Returns:
//   - []int: Ascending peak indices
//   - error: errs.ErrInvalidOption for a NaN threshold or an option error
func Indexes(y []float64, threshold float64, minDist int, opts ...IndexOption) ([]int, error) {
	var cfg IndexConfig
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}
	if math.IsNaN(threshold) {
		return nil, fmt.Errorf("%w: threshold is NaN", errs.ErrInvalidOption)
	}

	if len(y) < 3 {
		return nil, nil
	}
	if !cfg.Absolute {
		lo, hi := slices.Min(y), slices.Max(y)
		threshold = threshold*(hi-lo) + lo
	}

	dy, cleanup := pool.GetFloat64Slice(len(y) - 1)
	defer cleanup()
	flat := 0
	for i := range dy {
		dy[i] = y[i+1] - y[i]
		if dy[i] == 0 {
			flat++
		}
	}
	if flat == len(dy) {
		return nil, nil
	}
	if flat > 0 {
		fillPlateaus(dy)
	}

	var peaks []int
	for i := 1; i < len(y)-1; i++ {
		if dy[i] < 0 && dy[i-1] > 0 && y[i] > threshold {
			peaks = append(peaks, i)
		}
	}
	if len(peaks) > 1 && minDist > 1 {
		peaks = suppressNeighbours(y, peaks, minDist)
	}

	return peaks, nil
}

// fillPlateaus replaces runs of zero slope with the slope of their neighbours. Runs at
// either end copy the only neighbour; inner runs take the left slope before their
// median and the right slope from it on.
func fillPlateaus(dy []float64) {
	last := len(dy) - 1
	for start := 0; start <= last; {
		if dy[start] != 0 {
			start++
			continue
		}
		end := start
		for end < last && dy[end+1] == 0 {
			end++
		}

		switch {
		case start == 0:
			fill(dy[start:end+1], dy[end+1])
		case end == last:
			fill(dy[start:end+1], dy[start-1])
		default:
			median := float64(start+end) / 2
			left, right := dy[start-1], dy[end+1]
			for i := start; i <= end; i++ {
				if float64(i) < median {
					dy[i] = left
				} else {
					dy[i] = right
				}
			}
		}
		start = end + 1
	}
}

func fill(s []float64, v float64) {
	for i := range s {
		s[i] = v
	}
}

func suppressNeighbours(y []float64, peaks []int, minDist int) []int {
	highest := slices.Clone(peaks)
	slices.SortStableFunc(highest, func(a, b int) int {
		switch {
		case y[a] > y[b]:
			return -1
		case y[a] < y[b]:
			return 1
		default:
			return b - a
		}
	})

	removed := make([]bool, len(y))
	for i := range removed {
		removed[i] = true
	}
	for _, p := range peaks {
		removed[p] = false
	}
	for _, p := range highest {
		if removed[p] {
			continue
		}
		for k := max(0, p-minDist); k <= min(len(y)-1, p+minDist); k++ {
			removed[k] = true
		}
		removed[p] = false
	}

	kept := peaks[:0]
	for i, r := range removed {
		if !r {
			kept = append(kept, i)
		}
	}

	return kept
}
