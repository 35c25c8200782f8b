package damping

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/arloliu/loadkit/errs"
)

// Decrement is the peak-based damping estimate of one or both envelopes.
type Decrement struct {
	// DampingRatio is the mean of ζn = 1/sqrt(1+(2π/δn)²).
	DampingRatio float64
	// DampingRatioStd is the population standard deviation of ζn.
	DampingRatioStd float64
	// LogDec is the mean of δn = ln(x0/xn)/n.
	LogDec float64
	// PeriodSamples is the median peak spacing rounded to whole samples.
	// With both envelopes it is the mean of the two and may end in .5.
	PeriodSamples float64
	// PosPeaks are the peak indices of x.
	PosPeaks []int
	// NegPeaks are the peak indices of -x, only set when both envelopes are used.
	NegPeaks []int
}

// DefaultThreshold returns a third of the mean absolute deviation of x, the absolute
// peak threshold used when none is given.
func DefaultThreshold(x []float64) float64 {
	m := stat.Mean(x, nil)
	sum := 0.0
	for _, v := range x {
		sum += math.Abs(v - m)
	}

	return sum / float64(len(x)) / 3
}

// LogDecFromThreshold estimates the damping of a zero-mean decaying oscillation.
//
// Peaks of x above the absolute threshold are taken as consecutive periods. Every peak
// after the first yields a log decrement relative to the first one. With bothSides the
// same is done for -x and the two estimates are averaged.
//
// Parameters:
//   - x: Zero-mean signal
//   - threshold: Absolute peak threshold, see DefaultThreshold
//   - bothSides: Also use the lower envelope
//
// Returns:
//   - *Decrement: The estimate
//   - error: errs.ErrInsufficientPeaks when an envelope has fewer than two peaks,
//     errs.ErrInvalidOption for a NaN threshold
func LogDecFromThreshold(x []float64, threshold float64, bothSides bool) (*Decrement, error) {
	pos, err := decrement(x, threshold)
	if err != nil {
		return nil, fmt.Errorf("upper envelope: %w", err)
	}
	if !bothSides {
		return pos, nil
	}

	negated := make([]float64, len(x))
	for i, v := range x {
		negated[i] = -v
	}
	neg, err := decrement(negated, threshold)
	if err != nil {
		return nil, fmt.Errorf("lower envelope: %w", err)
	}

	return &Decrement{
		DampingRatio:    (pos.DampingRatio + neg.DampingRatio) / 2,
		DampingRatioStd: (pos.DampingRatioStd + neg.DampingRatioStd) / 2,
		LogDec:          (pos.LogDec + neg.LogDec) / 2,
		PeriodSamples:   (pos.PeriodSamples + neg.PeriodSamples) / 2,
		PosPeaks:        pos.PosPeaks,
		NegPeaks:        neg.PosPeaks,
	}, nil
}

func decrement(x []float64, threshold float64) (*Decrement, error) {
	peaks, err := Indexes(x, threshold, 1, WithAbsThreshold())
	if err != nil {
		return nil, err
	}
	if len(peaks) < 2 {
		return nil, fmt.Errorf("%w: found %d peaks above %g", errs.ErrInsufficientPeaks, len(peaks), threshold)
	}

	spacing := make([]float64, len(peaks)-1)
	logDecs := make([]float64, len(peaks)-1)
	ratios := make([]float64, len(peaks)-1)
	first := x[peaks[0]]
	for n := 1; n < len(peaks); n++ {
		spacing[n-1] = float64(peaks[n] - peaks[n-1])
		logDecs[n-1] = math.Log(first/x[peaks[n]]) / float64(n)
		ratios[n-1] = 1 / math.Sqrt(1+math.Pow(2*math.Pi/logDecs[n-1], 2))
	}

	zeta, zetaStd := stat.PopMeanStdDev(ratios, nil)

	return &Decrement{
		DampingRatio:    zeta,
		DampingRatioStd: zetaStd,
		LogDec:          stat.Mean(logDecs, nil),
		PeriodSamples:   math.RoundToEven(median(spacing)),
		PosPeaks:        peaks,
	}, nil
}

// median returns the middle value of v, averaging the two central values for an even length.
func median(v []float64) float64 {
	sorted := slices.Clone(v)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	return (sorted[n/2-1] + sorted[n/2]) / 2
}
