package fatigue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/loadkit/errs"
)

// reference load history used by the rainflow literature
var refSignal = []float64{-2, 0, 1, 0, -3, 0, 5, 0, -1, 0, 3, 0, -4, 0, 4, 0, -2}

func histogram(t *testing.T, cycles []Cycle, nAmpl, nMean int) [][]float64 {
	t.Helper()

	h, err := NewHistogram2D(Amplitudes(cycles), Means(cycles), nil, BinCount(nAmpl), BinCount(nMean))
	require.NoError(t, err)

	return h.Values
}

func requireCycles(t *testing.T, expected [][2]float64, actual []Cycle) {
	t.Helper()

	require.Len(t, actual, len(expected))
	for i, c := range actual {
		require.InDelta(t, expected[i][0], c.Amplitude, 1e-12, "amplitude of cycle %d", i)
		require.InDelta(t, expected[i][1], c.Mean, 1e-12, "mean of cycle %d", i)
	}
}

func TestFindExtremes(t *testing.T) {
	tests := []struct {
		name     string
		signal   []float64
		expected []int
	}{
		{"alternating", refSignal, []int{0, 2, 4, 6, 8, 10, 12, 14, 16}},
		{"flat", []float64{3, 3, 3, 3}, []int{0}},
		{"single", []float64{7}, []int{0}},
		{"leading plateau", []float64{1, 1, 2, 0}, []int{0, 2, 3}},
		{"inner plateau", []float64{0, 2, 2, 1}, []int{0, 2, 3}},
		{"trailing plateau", []float64{0, 2, 1, 1}, []int{0, 1, 3}},
		{"monotone", []float64{0, 1, 2, 3}, []int{0, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := FindExtremes(tt.signal)
			require.NoError(t, err)
			require.Equal(t, tt.expected, idx)
		})
	}
}

func TestFindExtremes_Errors(t *testing.T) {
	_, err := FindExtremes(nil)
	require.ErrorIs(t, err, errs.ErrShape)

	_, err = FindExtremes([]float64{0, math.NaN(), 1})
	require.ErrorIs(t, err, errs.ErrShape)
}

func TestExtremes(t *testing.T) {
	values, err := Extremes([]float64{0, 1, 2, 1, 1, 3})
	require.NoError(t, err)
	require.Equal(t, []float64{0, 2, 1, 3}, values)
}

func TestPeakTrough(t *testing.T) {
	require.Equal(t, []float64{0, 3, 0, 3, 1, 4}, PeakTrough([]float64{0, 1, 0, 3, 0, 3, 1, 4}, 2))
	require.Equal(t, []float64{5, 0, 6}, PeakTrough([]float64{5, 1, 2, 0, 6}, 3))
	// Never reaching the threshold collapses to the midpoint of the range.
	require.Equal(t, []float64{0.5}, PeakTrough([]float64{0, 1, 0.5, 1}, 2))
	require.Nil(t, PeakTrough(nil, 1))
}

func TestRainflowASTM(t *testing.T) {
	cycles, err := RainflowASTM(refSignal)
	require.NoError(t, err)
	requireCycles(t, [][2]float64{
		{3, -0.5}, {4, -1}, {4, 1}, {4, 1}, {8, 1}, {9, 0.5}, {8, 0}, {6, 1},
	}, cycles)

	require.Equal(t, [][]float64{
		{0, 1, 0, 0},
		{1, 0, 0, 2},
		{0, 0, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 0, 0},
		{0, 0, 1, 2},
	}, histogram(t, cycles, 6, 4))
}

func TestCountASTM_SkipsZeroRanges(t *testing.T) {
	cycles := CountASTM([]float64{0, 0, 2, 2, 0})
	for _, c := range cycles {
		require.Positive(t, c.Amplitude)
	}
}

func TestRainflowWindap(t *testing.T) {
	cycles, err := RainflowWindap(refSignal, WithLevels(18), WithThreshold(2))
	require.NoError(t, err)
	requireCycles(t, [][2]float64{
		{4, 1}, {4, 1}, {3, 0}, {4, -1}, {8, 1}, {9, 0}, {8, 0}, {6, 1},
	}, cycles)

	require.Equal(t, [][]float64{
		{0, 0, 1, 0},
		{1, 0, 0, 2},
		{0, 0, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 0, 0},
		{0, 0, 2, 1},
	}, histogram(t, cycles, 6, 4))
}

func TestRainflowWindap_InvalidOptions(t *testing.T) {
	_, err := RainflowWindap(refSignal, WithLevels(0))
	require.ErrorIs(t, err, errs.ErrInvalidOption)

	_, err = RainflowWindap(refSignal, WithThreshold(-1))
	require.ErrorIs(t, err, errs.ErrInvalidOption)
}

func TestCountPairRange(t *testing.T) {
	cycles := CountPairRange([]float64{-2, 1, -3, 5, -1, 3, -4, 4, -2})
	requireCycles(t, [][2]float64{
		{4, 1}, {4, 1}, {3, -0.5}, {4, -1}, {8, 1}, {9, 0.5}, {8, 0}, {6, 1},
	}, cycles)

	require.Nil(t, CountPairRange(nil))
}

func TestRainflowFourPoint(t *testing.T) {
	// A grid step of 0.5 keeps the integer samples unchanged.
	cycles, err := RainflowFourPoint(refSignal, WithHysteresisBins(9))
	require.NoError(t, err)
	requireCycles(t, [][2]float64{
		{4, 1}, {4, 1},
		{3, -0.5}, {3, -0.5},
		{7, 0.5}, {7, 0.5},
		{9, 0.5}, {9, 0.5},
	}, cycles)

	_, err = RainflowFourPoint(refSignal, WithHysteresisBins(0))
	require.ErrorIs(t, err, errs.ErrInvalidOption)
}

func TestFindReversals_FiltersSmallOscillations(t *testing.T) {
	signal := []float64{0, 10, 9.99, 10, 0}
	require.Equal(t, []float64{0, 10, 0}, FindReversals(signal, 4))
	require.Equal(t, []float64{2}, FindReversals([]float64{2, 2}, 4))
	require.Nil(t, FindReversals(nil, 4))
}

func TestCounters_SignalErrors(t *testing.T) {
	counters := map[string]Counter{
		"windap":    RainflowWindapCounter(),
		"astm":      RainflowASTM,
		"fourpoint": RainflowFourPointCounter(),
	}

	for name, counter := range counters {
		t.Run(name, func(t *testing.T) {
			_, err := counter(nil)
			require.ErrorIs(t, err, errs.ErrShape)

			_, err = counter([]float64{math.NaN(), math.NaN()})
			require.ErrorIs(t, err, errs.ErrShape)

			_, err = counter([]float64{4, 4, 4})
			require.ErrorIs(t, err, errs.ErrNoVariation)

			withGaps := append([]float64{math.NaN()}, refSignal...)
			withGaps = append(withGaps, math.NaN())
			expected, err := counter(refSignal)
			require.NoError(t, err)
			actual, err := counter(withGaps)
			require.NoError(t, err)
			require.Equal(t, expected, actual)
		})
	}
}

func TestCounterFor(t *testing.T) {
	for _, method := range []Method{MethodWindap, MethodASTM, MethodFourPoint} {
		counter, err := CounterFor(method)
		require.NoError(t, err)
		cycles, err := counter(refSignal)
		require.NoError(t, err)
		require.NotEmpty(t, cycles)
	}

	_, err := CounterFor(Method(99))
	require.ErrorIs(t, err, errs.ErrUnknownModel)
}
