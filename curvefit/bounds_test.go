package curvefit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/loadkit/errs"
)

func TestResolveBounds(t *testing.T) {
	names := []string{"a", "b", "c"}
	inf := math.Inf(1)

	t.Run("unbounded", func(t *testing.T) {
		lo, hi, err := resolveBounds(names, nil, nil, &FitConfig{})
		require.NoError(t, err)
		require.Equal(t, []float64{-inf, -inf, -inf}, lo)
		require.Equal(t, []float64{inf, inf, inf}, hi)
	})

	t.Run("model_default", func(t *testing.T) {
		lo, hi, err := resolveBounds(names[:1], []float64{-1}, []float64{1}, &FitConfig{})
		require.NoError(t, err)
		require.Equal(t, []float64{-1}, lo)
		require.Equal(t, []float64{1}, hi)
	})

	t.Run("broadcast", func(t *testing.T) {
		cfg := &FitConfig{Lower: []float64{0}, Upper: []float64{1, 2, 3}}
		lo, hi, err := resolveBounds(names, nil, nil, cfg)
		require.NoError(t, err)
		require.Equal(t, []float64{0, 0, 0}, lo)
		require.Equal(t, []float64{1, 2, 3}, hi)
	})

	t.Run("map_with_wildcard", func(t *testing.T) {
		cfg := &FitConfig{BoundsMap: map[string][2]float64{"b": {0, 5}, "all": {-1, 1}}}
		lo, hi, err := resolveBounds(names, []float64{9, 9, 9}, []float64{10, 10, 10}, cfg)
		require.NoError(t, err)
		require.Equal(t, []float64{-1, 0, -1}, lo)
		require.Equal(t, []float64{1, 5, 1}, hi)
	})

	t.Run("map_missing_key", func(t *testing.T) {
		cfg := &FitConfig{BoundsMap: map[string][2]float64{"a": {0, 1}, "b": {0, 1}}}
		_, _, err := resolveBounds(names, nil, nil, cfg)
		require.ErrorIs(t, err, errs.ErrBounds)
		require.ErrorContains(t, err, `"c"`)
	})

	t.Run("length_mismatch", func(t *testing.T) {
		cfg := &FitConfig{Lower: []float64{0, 0}, Upper: []float64{1}}
		_, _, err := resolveBounds(names, nil, nil, cfg)
		require.ErrorIs(t, err, errs.ErrBounds)
	})
}

func TestGuessFromBounds(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		lo, hi, want float64
	}{
		{0, 10, 5},
		{-inf, inf, 0},
		{2, inf, 4},
		{0.5, inf, 1.5},
		{-3, inf, 0},
		{-inf, -3, -6},
		{-inf, 4, 0},
		{-inf, 0, -1},
	}
	for _, tt := range tests {
		got := guessFromBounds(tt.lo, tt.hi)
		require.InDelta(t, tt.want, got, 1e-15, "bounds [%g, %g]", tt.lo, tt.hi)
		require.NotEqual(t, tt.lo, got)
		require.NotEqual(t, tt.hi, got)
	}
}

func TestResolveGuess(t *testing.T) {
	names := []string{"a", "b"}
	inf := math.Inf(1)
	lo := []float64{0, -inf}
	hi := []float64{1, inf}

	t.Run("caller_slice_clipped", func(t *testing.T) {
		got, err := resolveGuess(names, nil, lo, hi, &FitConfig{Guess: []float64{5, -7}})
		require.NoError(t, err)
		require.Equal(t, []float64{1, -7}, got)
	})

	t.Run("caller_map", func(t *testing.T) {
		got, err := resolveGuess(names, []float64{0.2, 0.2}, lo, hi,
			&FitConfig{GuessMap: map[string]float64{"a": 0.5, "b": 3}})
		require.NoError(t, err)
		require.Equal(t, []float64{0.5, 3}, got)
	})

	t.Run("model_default", func(t *testing.T) {
		got, err := resolveGuess(names, []float64{0.2, 8}, lo, hi, &FitConfig{})
		require.NoError(t, err)
		require.Equal(t, []float64{0.2, 8}, got)
	})

	t.Run("from_bounds", func(t *testing.T) {
		got, err := resolveGuess(names, nil, lo, hi, &FitConfig{})
		require.NoError(t, err)
		require.Equal(t, []float64{0.5, 0}, got)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := resolveGuess(names, nil, lo, hi, &FitConfig{Guess: []float64{1}})
		require.ErrorIs(t, err, errs.ErrGuess)

		_, err = resolveGuess(names, nil, lo, hi, &FitConfig{GuessMap: map[string]float64{"b": 1}})
		require.ErrorIs(t, err, errs.ErrGuess)
	})
}
