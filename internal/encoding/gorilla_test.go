package encoding

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, values []float64) []byte {
	t.Helper()

	enc := NewFloatEncoder()
	defer enc.Finish()

	enc.WriteSlice(values)
	require.Equal(t, len(values), enc.Len())

	return append([]byte(nil), enc.Bytes()...)
}

func TestFloatEncoder_SingleValue(t *testing.T) {
	data := encode(t, []float64{42.0})
	require.Len(t, data, 8)

	got, ok := Decode(nil, data, 1)
	require.True(t, ok)
	require.Equal(t, []float64{42.0}, got)
}

func TestFloatEncoder_UnchangedValues(t *testing.T) {
	values := []float64{2.5, 2.5, 2.5, 2.5, 2.5}
	data := encode(t, values)

	// 64 bits for the first value plus one bit per repeat
	require.LessOrEqual(t, len(data), 9)

	got, ok := Decode(nil, data, len(values))
	require.True(t, ok)
	require.Equal(t, values, got)
}

func TestFloatEncoder_QuantisedCycles(t *testing.T) {
	// typical windap output: amplitudes on a threshold grid
	values := []float64{4, 4, 3, 4, 8, 9, 8, 6, 4, 4, 4, 3}
	data := encode(t, values)
	require.Less(t, len(data), len(values)*8)

	got, ok := Decode(nil, data, len(values))
	require.True(t, ok)
	require.Equal(t, values, got)
}

func TestFloatEncoder_SpecialValues(t *testing.T) {
	values := []float64{0, -0.0, math.Inf(1), math.Inf(-1), math.MaxFloat64, math.SmallestNonzeroFloat64, 1}
	data := encode(t, values)

	got, ok := Decode(nil, data, len(values))
	require.True(t, ok)
	for i := range values {
		require.Equal(t, math.Float64bits(values[i]), math.Float64bits(got[i]), "index %d", i)
	}
}

func TestFloatEncoder_RandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := make([]float64, 1000)
	for i := range values {
		values[i] = rng.NormFloat64() * 100
	}

	data := encode(t, values)
	got, ok := Decode(nil, data, len(values))
	require.True(t, ok)
	require.Equal(t, values, got)
}

func TestDecode_Truncated(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	data := encode(t, values)

	got, ok := Decode(nil, data[:len(data)/2], len(values))
	require.False(t, ok)
	require.Less(t, len(got), len(values))

	_, ok = Decode(nil, nil, 3)
	require.False(t, ok)
}

func TestAll_EarlyStop(t *testing.T) {
	data := encode(t, []float64{1, 2, 3, 4})

	var seen []float64
	for v := range All(data, 4) {
		seen = append(seen, v)
		if len(seen) == 2 {
			break
		}
	}
	require.Equal(t, []float64{1, 2}, seen)
}

func TestFloatEncoder_WriteAfterFinishPanics(t *testing.T) {
	enc := NewFloatEncoder()
	enc.Finish()
	enc.Finish()
	require.Panics(t, func() { enc.Write(1) })
}
