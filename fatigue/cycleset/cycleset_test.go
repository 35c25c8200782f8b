package cycleset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/fatigue"
	"github.com/arloliu/loadkit/format"
)

var refSignal = []float64{-2, 0, 1, 0, -3, 0, 5, 0, -1, 0, 3, 0, -4, 0, 4, 0, -2}

func noisySignal(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		x := float64(i)
		s[i] = 50*math.Sin(x/40) + 7*math.Sin(x/3.1) + 2*math.Cos(x*1.7)
	}

	return s
}

func TestEncodeDecode(t *testing.T) {
	set, err := Count(fatigue.LoadCase{Weight: 2.5, Signal: noisySignal(5000)}, fatigue.MethodWindap)
	require.NoError(t, err)
	require.NotEmpty(t, set.Cycles)

	compressions := []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	}
	for _, compression := range compressions {
		for _, bigEndian := range []bool{false, true} {
			name := compression.String()
			opts := []Option{WithCompression(compression)}
			if bigEndian {
				name += "/big"
				opts = append(opts, WithBigEndian())
			}

			t.Run(name, func(t *testing.T) {
				data, err := Encode(set, opts...)
				require.NoError(t, err)

				var header Header
				require.NoError(t, header.Parse(data))
				require.Equal(t, bigEndian, header.IsBigEndian())
				require.Equal(t, compression, header.Compression)
				require.Equal(t, uint32(len(set.Cycles)), header.Count)

				decoded, err := Decode(data)
				require.NoError(t, err)
				require.Equal(t, set, decoded)
			})
		}
	}
}

func TestEncode_CompressesRepetitiveCycles(t *testing.T) {
	signal := make([]float64, 0, 16*500)
	for range 500 {
		signal = append(signal, refSignal[:16]...)
	}
	set, err := Count(fatigue.LoadCase{Weight: 1, Signal: signal}, fatigue.MethodASTM)
	require.NoError(t, err)

	plain, err := Encode(set, WithCompression(format.CompressionNone))
	require.NoError(t, err)
	packed, err := Encode(set, WithCompression(format.CompressionZstd))
	require.NoError(t, err)

	require.Less(t, len(plain), HeaderSize+16*len(set.Cycles))
	require.Less(t, len(packed), len(plain)/2)
}

func TestEncodeDecode_EmptySet(t *testing.T) {
	set := &Set{Method: fatigue.MethodASTM, Weight: 0, Cycles: []fatigue.Cycle{}}

	data, err := Encode(set)
	require.NoError(t, err)
	require.Len(t, data, HeaderSize)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, fatigue.MethodASTM, decoded.Method)
	require.Empty(t, decoded.Cycles)
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode(&Set{Method: fatigue.Method(9)})
	require.ErrorIs(t, err, errs.ErrInvalidPayload)

	_, err = Encode(&Set{Method: fatigue.MethodASTM}, WithCompression(format.CompressionType(0)))
	require.ErrorIs(t, err, errs.ErrInvalidOption)
}

func TestDecode_Corruption(t *testing.T) {
	set, err := Count(fatigue.LoadCase{Weight: 1, Signal: refSignal}, fatigue.MethodASTM)
	require.NoError(t, err)
	data, err := Encode(set, WithCompression(format.CompressionNone))
	require.NoError(t, err)

	corrupt := func(fn func([]byte) []byte) []byte {
		return fn(append([]byte(nil), data...))
	}

	tests := []struct {
		name     string
		data     []byte
		expected error
	}{
		{"short header", data[:HeaderSize-1], errs.ErrInvalidHeaderSize},
		{"magic", corrupt(func(b []byte) []byte { b[1] ^= 0xFF; return b }), errs.ErrInvalidMagic},
		{"method", corrupt(func(b []byte) []byte { b[2] = 0x7F; return b }), errs.ErrInvalidPayload},
		{"compression", corrupt(func(b []byte) []byte { b[3] = 0x7F; return b }), errs.ErrInvalidPayload},
		{"truncated payload", data[:len(data)-1], errs.ErrInvalidPayload},
		{"flipped payload", corrupt(func(b []byte) []byte { b[HeaderSize+3] ^= 0x01; return b }), errs.ErrChecksumMismatch},
		{"count", corrupt(func(b []byte) []byte { b[4] = 0xFF; return b }), errs.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestHeader_MagicIsByteOrderIndependent(t *testing.T) {
	h := Header{
		Options:     MagicCycleSetV1 | EndiannessMask,
		Method:      format.MethodFourPoint,
		Compression: format.CompressionS2,
		Count:       7,
		Weight:      0.25,
	}
	b := h.Bytes()
	require.Equal(t, byte(0x12), b[0])
	require.Equal(t, byte(0xCC), b[1])
	require.Equal(t, []byte{0, 0, 0, 7}, b[4:8])

	var parsed Header
	require.NoError(t, parsed.Parse(b))
	require.Equal(t, h, parsed)
}

func TestMatrixFromSets(t *testing.T) {
	loads := []fatigue.LoadCase{
		{Weight: 1, Signal: refSignal},
		{Weight: 3, Signal: noisySignal(3000)},
	}

	direct, err := fatigue.CycleMatrix(loads, fatigue.BinCount(8), fatigue.BinCount(3), fatigue.RainflowASTM)
	require.NoError(t, err)

	sets := make([]*Set, len(loads))
	for i, load := range loads {
		set, err := Count(load, fatigue.MethodASTM)
		require.NoError(t, err)
		data, err := Encode(set)
		require.NoError(t, err)
		sets[i], err = Decode(data)
		require.NoError(t, err)
	}

	pooled, err := MatrixFromSets(sets, fatigue.BinCount(8), fatigue.BinCount(3))
	require.NoError(t, err)
	require.Equal(t, direct.Cycles, pooled.Cycles)
	require.Equal(t, direct.AmplEdges, pooled.AmplEdges)
	require.Equal(t, direct.MeanEdges, pooled.MeanEdges)

	sets[1].Method = fatigue.MethodWindap
	_, err = MatrixFromSets(sets, fatigue.BinCount(8), fatigue.BinCount(3))
	require.ErrorIs(t, err, errs.ErrInvalidOption)

	_, err = MatrixFromSets(nil, fatigue.BinCount(8), fatigue.BinCount(3))
	require.ErrorIs(t, err, errs.ErrShape)
}

func TestCount_Errors(t *testing.T) {
	_, err := Count(fatigue.LoadCase{Weight: 1, Signal: []float64{1, 1}}, fatigue.MethodASTM)
	require.ErrorIs(t, err, errs.ErrNoVariation)

	_, err = Count(fatigue.LoadCase{Weight: 1, Signal: refSignal}, fatigue.Method(0))
	require.ErrorIs(t, err, errs.ErrUnknownModel)
}
