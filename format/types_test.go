package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressionTypeString(t *testing.T) {
	require.Equal(t, "None", CompressionNone.String())
	require.Equal(t, "Zstd", CompressionZstd.String())
	require.Equal(t, "S2", CompressionS2.String())
	require.Equal(t, "LZ4", CompressionLZ4.String())
	require.Equal(t, "Unknown", CompressionType(0).String())
}

func TestCountingMethod(t *testing.T) {
	tests := []struct {
		name string
		want CountingMethod
	}{
		{"rainflow_windap", MethodWindap},
		{"rainflow_astm", MethodASTM},
		{"fatpack", MethodFourPoint},
		{"astm", MethodASTM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCountingMethod(tt.name)
			require.True(t, ok)
			require.Equal(t, tt.want, got)
		})
	}

	_, ok := ParseCountingMethod("hysteresis")
	require.False(t, ok)

	require.Equal(t, "rainflow_windap", MethodWindap.String())
	require.Equal(t, "unknown", CountingMethod(9).String())
}
