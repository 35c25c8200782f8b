package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.id, ID(tt.data))
			require.Equal(t, tt.id, Sum([]byte(tt.data)))
		})
	}
}

func TestIDFormulaKeys(t *testing.T) {
	require.NotEqual(t, ID("{a}*x + {b}"), ID("{a}*x+{b}"))
	require.Equal(t, ID("{a}*x**2"), ID("{a}*x**2"))
}

func BenchmarkID(b *testing.B) {
	src := "{A}*exp(-{k}*x)+{B}"
	for b.Loop() {
		ID(src)
	}
}
