// Package format declares the small enumerations shared across loadkit packages.
package format

type (
	// CompressionType selects the codec applied to cycle set payloads.
	CompressionType uint8
	// CountingMethod selects the rainflow counting backend.
	CountingMethod uint8
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

const (
	MethodWindap    CountingMethod = 0x1 // MethodWindap is the peak-trough / pair-range counter.
	MethodASTM      CountingMethod = 0x2 // MethodASTM is the ASTM E1049-85 stack counter.
	MethodFourPoint CountingMethod = 0x3 // MethodFourPoint is the four-point counter with residue closure.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

func (m CountingMethod) String() string {
	switch m {
	case MethodWindap:
		return "rainflow_windap"
	case MethodASTM:
		return "rainflow_astm"
	case MethodFourPoint:
		return "fatpack"
	default:
		return "unknown"
	}
}

// ParseCountingMethod maps the method names used by callers ("rainflow_windap",
// "rainflow_astm", "fatpack", "fourpoint") to a CountingMethod.
func ParseCountingMethod(name string) (CountingMethod, bool) {
	switch name {
	case "rainflow_windap", "windap":
		return MethodWindap, true
	case "rainflow_astm", "astm":
		return MethodASTM, true
	case "fatpack", "fourpoint", "four_point":
		return MethodFourPoint, true
	default:
		return 0, false
	}
}
