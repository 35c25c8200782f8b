package compress

import (
	"fmt"

	"github.com/arloliu/loadkit/format"
)

// Compressor compresses an encoded cycle set column block.
type Compressor interface {
	// Compress returns the compressed form of data.
	//
	// The returned slice is owned by the caller and the input is not modified.
	// Implementations may return the input itself when no compression is applied.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm.
type Decompressor interface {
	// Decompress returns the original bytes of data.
	//
	// An error is returned when data is corrupted or was produced by a different
	// algorithm. Empty input decompresses to nil.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats summarises a single compression of a cycle set payload.
type CompressionStats struct {
	// Algorithm identifies the compression algorithm used.
	Algorithm format.CompressionType
	// OriginalSize is the encoded size before compression.
	OriginalSize int64
	// CompressedSize is the size after compression.
	CompressedSize int64
}

// Measure compresses data with codec and reports the resulting sizes.
//
// Parameters:
//   - codec: Codec to apply
//   - algorithm: Compression type the codec implements
//   - data: Encoded payload
//
// Returns:
//   - []byte: Compressed payload
//   - CompressionStats: Sizes before and after compression
//   - error: Compression error, if any
func Measure(codec Codec, algorithm format.CompressionType, data []byte) ([]byte, CompressionStats, error) {
	packed, err := codec.Compress(data)
	if err != nil {
		return nil, CompressionStats{}, err
	}

	return packed, CompressionStats{
		Algorithm:      algorithm,
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(len(packed)),
	}, nil
}

// CompressionRatio returns compressed size divided by original size.
//
// Values below 1.0 mean the codec saved space. Zero is returned for an empty input.
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space saved as a percentage.
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// CreateCodec creates a Codec for the specified compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, or LZ4)
//   - target: Description of the payload, used in error messages
//
// Returns:
//   - Codec: Codec for the specified type
//   - error: Invalid compression type error
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the shared built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
