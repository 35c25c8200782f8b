// Package compress provides the codecs applied to serialized cycle set columns.
//
// A cycle set stores three Gorilla-encoded float columns (amplitudes, means and
// weights). Quantised counters such as the windap method produce long runs of
// repeated values, so a general-purpose codec applied after encoding usually
// shrinks the payload further.
//
// # Codecs
//
//   - None (format.CompressionNone): pass-through, returns the input slice
//   - Zstd (format.CompressionZstd): best ratio, pooled klauspost encoders
//   - S2 (format.CompressionS2): fast with a reasonable ratio
//   - LZ4 (format.CompressionLZ4): fastest decompression
//
// Building with the gozstd tag (and cgo enabled) swaps the Zstd implementation
// for the cgo binding from github.com/valyala/gozstd. Both produce standard zstd
// frames, so payloads written by one are readable by the other.
//
// # Usage
//
//	codec, err := compress.CreateCodec(format.CompressionZstd, "cycle set")
//	if err != nil {
//		return err
//	}
//	packed, err := codec.Compress(columns)
//
// All codecs are safe for concurrent use.
package compress
