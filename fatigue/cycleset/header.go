package cycleset

import (
	"fmt"
	"math"

	"github.com/arloliu/loadkit/endian"
	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/format"
)

const (
	EndiannessMask  = 0x0002 // Mask for endianness bit (bit 1)
	MagicNumberMask = 0xFFF0 // Mask for magic number (bits 4-15)

	MagicCycleSetV1 = 0xCC10 // MagicCycleSetV1 identifies version 1 of the cycle set format.

	HeaderSize = 32 // fixed header size in bytes
)

// Header is the fixed-size header at the start of an encoded cycle set.
type Header struct {
	// Options packs the endianness bit and the magic number.
	Options uint16 // byte offset 0-1
	// Method is the counting method the cycles were produced with.
	Method format.CountingMethod // byte offset 2
	// Compression is the codec applied to the payload.
	Compression format.CompressionType // byte offset 3
	// Count is the number of half-cycles.
	Count uint32 // byte offset 4-7
	// Weight is the load case weight.
	Weight float64 // byte offset 8-15
	// AmplitudeSize is the encoded size of the amplitude column before compression.
	AmplitudeSize uint32 // byte offset 16-19
	// PayloadSize is the size of the payload as stored after the header.
	PayloadSize uint32 // byte offset 20-23
	// Checksum is the xxHash64 of the stored payload.
	Checksum uint64 // byte offset 24-31
}

// IsBigEndian reports whether the numeric header fields are big-endian.
func (h *Header) IsBigEndian() bool {
	return h.Options&EndiannessMask != 0
}

func (h *Header) engine() endian.EndianEngine {
	return endian.ForFlag(h.IsBigEndian())
}

// Bytes serializes the header.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	engine := h.engine()

	b[0], b[1] = byte(h.Options), byte(h.Options>>8)
	b[2] = uint8(h.Method)
	b[3] = uint8(h.Compression)
	engine.PutUint32(b[4:8], h.Count)
	engine.PutUint64(b[8:16], math.Float64bits(h.Weight))
	engine.PutUint32(b[16:20], h.AmplitudeSize)
	engine.PutUint32(b[20:24], h.PayloadSize)
	engine.PutUint64(b[24:32], h.Checksum)

	return b
}

// Parse parses the header from data.
//
// Parameters:
//   - data: Byte slice holding at least HeaderSize bytes
//
// Returns:
//   - error: errs.ErrInvalidHeaderSize for short input, errs.ErrInvalidMagic for a foreign
//     magic number, errs.ErrInvalidPayload for unknown method or compression values
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: got %d bytes", errs.ErrInvalidHeaderSize, len(data))
	}

	h.Options = uint16(data[0]) | uint16(data[1])<<8
	if h.Options&MagicNumberMask != MagicCycleSetV1 {
		return fmt.Errorf("%w: 0x%04X", errs.ErrInvalidMagic, h.Options&MagicNumberMask)
	}

	h.Method = format.CountingMethod(data[2])
	h.Compression = format.CompressionType(data[3])
	engine := h.engine()
	h.Count = engine.Uint32(data[4:8])
	h.Weight = math.Float64frombits(engine.Uint64(data[8:16]))
	h.AmplitudeSize = engine.Uint32(data[16:20])
	h.PayloadSize = engine.Uint32(data[20:24])
	h.Checksum = engine.Uint64(data[24:32])

	return h.validate()
}

func (h *Header) validate() error {
	switch h.Method {
	case format.MethodWindap, format.MethodASTM, format.MethodFourPoint:
	default:
		return fmt.Errorf("%w: unknown counting method %d", errs.ErrInvalidPayload, uint8(h.Method))
	}

	switch h.Compression {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
	default:
		return fmt.Errorf("%w: unknown compression %d", errs.ErrInvalidPayload, uint8(h.Compression))
	}

	return nil
}
