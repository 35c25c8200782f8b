package encoding

import (
	"encoding/binary"
	"iter"
	"math"
	"math/bits"

	"github.com/arloliu/loadkit/internal/pool"
)

// FloatEncoder encodes float64 values with Gorilla XOR compression.
//
// Layout per value:
//   - first value: 64 raw bits
//   - unchanged value: control bit 0
//   - changed value, same block as previous: bits 1,0 + meaningful bits
//   - changed value, new block: bits 1,1 + 5 bits leading zeros + 6 bits (block size - 1) + meaningful bits
//
// Note: FloatEncoder is not safe for concurrent use.
type FloatEncoder struct {
	bitBuf        uint64
	prevValue     uint64
	bitCount      int
	count         int
	prevLeading   int
	prevTrailing  int
	prevBlockSize int
	firstValue    bool

	buf *pool.ByteBuffer
}

// NewFloatEncoder creates a new encoder backed by a pooled buffer.
func NewFloatEncoder() *FloatEncoder {
	return &FloatEncoder{
		buf:        pool.GetEncodeBuffer(),
		firstValue: true,
	}
}

// Write encodes a single value.
func (e *FloatEncoder) Write(val float64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write values after Finish()")
	}

	e.count++
	valBits := math.Float64bits(val)
	if e.firstValue {
		e.firstValue = false
		e.prevValue = valBits
		e.writeBits(valBits, 64)

		return
	}

	e.writeValue(valBits)
}

// WriteSlice encodes values in order.
func (e *FloatEncoder) WriteSlice(values []float64) {
	for _, v := range values {
		e.Write(v)
	}
}

// Len returns the number of encoded values.
func (e *FloatEncoder) Len() int {
	return e.count
}

// Bytes flushes pending bits and returns the encoded data.
//
// The returned slice references the internal buffer and is valid until Finish is called.
func (e *FloatEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}
	if e.bitCount > 0 {
		e.flushBits()
	}

	return e.buf.Bytes()
}

// Finish returns the buffer to the pool. The encoder is unusable afterwards.
func (e *FloatEncoder) Finish() {
	if e.buf == nil {
		return
	}

	pool.PutEncodeBuffer(e.buf)
	e.buf = nil
}

func (e *FloatEncoder) writeValue(valBits uint64) {
	xor := valBits ^ e.prevValue
	e.prevValue = valBits

	if xor == 0 {
		e.writeBits(0, 1)
		return
	}

	e.writeBits(1, 1)

	leading := bits.LeadingZeros64(xor)
	trailing := bits.TrailingZeros64(xor)

	// leading zeros are stored in 5 bits
	if leading > 31 {
		leading = 31
	}

	if e.count > 2 && e.prevBlockSize > 0 && leading >= e.prevLeading && trailing >= e.prevTrailing {
		e.writeBits(0, 1)
		e.writeBits(xor>>e.prevTrailing, e.prevBlockSize)

		return
	}

	blockSize := 64 - leading - trailing
	e.writeBits(1, 1)
	e.writeBits(uint64(leading), 5)     //nolint:gosec // leading is 0-31
	e.writeBits(uint64(blockSize-1), 6) //nolint:gosec // blockSize is 1-64
	e.writeBits(xor>>trailing, blockSize)

	e.prevLeading = leading
	e.prevTrailing = trailing
	e.prevBlockSize = blockSize
}

// writeBits appends the numBits least significant bits of value (1-64 bits).
func (e *FloatEncoder) writeBits(value uint64, numBits int) {
	if numBits == 0 {
		return
	}
	if numBits < 64 {
		value &= (1 << numBits) - 1
	}

	available := 64 - e.bitCount
	if numBits <= available {
		if numBits == 64 {
			e.bitBuf = value
		} else {
			e.bitBuf = (e.bitBuf << numBits) | value
		}
		e.bitCount += numBits
		if e.bitCount == 64 {
			e.flushBits()
		}

		return
	}

	// split across the 64-bit boundary
	highBits := numBits - available
	e.bitBuf = (e.bitBuf << available) | (value >> highBits)
	e.bitCount = 64
	e.flushBits()

	e.bitBuf = value & ((1 << highBits) - 1)
	e.bitCount = highBits
}

// flushBits writes the pending bits big-endian, left aligned to a byte boundary.
func (e *FloatEncoder) flushBits() {
	if e.bitCount == 0 {
		return
	}

	numBytes := (e.bitCount + 7) / 8
	aligned := e.bitBuf << (64 - e.bitCount)
	if e.bitCount == 64 {
		aligned = e.bitBuf
	}

	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], aligned)
	_, _ = e.buf.Write(tmp[:numBytes])

	e.bitBuf = 0
	e.bitCount = 0
}

// All decodes count values from Gorilla encoded data.
//
// If the data is truncated or malformed the iterator yields fewer than count values.
func All(data []byte, count int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if len(data) == 0 || count <= 0 {
			return
		}

		br := bitReader{data: data}
		prev, ok := br.readBits(64)
		if !ok || !yield(math.Float64frombits(prev)) {
			return
		}

		trailing, blockSize := 0, 0
		for i := 1; i < count; i++ {
			changed, ok := br.readBits(1)
			if !ok {
				return
			}
			if changed == 1 {
				newBlock, ok := br.readBits(1)
				if !ok {
					return
				}
				if newBlock == 1 {
					leading, ok1 := br.readBits(5)
					size, ok2 := br.readBits(6)
					if !ok1 || !ok2 {
						return
					}
					blockSize = int(size) + 1                //nolint:gosec // 6-bit value
					trailing = 64 - int(leading) - blockSize //nolint:gosec // 5-bit value
					if trailing < 0 {
						return
					}
				} else if blockSize == 0 {
					return
				}

				meaningful, ok := br.readBits(blockSize)
				if !ok {
					return
				}
				prev ^= meaningful << trailing
			}

			if !yield(math.Float64frombits(prev)) {
				return
			}
		}
	}
}

// Decode appends count decoded values to dst.
// It reports false when the data holds fewer than count values.
func Decode(dst []float64, data []byte, count int) ([]float64, bool) {
	n := 0
	for v := range All(data, count) {
		dst = append(dst, v)
		n++
	}

	return dst, n == count
}

type bitReader struct {
	data     []byte
	bytePos  int
	bitBuf   uint64
	bitCount int
}

// readBits reads numBits (1-64) bits, right aligned.
func (br *bitReader) readBits(numBits int) (uint64, bool) {
	var result uint64
	for numBits > 0 {
		if br.bitCount == 0 && !br.fill() {
			return 0, false
		}

		n := min(numBits, br.bitCount)
		chunk := br.bitBuf >> (64 - n)
		if n == 64 {
			result = chunk
		} else {
			result = (result << n) | chunk
		}
		if n == 64 {
			br.bitBuf = 0
		} else {
			br.bitBuf <<= n
		}
		br.bitCount -= n
		numBits -= n
	}

	return result, true
}

func (br *bitReader) fill() bool {
	if br.bytePos >= len(br.data) {
		return false
	}

	avail := len(br.data) - br.bytePos
	if avail >= 8 {
		br.bitBuf = binary.BigEndian.Uint64(br.data[br.bytePos:])
		br.bytePos += 8
		br.bitCount = 64

		return true
	}

	br.bitBuf = 0
	for i := 0; i < avail; i++ {
		br.bitBuf = (br.bitBuf << 8) | uint64(br.data[br.bytePos])
		br.bytePos++
	}
	br.bitBuf <<= (8 - avail) * 8
	br.bitCount = avail * 8

	return true
}
