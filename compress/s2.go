package compress

import (
	"fmt"
	"math"

	"github.com/klauspost/compress/s2"
)

// maxS2Decoded bounds the decoded size announced by an S2 block. A cycle set payload
// length is a uint32 in its header, so anything larger is corrupt.
const maxS2Decoded = math.MaxUint32

// S2Compressor encodes cycle set payloads as S2 blocks.
//
// Blocks are written with s2.EncodeBetter. Any S2 block decodes regardless of the
// level it was written with.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress returns data as a single S2 block.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.EncodeBetter(nil, data), nil
}

// Decompress decodes an S2 block after checking the length it announces.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("s2: %w", err)
	}
	if uint64(n) > maxS2Decoded {
		return nil, fmt.Errorf("s2: block announces %d decoded bytes", n)
	}

	return s2.Decode(make([]byte, n), data)
}
