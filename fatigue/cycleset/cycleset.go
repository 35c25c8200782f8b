package cycleset

import (
	"fmt"
	"math"

	"github.com/arloliu/loadkit/compress"
	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/fatigue"
	"github.com/arloliu/loadkit/format"
	"github.com/arloliu/loadkit/internal/encoding"
	"github.com/arloliu/loadkit/internal/hash"
	"github.com/arloliu/loadkit/internal/options"
)

// Set holds the counted half-cycles of one load case.
type Set struct {
	Method fatigue.Method
	Weight float64
	Cycles []fatigue.Cycle
}

// Count counts load with method and returns the resulting set.
func Count(load fatigue.LoadCase, method fatigue.Method) (*Set, error) {
	counter, err := fatigue.CounterFor(method)
	if err != nil {
		return nil, err
	}

	cycles, err := counter(load.Signal)
	if err != nil {
		return nil, err
	}

	return &Set{Method: method, Weight: load.Weight, Cycles: cycles}, nil
}

// WeightedCycles returns the set in the form accepted by fatigue.MatrixFromCycles.
func (s *Set) WeightedCycles() fatigue.WeightedCycles {
	return fatigue.WeightedCycles{Weight: s.Weight, Cycles: s.Cycles}
}

// Config holds the encoding settings.
type Config struct {
	// Compression is the payload codec.
	Compression format.CompressionType
	// BigEndian writes numeric header fields most significant byte first.
	BigEndian bool
}

func defaultConfig() Config {
	return Config{Compression: format.CompressionZstd}
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// WithCompression selects the payload codec.
func WithCompression(compression format.CompressionType) Option {
	return options.New(func(cfg *Config) error {
		if _, err := compress.GetCodec(compression); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrInvalidOption, err)
		}
		cfg.Compression = compression

		return nil
	})
}

// WithBigEndian writes the header in big-endian byte order.
func WithBigEndian() Option {
	return options.NoError(func(cfg *Config) {
		cfg.BigEndian = true
	})
}

// Encode serializes set.
//
// Parameters:
//   - set: Cycles to encode
//   - opts: WithCompression (default zstd), WithBigEndian
//
// Returns:
//   - []byte: Header followed by the compressed payload
//   - error: errs.ErrInvalidOption for bad options, errs.ErrInvalidPayload for an
//     unknown counting method or a set too large for the format, or a codec error
func Encode(set *Set, opts ...Option) ([]byte, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}
	if uint64(len(set.Cycles)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d cycles exceed the format limit", errs.ErrInvalidPayload, len(set.Cycles))
	}

	header := Header{
		Options:     MagicCycleSetV1,
		Method:      set.Method,
		Compression: cfg.Compression,
		Count:       uint32(len(set.Cycles)), //nolint:gosec // checked above
		Weight:      set.Weight,
	}
	if cfg.BigEndian {
		header.Options |= EndiannessMask
	}
	if err := header.validate(); err != nil {
		return nil, err
	}

	ampl := encoding.NewFloatEncoder()
	defer ampl.Finish()
	mean := encoding.NewFloatEncoder()
	defer mean.Finish()
	for _, c := range set.Cycles {
		ampl.Write(c.Amplitude)
		mean.Write(c.Mean)
	}

	amplBytes, meanBytes := ampl.Bytes(), mean.Bytes()
	raw := make([]byte, 0, len(amplBytes)+len(meanBytes))
	raw = append(raw, amplBytes...)
	raw = append(raw, meanBytes...)

	codec, err := compress.CreateCodec(cfg.Compression, "cycle set payload")
	if err != nil {
		return nil, err
	}
	payload, err := codec.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("compress cycle set payload: %w", err)
	}
	if uint64(len(raw)) > math.MaxUint32 || uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds the format limit", errs.ErrInvalidPayload, len(raw))
	}

	header.AmplitudeSize = uint32(len(amplBytes)) //nolint:gosec // checked above
	header.PayloadSize = uint32(len(payload))     //nolint:gosec // checked above
	header.Checksum = hash.Sum(payload)

	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, header.Bytes()...)

	return append(out, payload...), nil
}

// Decode parses a set produced by Encode.
//
// Returns:
//   - *Set: The decoded set
//   - error: errs.ErrInvalidHeaderSize, errs.ErrInvalidMagic, errs.ErrChecksumMismatch or
//     errs.ErrInvalidPayload for corrupted input
func Decode(data []byte) (*Set, error) {
	var header Header
	if err := header.Parse(data); err != nil {
		return nil, err
	}

	payload := data[HeaderSize:]
	if uint64(len(payload)) != uint64(header.PayloadSize) {
		return nil, fmt.Errorf("%w: payload has %d bytes, header declares %d", errs.ErrInvalidPayload, len(payload), header.PayloadSize)
	}
	if sum := hash.Sum(payload); sum != header.Checksum {
		return nil, fmt.Errorf("%w: got %016x, want %016x", errs.ErrChecksumMismatch, sum, header.Checksum)
	}

	codec, err := compress.GetCodec(header.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidPayload, err)
	}
	raw, err := codec.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidPayload, err)
	}
	if uint64(header.AmplitudeSize) > uint64(len(raw)) {
		return nil, fmt.Errorf("%w: amplitude column exceeds payload", errs.ErrInvalidPayload)
	}

	n := int(header.Count)
	ampls, ok := encoding.Decode(make([]float64, 0, n), raw[:header.AmplitudeSize], n)
	if !ok {
		return nil, fmt.Errorf("%w: truncated amplitude column", errs.ErrInvalidPayload)
	}
	means, ok := encoding.Decode(make([]float64, 0, n), raw[header.AmplitudeSize:], n)
	if !ok {
		return nil, fmt.Errorf("%w: truncated mean column", errs.ErrInvalidPayload)
	}

	set := &Set{
		Method: header.Method,
		Weight: header.Weight,
		Cycles: make([]fatigue.Cycle, n),
	}
	for i := range set.Cycles {
		set.Cycles[i] = fatigue.Cycle{Amplitude: ampls[i], Mean: means[i]}
	}

	return set, nil
}

// MatrixFromSets pools sets into a cycle matrix. All sets must share one counting method.
func MatrixFromSets(sets []*Set, amplBins, meanBins fatigue.Bins) (*fatigue.Matrix, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no cycle sets", errs.ErrShape)
	}

	groups := make([]fatigue.WeightedCycles, len(sets))
	for i, s := range sets {
		if s.Method != sets[0].Method {
			return nil, fmt.Errorf("%w: set %d counted with %s, set 0 with %s",
				errs.ErrInvalidOption, i, s.Method, sets[0].Method)
		}
		groups[i] = s.WeightedCycles()
	}

	return fatigue.MatrixFromCycles(groups, amplBins, meanBins)
}
