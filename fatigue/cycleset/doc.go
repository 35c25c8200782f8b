// Package cycleset stores counted rainflow cycles in a compact binary form.
//
// Counting long simulation outputs is the expensive part of a fatigue evaluation.
// A Set captures the half-cycles of one load case together with its weight and
// counting method, so the counting can be cached and the cycle matrix rebuilt later
// with different bins through MatrixFromSets.
//
// # Layout
//
// An encoded set is a 32-byte header followed by a single payload:
//
//	offset  size  field
//	0       2     options: bit 1 big-endian, bits 4-15 magic (always little-endian)
//	2       1     counting method
//	3       1     compression type
//	4       4     half-cycle count
//	8       8     load case weight (float64 bits)
//	16      4     encoded size of the amplitude column
//	20      4     payload size as stored
//	24      8     xxHash64 of the stored payload
//
// The payload is the Gorilla-encoded amplitude column followed by the Gorilla-encoded
// mean column, compressed as one block with the selected codec.
package cycleset
