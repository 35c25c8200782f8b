// Package fatigue implements rainflow cycle counting and fatigue equivalent loads.
//
// A load history is reduced to its turning points, the turning points are paired
// into stress cycles, the cycles are binned into an amplitude/mean (Markov) matrix,
// and the matrix is collapsed into a single damage-equivalent load for a Wöhler
// exponent m:
//
//	Leq = (Σ Nᵢ·Sᵢᵐ / neq)^(1/m)
//
// # Counting Methods
//
//   - MethodWindap: quantise to a level grid, reduce with the peak-trough filter and
//     count with the pair-range algorithm. Amplitudes and means are rounded to
//     multiples of the threshold.
//   - MethodASTM: plain turning points counted with the ASTM E1049-85 stack rules.
//   - MethodFourPoint: hysteresis-filtered reversals counted with the four-point rule,
//     with the residue closed by counting it concatenated with itself.
//
// Every counter returns half-cycles: a closed hysteresis loop appears twice. The
// cycle matrix therefore halves its counts to report full cycles.
//
// "Amplitude" follows the convention of the reference wind-energy tooling and is the
// full stress range of the cycle, not half of it.
//
// # Usage
//
//	loads, err := fatigue.EqLoad(signal, 46, []float64{3, 4, 6}, []float64{1e7}, fatigue.RainflowWindapCounter())
//
// All functions are safe for concurrent use. CycleMatrix counts several load cases
// in parallel.
package fatigue
