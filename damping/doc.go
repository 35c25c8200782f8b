// Package damping estimates the damping of a free-decay oscillation.
//
// The estimator picks the peaks of both envelopes, derives the period from the median
// peak spacing and the damping from the decay of the peak amplitudes:
//
//	δn = ln(x0/xn) / n        log decrement over n periods
//	ζn = 1/sqrt(1+(2π/δn)²)   damping ratio per peak
//
// Damping ratio and log decrement are averaged over all peaks and both envelopes.
// The damped frequency is 1/T and the natural frequency fd/sqrt(1-ζ²).
//
// Signals that do not look like a decaying oscillation are rejected with
// errs.ErrInsufficientPeaks rather than producing fabricated values.
package damping
