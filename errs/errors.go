// Package errs defines the sentinel errors returned by the loadkit engines.
//
// Engines wrap these sentinels with context using fmt.Errorf("...: %w", ...), so callers
// should test for them with errors.Is rather than comparing error strings.
package errs

import "errors"

// Curve fitting errors.
var (
	// ErrModelDefinition is returned for malformed formulas, formulas without fit parameters,
	// or formulas whose evaluation does not produce one value per x sample.
	ErrModelDefinition = errors.New("invalid model definition")
	// ErrUnknownModel is returned when a predefined model or fitter name is not registered.
	ErrUnknownModel = errors.New("unknown model")
	// ErrBounds is returned when bounds are missing coefficients or have the wrong length.
	ErrBounds = errors.New("invalid bounds")
	// ErrGuess is returned when an initial guess is missing coefficients or has the wrong length.
	ErrGuess = errors.New("invalid initial guess")
	// ErrFitConvergence is returned when the nonlinear solver fails or exceeds its iteration cap.
	ErrFitConvergence = errors.New("fit did not converge")
)

// ErrInvalidOption is returned when an option or numeric parameter is out of range.
var ErrInvalidOption = errors.New("invalid option")

// Signal errors shared by the fatigue and damping engines.
var (
	// ErrShape is returned for empty inputs, NaN-only inputs, or mismatched lengths.
	ErrShape = errors.New("invalid input shape")
	// ErrNoVariation is returned when a signal is constant and has nothing to count.
	ErrNoVariation = errors.New("signal has no variation")
	// ErrInsufficientPeaks is returned when a decay signal does not yield enough peaks.
	ErrInsufficientPeaks = errors.New("insufficient peaks")
)

// Cycle set encoding errors.
var (
	ErrInvalidHeaderSize = errors.New("invalid cycle set header size")
	ErrInvalidMagic      = errors.New("invalid cycle set magic number")
	ErrChecksumMismatch  = errors.New("cycle set checksum mismatch")
	ErrInvalidPayload    = errors.New("invalid cycle set payload")
)
