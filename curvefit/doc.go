// Package curvefit fits parametric models to (x, y) samples.
//
// A model is selected with a specification string:
//
//   - "eval: <expr>": a formula over x with {name} fit parameters, see package expr
//   - "predef: <name>": a model from the predefined registry, see Names
//   - "fitter: polynomial_continuous <order>": every power from 0 to order
//   - "fitter: polynomial_discrete <e1> <e2> ...": only the listed powers
//   - "fitter: sinusoid": A*sin(omega*x+phi)+B with a spectral initial guess
//   - "fitter: gaussian": A*exp(-((x-mu)/sigma)²/2)+offset with a moment initial guess
//
// Polynomials are solved by QR least squares. Every other model is fitted with a
// box-bounded Levenberg-Marquardt solver.
//
// # Basic Usage
//
//	res, err := curvefit.Fit("predef: gaussian", x, y)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.CoeffMap["mu"], res.CoeffMap["sigma"], res.RSquared)
//
// # Guesses and Bounds
//
// Formula and predefined models accept an initial guess (WithGuess, WithGuessMap) and
// bounds (WithBounds, WithScalarBounds, WithBoundsMap). Without a guess the model's
// default is used, then a point derived from the bounds, then zero. Guesses outside
// the bounds are clipped into them.
//
// # Constants
//
// WithConstants fixes values during the fit. Predefined models declare the constants
// they need; in a formula any placeholder named in the constants is held fixed instead
// of fitted:
//
//	curvefit.Fit("eval: {u_ref}*(x/{z_ref})**{alpha}", z, u,
//	    curvefit.WithConstants(map[string]float64{"u_ref": 10, "z_ref": 100}))
//
// # Errors
//
// Failures wrap the sentinels of package errs, so callers can test them with
// errors.Is: ErrShape, ErrModelDefinition, ErrUnknownModel, ErrBounds, ErrGuess and
// ErrFitConvergence.
package curvefit
