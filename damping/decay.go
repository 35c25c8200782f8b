package damping

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/internal/options"
)

// Decay describes a free-decay oscillation.
type Decay struct {
	// LogDec is the mean logarithmic decrement per period.
	LogDec float64
	// DampingRatio is the mean damping ratio ζ.
	DampingRatio float64
	// Period is the damped period, in units of t.
	Period float64
	// NaturalFreq is the undamped natural frequency fd/sqrt(1-ζ²).
	NaturalFreq float64
	// DampedFreq is 1/Period.
	DampedFreq float64
	// PosPeaks and NegPeaks are the sample indices of the upper and lower peaks.
	PosPeaks, NegPeaks []int
	// EnvelopePos and EnvelopeNeg are the fitted exponential envelopes, one value per sample.
	EnvelopePos, EnvelopeNeg []float64
}

func (d *Decay) String() string {
	return fmt.Sprintf("Decay{T=%.6g, fd=%.6g, fn=%.6g, zeta=%.6g, logdec=%.6g, peaks=%d/%d}",
		d.Period, d.DampedFreq, d.NaturalFreq, d.DampingRatio, d.LogDec, len(d.PosPeaks), len(d.NegPeaks))
}

// Config configures LogDecFromDecay.
type Config struct {
	// Threshold is the absolute peak threshold on the demeaned signal; NaN selects
	// DefaultThreshold.
	Threshold float64
	// Name identifies the signal in error messages and log records.
	Name string
	// Logger receives debug records; nil keeps the estimator silent.
	Logger *slog.Logger
}

func defaultConfig() Config {
	return Config{Threshold: math.NaN()}
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// WithThreshold sets the absolute peak threshold applied to the demeaned signal.
func WithThreshold(threshold float64) Option {
	return options.New(func(cfg *Config) error {
		if !(threshold >= 0) {
			return fmt.Errorf("%w: threshold must be non-negative, got %g", errs.ErrInvalidOption, threshold)
		}
		cfg.Threshold = threshold

		return nil
	})
}

// WithName labels errors and log records.
func WithName(name string) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Name = name
	})
}

// WithLogger sets the logger for debug records.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Logger = logger
	})
}

func (cfg *Config) wrap(err error) error {
	if err == nil || cfg.Name == "" {
		return err
	}

	return fmt.Errorf("%s: %w", cfg.Name, err)
}

// LogDecFromDecay estimates period, frequencies and damping of a decaying oscillation.
//
// The mean is removed first. Peaks of both envelopes give the damping (see
// LogDecFromThreshold) and the period; t must be uniformly sampled. The envelope
// m ± A·exp(-ζ·ωn·t) is anchored at the middle upper peak, with the phase taken from
// the interpolated zero down-crossing that follows it.
//
// Parameters:
//   - x: Signal samples
//   - t: Sample times, uniformly spaced
//   - opts: WithThreshold, WithName, WithLogger
//
// Returns:
//   - *Decay: The estimate
//   - error: errs.ErrShape for mismatched, short or NaN input, errs.ErrNoVariation for a
//     constant signal, errs.ErrInsufficientPeaks when the signal is not a decaying
//     oscillation
func LogDecFromDecay(x, t []float64, opts ...Option) (*Decay, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	d, err := logDecFromDecay(&cfg, x, t)

	return d, cfg.wrap(err)
}

func logDecFromDecay(cfg *Config, x, t []float64) (*Decay, error) {
	if len(x) != len(t) {
		return nil, fmt.Errorf("%w: %d samples for %d times", errs.ErrShape, len(x), len(t))
	}
	if len(x) < 3 {
		return nil, fmt.Errorf("%w: at least three samples are required", errs.ErrShape)
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(t[i]) {
			return nil, fmt.Errorf("%w: NaN at sample %d", errs.ErrShape, i)
		}
	}

	mean := stat.Mean(x, nil)
	demeaned := make([]float64, len(x))
	varies := false
	for i, v := range x {
		demeaned[i] = v - mean
		varies = varies || v != x[0]
	}
	if !varies {
		return nil, fmt.Errorf("%w: constant signal %g", errs.ErrNoVariation, x[0])
	}

	threshold := cfg.Threshold
	if math.IsNaN(threshold) {
		threshold = DefaultThreshold(demeaned)
	}

	dec, err := LogDecFromThreshold(demeaned, threshold, true)
	if err != nil {
		return nil, err
	}

	zeta := dec.DampingRatio
	if zeta >= 1 {
		return nil, fmt.Errorf("%w: damping ratio %g is not oscillatory", errs.ErrInsufficientPeaks, zeta)
	}

	dt := t[1] - t[0]
	period := dec.PeriodSamples * dt
	fd := 1 / period
	fn := fd / math.Sqrt(1-zeta*zeta)

	d := &Decay{
		LogDec:       dec.LogDec,
		DampingRatio: zeta,
		Period:       period,
		NaturalFreq:  fn,
		DampedFreq:   fd,
		PosPeaks:     dec.PosPeaks,
		NegPeaks:     dec.NegPeaks,
	}
	d.EnvelopePos, d.EnvelopeNeg = envelopes(demeaned, t, d, mean)

	if cfg.Logger != nil {
		cfg.Logger.LogAttrs(context.Background(), slog.LevelDebug, "estimated decay",
			slog.String("name", cfg.Name),
			slog.Float64("threshold", threshold),
			slog.Int("pos_peaks", len(d.PosPeaks)),
			slog.Int("neg_peaks", len(d.NegPeaks)),
			slog.Float64("period", d.Period),
			slog.Float64("damping_ratio", d.DampingRatio),
		)
	}

	return d, nil
}

// envelopes returns mean ± A·exp(-ζ·ωn·t) fitted through the middle upper peak.
func envelopes(x, t []float64, d *Decay, mean float64) ([]float64, []float64) {
	decay := d.DampingRatio * 2 * math.Pi * d.NaturalFreq
	omegaD := 2 * math.Pi * d.DampedFreq

	anchor := d.PosPeaks[len(d.PosPeaks)/2]
	// x(t) = A·exp(-decay·t)·cos(ωd·(t-tz) + π/2) with tz the zero down-crossing after
	// the anchor, so the peak value carries the factor sin(ωd·(tz-t_anchor)).
	phase := 1.0
	if tz, ok := downCrossing(x, t, anchor); ok {
		if s := math.Sin(omegaD * (tz - t[anchor])); s > 0.1 {
			phase = s
		}
	}
	amplitude := x[anchor] / (math.Exp(-decay*t[anchor]) * phase)

	pos := make([]float64, len(t))
	neg := make([]float64, len(t))
	for i, ti := range t {
		e := amplitude * math.Exp(-decay*ti)
		pos[i] = mean + e
		neg[i] = mean - e
	}

	return pos, neg
}

// downCrossing returns the linearly interpolated time of the first sign change from
// positive to non-positive after index from.
func downCrossing(x, t []float64, from int) (float64, bool) {
	for i := from + 1; i < len(x); i++ {
		if x[i] > 0 {
			continue
		}
		if x[i-1] <= 0 {
			return 0, false
		}

		return t[i-1] + x[i-1]*(t[i]-t[i-1])/(x[i-1]-x[i]), true
	}

	return 0, false
}
