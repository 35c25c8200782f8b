package fatigue

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/internal/options"
)

// Default counting settings.
const (
	DefaultLevels         = 255.0
	DefaultThreshold      = 255.0 / 50.0
	DefaultHysteresisBins = 64
)

// WindapConfig configures RainflowWindap.
type WindapConfig struct {
	// Levels is the number of quantisation steps spanning the signal range.
	Levels float64
	// Threshold is the smallest swing, in quantisation steps, kept by the peak-trough filter.
	Threshold float64
}

func defaultWindapConfig() WindapConfig {
	return WindapConfig{Levels: DefaultLevels, Threshold: DefaultThreshold}
}

// WindapOption is a functional option for WindapConfig.
type WindapOption = options.Option[*WindapConfig]

// WithLevels sets the number of quantisation levels. It must be positive.
func WithLevels(levels float64) WindapOption {
	return options.New(func(cfg *WindapConfig) error {
		if !(levels > 0) {
			return fmt.Errorf("%w: levels must be positive, got %g", errs.ErrInvalidOption, levels)
		}
		cfg.Levels = levels

		return nil
	})
}

// WithThreshold sets the peak-trough threshold in quantisation steps. It must be positive.
func WithThreshold(threshold float64) WindapOption {
	return options.New(func(cfg *WindapConfig) error {
		if !(threshold > 0) {
			return fmt.Errorf("%w: threshold must be positive, got %g", errs.ErrInvalidOption, threshold)
		}
		cfg.Threshold = threshold

		return nil
	})
}

// FourPointConfig configures RainflowFourPoint.
type FourPointConfig struct {
	// HysteresisBins is the number of grid cells per half signal range used to
	// discard small reversals.
	HysteresisBins int
}

// FourPointOption is a functional option for FourPointConfig.
type FourPointOption = options.Option[*FourPointConfig]

// WithHysteresisBins sets the reversal grid resolution. It must be positive.
func WithHysteresisBins(k int) FourPointOption {
	return options.New(func(cfg *FourPointConfig) error {
		if k <= 0 {
			return fmt.Errorf("%w: hysteresis bins must be positive, got %d", errs.ErrInvalidOption, k)
		}
		cfg.HysteresisBins = k

		return nil
	})
}

// MatrixConfig configures CycleMatrix and the equivalent load functions.
type MatrixConfig struct {
	// Concurrency caps the number of load cases counted in parallel.
	Concurrency int
	// Name identifies the data in error messages and log records.
	Name string
	// Logger receives debug records; nil keeps counting silent.
	Logger *slog.Logger
}

func defaultMatrixConfig() MatrixConfig {
	return MatrixConfig{Concurrency: runtime.GOMAXPROCS(0)}
}

// MatrixOption is a functional option for MatrixConfig.
type MatrixOption = options.Option[*MatrixConfig]

// WithConcurrency caps the number of load cases counted in parallel.
func WithConcurrency(n int) MatrixOption {
	return options.New(func(cfg *MatrixConfig) error {
		if n <= 0 {
			return fmt.Errorf("%w: concurrency must be positive, got %d", errs.ErrInvalidOption, n)
		}
		cfg.Concurrency = n

		return nil
	})
}

// WithName labels errors and log records, typically with "table/column".
func WithName(name string) MatrixOption {
	return options.NoError(func(cfg *MatrixConfig) {
		cfg.Name = name
	})
}

// WithLogger sets the logger for debug records.
func WithLogger(logger *slog.Logger) MatrixOption {
	return options.NoError(func(cfg *MatrixConfig) {
		cfg.Logger = logger
	})
}

func (cfg *MatrixConfig) wrap(err error) error {
	if err == nil || cfg.Name == "" {
		return err
	}

	return fmt.Errorf("%s: %w", cfg.Name, err)
}
