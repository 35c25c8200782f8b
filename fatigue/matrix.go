package fatigue

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/internal/options"
	"github.com/arloliu/loadkit/internal/pool"
)

// LoadCase is a signal with the weight of its occurrence, for instance the number
// of hours per lifetime of a simulated wind bin.
type LoadCase struct {
	Weight float64
	Signal []float64
}

// WeightedCycles holds the counted half-cycles of one load case.
type WeightedCycles struct {
	Weight float64
	Cycles []Cycle
}

// Matrix is a cycle (Markov) matrix over amplitude and mean bins.
type Matrix struct {
	// Cycles holds weighted full-cycle counts indexed [amplitude bin][mean bin].
	Cycles [][]float64
	// AmplBinMean is the mean amplitude per amplitude bin, NaN for empty bins.
	AmplBinMean []float64
	// AmplEdges are the amplitude bin edges.
	AmplEdges []float64
	// MeanBinMean is the mean cycle mean per amplitude bin, NaN for empty bins.
	MeanBinMean []float64
	// MeanEdges are the mean bin edges.
	MeanEdges []float64
}

// Total returns the total number of full cycles in m.
func (m *Matrix) Total() float64 {
	total := 0.0
	for _, row := range m.Cycles {
		for _, v := range row {
			total += v
		}
	}

	return total
}

// CycleMatrix counts every load case and bins the weighted half-cycles.
//
// An amplitude bin count spans [0, largest amplitude of a positively weighted load
// case]; a mean bin count spans the range of all means. The per-cell bin averages are
// averaged per amplitude row, skipping empty cells. Counts are halved to full cycles.
//
// Load cases are counted concurrently, at most MatrixConfig.Concurrency at a time.
//
// Parameters:
//   - loads: Weighted signals
//   - amplBins: Amplitude axis bins
//   - meanBins: Mean axis bins
//   - counter: Rainflow counter applied to every signal
//   - opts: WithConcurrency, WithName, WithLogger
//
// Returns:
//   - *Matrix: The binned cycles
//   - error: The first counting error, errs.ErrShape for invalid bins or no load
//     cases, errs.ErrNoVariation when no positively weighted cycle has a range
func CycleMatrix(loads []LoadCase, amplBins, meanBins Bins, counter Counter, opts ...MatrixOption) (*Matrix, error) {
	cfg := defaultMatrixConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	groups, err := countLoads(&cfg, loads, counter)
	if err != nil {
		return nil, cfg.wrap(err)
	}

	m, err := MatrixFromCycles(groups, amplBins, meanBins)

	return m, cfg.wrap(err)
}

// CycleMatrixSignal is CycleMatrix for a single signal of weight one.
func CycleMatrixSignal(signal []float64, amplBins, meanBins Bins, counter Counter, opts ...MatrixOption) (*Matrix, error) {
	return CycleMatrix([]LoadCase{{Weight: 1, Signal: signal}}, amplBins, meanBins, counter, opts...)
}

// CountLoads counts the half-cycles of every load case concurrently.
// The result keeps the order of loads.
func CountLoads(loads []LoadCase, counter Counter, opts ...MatrixOption) ([]WeightedCycles, error) {
	cfg := defaultMatrixConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	groups, err := countLoads(&cfg, loads, counter)

	return groups, cfg.wrap(err)
}

func countLoads(cfg *MatrixConfig, loads []LoadCase, counter Counter) ([]WeightedCycles, error) {
	if len(loads) == 0 {
		return nil, fmt.Errorf("%w: no load cases", errs.ErrShape)
	}
	if counter == nil {
		return nil, fmt.Errorf("%w: nil counter", errs.ErrInvalidOption)
	}

	groups := make([]WeightedCycles, len(loads))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(cfg.Concurrency)
	for i, load := range loads {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			cycles, err := counter(load.Signal)
			if err != nil {
				return fmt.Errorf("load case %d: %w", i, err)
			}
			groups[i] = WeightedCycles{Weight: load.Weight, Cycles: cycles}

			if cfg.Logger != nil {
				cfg.Logger.LogAttrs(ctx, slog.LevelDebug, "counted load case",
					slog.String("name", cfg.Name),
					slog.Int("index", i),
					slog.Float64("weight", load.Weight),
					slog.Int("samples", len(load.Signal)),
					slog.Int("half_cycles", len(cycles)),
				)
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return groups, nil
}

// MatrixFromCycles bins already counted half-cycles. See CycleMatrix for the binning rules.
func MatrixFromCycles(groups []WeightedCycles, amplBins, meanBins Bins) (*Matrix, error) {
	n := 0
	for _, g := range groups {
		n += len(g.Cycles)
	}

	ampls, cleanupA := pool.GetFloat64Slice(n)
	defer cleanupA()
	means, cleanupM := pool.GetFloat64Slice(n)
	defer cleanupM()
	weights, cleanupW := pool.GetFloat64Slice(n)
	defer cleanupW()

	k := 0
	top := math.Inf(-1)
	for _, g := range groups {
		for _, c := range g.Cycles {
			ampls[k], means[k], weights[k] = c.Amplitude, c.Mean, g.Weight
			if g.Weight > 0 {
				top = math.Max(top, c.Amplitude)
			}
			k++
		}
	}

	if amplBins.IsCount() {
		if !(top > 0) {
			return nil, fmt.Errorf("%w: no positively weighted cycle with a range", errs.ErrNoVariation)
		}
		if amplBins.count <= 0 {
			return nil, fmt.Errorf("%w: bin count must be positive, got %d", errs.ErrShape, amplBins.count)
		}
		amplBins = BinEdges(linspace(0, top, amplBins.count+1)...)
	}

	counts, err := NewHistogram2D(ampls, means, weights, amplBins, meanBins)
	if err != nil {
		return nil, err
	}

	// Reuse the fixed edges so the sums line up with the counts.
	amplBins, meanBins = BinEdges(counts.XEdges...), BinEdges(counts.YEdges...)
	wa, cleanupWA := pool.GetFloat64Slice(n)
	defer cleanupWA()
	wm, cleanupWM := pool.GetFloat64Slice(n)
	defer cleanupWM()
	for i := range n {
		wa[i] = weights[i] * ampls[i]
		wm[i] = weights[i] * means[i]
	}
	amplSum, err := NewHistogram2D(ampls, means, wa, amplBins, meanBins)
	if err != nil {
		return nil, err
	}
	meanSum, err := NewHistogram2D(ampls, means, wm, amplBins, meanBins)
	if err != nil {
		return nil, err
	}

	m := &Matrix{
		Cycles:      counts.Values,
		AmplBinMean: rowMeans(amplSum.Values, counts.Values),
		AmplEdges:   counts.XEdges,
		MeanBinMean: rowMeans(meanSum.Values, counts.Values),
		MeanEdges:   counts.YEdges,
	}
	for _, row := range m.Cycles {
		for j := range row {
			row[j] /= 2
		}
	}

	return m, nil
}

// rowMeans averages sum/count over the non-empty cells of every row.
func rowMeans(sums, counts [][]float64) []float64 {
	out := make([]float64, len(sums))
	for i, row := range sums {
		total, cells := 0.0, 0
		for j, s := range row {
			if counts[i][j] == 0 {
				continue
			}
			total += s / counts[i][j]
			cells++
		}
		if cells == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = total / float64(cells)
	}

	return out
}
