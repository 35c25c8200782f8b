package fatigue

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/arloliu/loadkit/errs"
)

// Bins describes one histogram axis, either as a bin count or as explicit edges.
type Bins struct {
	count int
	edges []float64
}

// BinCount returns n equal-width bins spanning the data range.
func BinCount(n int) Bins {
	return Bins{count: n}
}

// BinEdges returns bins with the given ascending edges. The last bin includes its right edge.
func BinEdges(edges ...float64) Bins {
	return Bins{edges: edges}
}

// IsCount reports whether b is a bin count rather than explicit edges.
func (b Bins) IsCount() bool {
	return b.edges == nil
}

// Count returns the number of bins.
func (b Bins) Count() int {
	if b.IsCount() {
		return b.count
	}

	return max(len(b.edges)-1, 0)
}

// resolve returns the edges of b for data spanning [lo, hi].
func (b Bins) resolve(lo, hi float64) ([]float64, error) {
	if !b.IsCount() {
		if len(b.edges) < 2 {
			return nil, fmt.Errorf("%w: at least two bin edges are required", errs.ErrShape)
		}
		if !sort.Float64sAreSorted(b.edges) {
			return nil, fmt.Errorf("%w: bin edges must be ascending", errs.ErrShape)
		}

		return slices.Clone(b.edges), nil
	}

	if b.count <= 0 {
		return nil, fmt.Errorf("%w: bin count must be positive, got %d", errs.ErrShape, b.count)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	return linspace(lo, hi, b.count+1), nil
}

// linspace returns n evenly spaced values from lo to hi with hi stored exactly.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = float64(i)*step + lo
	}
	out[n-1] = hi

	return out
}

// binIndex returns the bin of v for edges, or -1 when v is out of range or NaN.
func binIndex(edges []float64, v float64) int {
	n := len(edges) - 1
	if math.IsNaN(v) || v < edges[0] || v > edges[n] {
		return -1
	}
	if v == edges[n] {
		return n - 1
	}

	// Number of edges <= v, minus one.
	return sort.Search(len(edges), func(i int) bool { return edges[i] > v }) - 1
}

// Histogram2D is a weighted two-dimensional histogram.
type Histogram2D struct {
	// Values holds the bin totals indexed [x bin][y bin].
	Values [][]float64
	// XEdges and YEdges are the bin edges of both axes.
	XEdges, YEdges []float64
}

// NewHistogram2D bins the points (x[i], y[i]) with weight w[i].
//
// A bin count spans the finite range of the data on its axis, widened by 0.5 on both
// sides when the range is empty. Points outside the edges or with a NaN coordinate are
// skipped. A nil w weights every point by one.
//
// Returns:
//   - *Histogram2D: Bin totals and edges
//   - error: errs.ErrShape for mismatched lengths or invalid bins
func NewHistogram2D(x, y, w []float64, xBins, yBins Bins) (*Histogram2D, error) {
	if len(x) != len(y) || (w != nil && len(w) != len(x)) {
		return nil, fmt.Errorf("%w: histogram inputs have lengths %d, %d and %d", errs.ErrShape, len(x), len(y), len(w))
	}

	xLo, xHi := finiteRange(x)
	yLo, yHi := finiteRange(y)
	xEdges, err := xBins.resolve(xLo, xHi)
	if err != nil {
		return nil, err
	}
	yEdges, err := yBins.resolve(yLo, yHi)
	if err != nil {
		return nil, err
	}

	h := &Histogram2D{
		Values: newGrid(len(xEdges)-1, len(yEdges)-1),
		XEdges: xEdges,
		YEdges: yEdges,
	}
	for k := range x {
		i, j := binIndex(xEdges, x[k]), binIndex(yEdges, y[k])
		if i < 0 || j < 0 {
			continue
		}
		weight := 1.0
		if w != nil {
			weight = w[k]
		}
		h.Values[i][j] += weight
	}

	return h, nil
}

// finiteRange returns the range of the non-NaN values of v, or [0, 0] when there are none.
func finiteRange(v []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range v {
		if math.IsNaN(x) {
			continue
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if lo > hi {
		return 0, 0
	}

	return lo, hi
}

func newGrid(rows, cols int) [][]float64 {
	backing := make([]float64, rows*cols)
	grid := make([][]float64, rows)
	for i := range grid {
		grid[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}

	return grid
}
