package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/uhi-cli/internal/raster"
)

// medianComposite reduces a set of per-scene grids to a single grid on
// the target spec, taking the per-pixel median of the finite values.
// Pixels with no finite observation in any layer stay no-data. An empty
// input yields an all-no-data grid.
func medianComposite(layers []*raster.Grid, target raster.GridSpec) *raster.Grid {
	out := raster.NewGrid(target)
	if len(layers) == 0 {
		return out
	}

	aligned := make([]*raster.Grid, len(layers))
	for i, l := range layers {
		aligned[i] = l.Resample(target)
	}

	vals := make([]float64, 0, len(layers))
	for i := range out.Data {
		vals = vals[:0]
		for _, l := range aligned {
			if v := l.Data[i]; !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		sort.Float64s(vals)
		out.Data[i] = stat.Quantile(0.5, stat.LinInterp, vals, nil)
	}
	return out
}

// normalizedDifference computes (a-b)/(a+b), no-data when either input
// is no-data or the denominator is zero.
func normalizedDifference(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	sum := a + b
	if sum == 0 {
		return math.NaN()
	}
	return (a - b) / sum
}
