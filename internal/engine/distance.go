package engine

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/catalog"
	"github.com/sells-group/uhi-cli/internal/raster"
)

// DistanceToWater builds the distance-to-nearest-water layer. The
// occurrence image is resampled onto the target grid before the
// transform runs, so distances are exact in target pixels; pixels where
// occurrence meets the configured threshold are water, missing
// occurrence counts as dry land.
func DistanceToWater(ctx context.Context, p Params, water catalog.ImageSource) (*raster.Grid, error) {
	occ, err := water.Image(ctx, p.Target.Bounds())
	if err != nil {
		return nil, eris.Wrap(err, "engine: load water occurrence")
	}
	aligned := occ.Resample(p.Target)

	present := make([]bool, len(aligned.Data))
	n := 0
	thr := p.Cfg.Water.OccurrenceThreshold
	for i, v := range aligned.Data {
		if !math.IsNaN(v) && v >= thr {
			present[i] = true
			n++
		}
	}
	if n == 0 {
		zap.L().Warn("engine: no water pixels meet the occurrence threshold, distances saturate at the neighborhood cap",
			zap.Float64("threshold", thr))
	}
	return distanceFrom(present, p), nil
}

// DistanceToRoads builds the distance-to-nearest-road layer by burning
// the road centerlines onto the target grid and transforming that mask.
func DistanceToRoads(ctx context.Context, p Params, roads catalog.RoadSource) (*raster.Grid, error) {
	lines, err := roads.Roads(ctx, p.Target.Bounds())
	if err != nil {
		return nil, eris.Wrap(err, "engine: load road centerlines")
	}
	present := rasterizeLines(lines, p.Target)
	if len(lines) == 0 {
		zap.L().Warn("engine: no road centerlines intersect the target grid, distances saturate at the neighborhood cap")
	}
	return distanceFrom(present, p), nil
}

// distanceFrom converts a presence mask on the target grid into metric
// distances: exact squared euclidean transform in pixel space, capped at
// the configured neighborhood, then scaled by the pixel size.
func distanceFrom(present []bool, p Params) *raster.Grid {
	d2 := squaredDistanceTransform(present, p.Target.Width, p.Target.Height, p.Cfg.Distance.NeighborhoodPixels)
	out := raster.NewGrid(p.Target)
	for i, v := range d2 {
		out.Data[i] = math.Sqrt(v) * p.Cfg.TargetScale
	}
	return out
}

// rasterizeLines burns polylines onto the grid by stepping each segment
// at sub-pixel resolution in pixel space. Vertices outside the grid are
// fine; only the cells a segment actually crosses are set.
func rasterizeLines(lines []catalog.Polyline, spec raster.GridSpec) []bool {
	present := make([]bool, spec.Width*spec.Height)
	for _, line := range lines {
		for i := 1; i < len(line); i++ {
			burnSegment(present, spec,
				line[i-1][0], line[i-1][1],
				line[i][0], line[i][1])
		}
	}
	return present
}

func burnSegment(present []bool, spec raster.GridSpec, x0, y0, x1, y1 float64) {
	// Signed pixel sizes: north-up grids carry a negative Transform[5],
	// so dividing by the absolute resolution would flip rows negative.
	px, py := spec.Transform[1], spec.Transform[5]
	c0, r0 := (x0-spec.Transform[0])/px, (y0-spec.Transform[3])/py
	c1, r1 := (x1-spec.Transform[0])/px, (y1-spec.Transform[3])/py

	steps := int(math.Max(math.Abs(c1-c0), math.Abs(r1-r0))) + 1
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		col := int(math.Floor(c0 + t*(c1-c0)))
		row := int(math.Floor(r0 + t*(r1-r0)))
		if col < 0 || col >= spec.Width || row < 0 || row >= spec.Height {
			continue
		}
		present[row*spec.Width+col] = true
	}
}

// squaredDistanceTransform is the exact two-pass squared euclidean
// distance transform of Felzenszwalb and Huttenlocher, run first down
// the columns and then along the rows, with results capped at the
// squared neighborhood radius. A grid with no presence at all comes back
// saturated at the cap everywhere.
func squaredDistanceTransform(present []bool, width, height, neighborhood int) []float64 {
	// Finite background sentinel: the envelope construction computes
	// differences of f values, which must not produce Inf-Inf.
	const edtInf = 1e20

	capSq := float64(neighborhood) * float64(neighborhood)
	f := make([]float64, width*height)
	for i, p := range present {
		if p {
			f[i] = 0
		} else {
			f[i] = edtInf
		}
	}

	n := width
	if height > n {
		n = height
	}
	col := make([]float64, n)
	d := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			col[y] = f[y*width+x]
		}
		edt1d(col[:height], d, v, z)
		for y := 0; y < height; y++ {
			f[y*width+x] = d[y]
		}
	}
	for y := 0; y < height; y++ {
		row := f[y*width : (y+1)*width]
		edt1d(row, d, v, z)
		copy(row, d[:width])
	}

	for i, dv := range f {
		if dv > capSq {
			f[i] = capSq
		}
	}
	return f
}

// edt1d computes the 1-D squared distance transform of the sampled
// function f under the lower envelope of parabolas construction.
func edt1d(f, d []float64, v []int, z []float64) {
	n := len(f)
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		var s float64
		for {
			p := v[k]
			s = ((f[q] + float64(q*q)) - (f[p] + float64(p*p))) / float64(2*(q-p))
			if s > z[k] {
				break
			}
			k--
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}
	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}
