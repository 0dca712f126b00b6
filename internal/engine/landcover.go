package engine

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/catalog"
	"github.com/sells-group/uhi-cli/internal/raster"
)

// ESA WorldCover class codes.
const (
	classTreeCover = 10
	classShrubland = 20
	classBuiltUp   = 50
)

// LandCoverDensity derives built-up and green fraction layers from the
// land-cover classification: a binary class mask on the target grid,
// smoothed by a circular mean kernel of the configured metric radius.
// Green cover is tree cover plus shrubland.
func LandCoverDensity(ctx context.Context, p Params, lc catalog.ImageSource) (built, green *raster.Grid, err error) {
	img, err := lc.Image(ctx, p.Target.Bounds())
	if err != nil {
		return nil, nil, eris.Wrap(err, "engine: load land cover")
	}
	aligned := img.Resample(p.Target)
	if aligned.AllNoData() {
		zap.L().Warn("engine: land cover has no data over the target grid, density layers are empty")
	}

	radiusPx := p.Cfg.LandCover.KernelRadiusMeters / p.Cfg.TargetScale
	builtMask := classMask(aligned, classBuiltUp)
	greenMask := classMask(aligned, classTreeCover, classShrubland)

	built = circularMean(builtMask, radiusPx)
	green = circularMean(greenMask, radiusPx)
	return built, green, nil
}

// classMask maps classified pixels to 1 when the class is one of the
// wanted codes and 0 otherwise, keeping no-data as no-data.
func classMask(g *raster.Grid, classes ...int) *raster.Grid {
	out := raster.NewGrid(g.Spec)
	for i, v := range g.Data {
		if math.IsNaN(v) {
			continue
		}
		out.Data[i] = 0
		c := int(v)
		for _, want := range classes {
			if c == want {
				out.Data[i] = 1
				break
			}
		}
	}
	return out
}

// circularMean smooths a grid with a flat circular kernel of the given
// pixel radius. The mean is taken over the valid cells under the kernel
// and the output keeps the footprint of the input.
func circularMean(g *raster.Grid, radiusPx float64) *raster.Grid {
	out := raster.NewGrid(g.Spec)
	r := int(math.Floor(radiusPx))
	if r < 0 {
		r = 0
	}
	r2 := radiusPx * radiusPx

	offsets := make([][2]int, 0, (2*r+1)*(2*r+1))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if float64(dx*dx+dy*dy) <= r2 {
				offsets = append(offsets, [2]int{dy, dx})
			}
		}
	}

	w, h := g.Spec.Width, g.Spec.Height
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			if math.IsNaN(g.Data[row*w+col]) {
				continue
			}
			sum, n := 0.0, 0
			for _, off := range offsets {
				rr, cc := row+off[0], col+off[1]
				if rr < 0 || rr >= h || cc < 0 || cc >= w {
					continue
				}
				v := g.Data[rr*w+cc]
				if math.IsNaN(v) {
					continue
				}
				sum += v
				n++
			}
			if n > 0 {
				out.Data[row*w+col] = sum / float64(n)
			}
		}
	}
	return out
}
