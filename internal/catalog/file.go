package catalog

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/uhi-cli/internal/raster"
)

// FileImage serves a single raster file (surface-water occurrence,
// land-cover classification) as an ImageSource. The requested bounds are
// checked against the file footprint but the whole band is returned; the
// study areas here are small relative to these sources.
type FileImage struct {
	Path string
	// BandIndex selects the band to read, zero-based. Defaults to the first.
	BandIndex int
}

// Image implements ImageSource.
func (f *FileImage) Image(ctx context.Context, bounds [4]float64) (*raster.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cube, err := raster.ReadGeoTIFF(f.Path)
	if err != nil {
		return nil, err
	}
	if f.BandIndex < 0 || f.BandIndex >= len(cube.Bands) {
		return nil, eris.Errorf("catalog: %s has no band %d", f.Path, f.BandIndex+1)
	}
	if !boundsIntersect(cube.Spec.Bounds(), bounds) {
		return nil, eris.Errorf("catalog: %s does not cover the requested bounds", f.Path)
	}

	return raster.NewGridFrom(cube.Spec, cube.Bands[f.BandIndex])
}
