package engine

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/catalog"
	"github.com/sells-group/uhi-cli/internal/raster"
)

// Elevation mosaics the intersecting DEM tiles onto the target grid.
// Tiles are applied in catalog order and the first valid value per pixel
// wins, so overlap seams resolve deterministically.
func Elevation(ctx context.Context, p Params, dem catalog.TileSource) (*raster.Grid, error) {
	tiles, err := dem.Tiles(ctx, p.Target.Bounds())
	if err != nil {
		return nil, eris.Wrap(err, "engine: load dem tiles")
	}

	out := raster.NewGrid(p.Target)
	if len(tiles) == 0 {
		zap.L().Warn("engine: no dem tiles intersect the target grid, elevation layer is empty")
		return out, nil
	}
	for _, tile := range tiles {
		if err := out.FillFrom(tile.Resample(p.Target)); err != nil {
			return nil, eris.Wrap(err, "engine: mosaic dem tile")
		}
	}
	return out, nil
}
