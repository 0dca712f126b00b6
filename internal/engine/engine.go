// Package engine derives the urban-heat feature layers. Each engine is a
// pure function of (AOI, config, target grid, sources); none depends on
// another's output, so they all run concurrently and meet again only at
// the stack assembler.
package engine

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/uhi-cli/internal/aoi"
	"github.com/sells-group/uhi-cli/internal/catalog"
	"github.com/sells-group/uhi-cli/internal/config"
	"github.com/sells-group/uhi-cli/internal/raster"
)

// Layer names produced by the engines. The configured band_names list
// selects and orders a subset of these at assembly time.
const (
	BandLST             = "LST"
	BandHotspot         = "hotspot"
	BandNDVI            = "NDVI"
	BandNDBI            = "NDBI"
	BandBSI             = "BSI"
	BandDistanceToWater = "distance_to_water"
	BandDistanceToRoads = "distance_to_roads"
	BandDEM             = "DEM"
	BandBuiltDensity    = "built_density"
	BandGreenDensity    = "green_density"
)

// LayerSet maps layer names to computed grids.
type LayerSet map[string]*raster.Grid

// Params is the shared input of every engine. AOI must already be
// projected into the target CRS; Target is the pinned output grid every
// layer is materialized on before assembly.
type Params struct {
	Cfg    *config.Config
	AOI    *aoi.AOI
	Target raster.GridSpec
}

// Sources holds the queryable collections the engines draw from.
type Sources struct {
	Landsat   catalog.SceneSource
	Sentinel  catalog.SceneSource
	Water     catalog.ImageSource
	Roads     catalog.RoadSource
	DEM       catalog.TileSource
	LandCover catalog.ImageSource
}

// ComputeAll runs every engine concurrently and returns the full layer
// set. A source failure aborts the run; a source that merely yields zero
// qualifying scenes produces an all-no-data layer instead (the engines
// log it), so one sparse collection cannot sink the other layers.
func ComputeAll(ctx context.Context, p Params, src Sources) (LayerSet, error) {
	var (
		lst, hotspot  *raster.Grid
		ndvi, ndbi    *raster.Grid
		bsi           *raster.Grid
		distWater     *raster.Grid
		distRoads     *raster.Grid
		dem           *raster.Grid
		built, green  *raster.Grid
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(timed("lst", func() error {
		var err error
		lst, hotspot, err = LSTAndHotspot(gCtx, p, src.Landsat)
		return err
	}))
	g.Go(timed("spectral", func() error {
		var err error
		ndvi, ndbi, bsi, err = SpectralIndices(gCtx, p, src.Sentinel)
		return err
	}))
	g.Go(timed("distance_to_water", func() error {
		var err error
		distWater, err = DistanceToWater(gCtx, p, src.Water)
		return err
	}))
	g.Go(timed("distance_to_roads", func() error {
		var err error
		distRoads, err = DistanceToRoads(gCtx, p, src.Roads)
		return err
	}))
	g.Go(timed("elevation", func() error {
		var err error
		dem, err = Elevation(gCtx, p, src.DEM)
		return err
	}))
	g.Go(timed("land_cover", func() error {
		var err error
		built, green, err = LandCoverDensity(gCtx, p, src.LandCover)
		return err
	}))

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "engine: compute layers")
	}

	return LayerSet{
		BandLST:             lst,
		BandHotspot:         hotspot,
		BandNDVI:            ndvi,
		BandNDBI:            ndbi,
		BandBSI:             bsi,
		BandDistanceToWater: distWater,
		BandDistanceToRoads: distRoads,
		BandDEM:             dem,
		BandBuiltDensity:    built,
		BandGreenDensity:    green,
	}, nil
}

func timed(name string, fn func() error) func() error {
	return func() error {
		start := time.Now()
		err := fn()
		if err != nil {
			zap.L().Error("engine: layer failed",
				zap.String("layer", name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return err
		}
		zap.L().Info("engine: layer computed",
			zap.String("layer", name),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	}
}
