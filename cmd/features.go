package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/aoi"
	"github.com/sells-group/uhi-cli/internal/catalog"
	"github.com/sells-group/uhi-cli/internal/engine"
	"github.com/sells-group/uhi-cli/internal/raster"
	"github.com/sells-group/uhi-cli/internal/stack"
)

var featuresOut string

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Compute the feature layers and export the band stack",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runID := uuid.NewString()
		log := zap.L().With(zap.String("run_id", runID))
		start := time.Now()

		region, err := aoi.FromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		projected, err := region.Project(cfg.TargetCRS)
		if err != nil {
			return err
		}
		target := raster.SpecForBounds(projected.Bounds(), cfg.TargetScale, cfg.TargetCRS)
		log.Info("target grid pinned",
			zap.Int("width", target.Width),
			zap.Int("height", target.Height),
			zap.String("crs", target.CRS))

		ix, err := catalog.OpenIndex(cfg.Catalog.IndexPath)
		if err != nil {
			return err
		}
		defer ix.Close()

		sources := engine.Sources{
			Landsat:   &catalog.IndexedScenes{Index: ix, Kind: catalog.KindLandsat},
			Sentinel:  &catalog.IndexedScenes{Index: ix, Kind: catalog.KindSentinel},
			DEM:       &catalog.IndexedTiles{Index: ix, Kind: catalog.KindDEM},
			Water:     &catalog.FileImage{Path: cfg.Catalog.WaterPath},
			LandCover: &catalog.FileImage{Path: cfg.Catalog.WorldCoverPath},
			Roads:     &catalog.ShapefileRoads{Path: cfg.Roads.ShapefilePath},
		}

		layers, err := engine.ComputeAll(ctx, engine.Params{Cfg: cfg, AOI: projected, Target: target}, sources)
		if err != nil {
			return err
		}

		s, err := stack.Assemble(layers, cfg.BandNames, projected, target)
		if err != nil {
			return err
		}

		out := featuresOut
		if out == "" {
			out = cfg.RasterPath()
		}
		if err := s.Write(out); err != nil {
			return eris.Wrapf(err, "write %s", out)
		}

		log.Info("feature stack exported",
			zap.String("path", out),
			zap.Strings("bands", s.Names),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	},
}

func init() {
	featuresCmd.Flags().StringVar(&featuresOut, "out", "", "output GeoTIFF path (default from config)")
	rootCmd.AddCommand(featuresCmd)
}
