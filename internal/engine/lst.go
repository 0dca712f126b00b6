package engine

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/uhi-cli/internal/catalog"
	"github.com/sells-group/uhi-cli/internal/raster"
)

// Landsat Collection 2 Level-2 surface temperature calibration.
const (
	lstScale        = 0.00341802
	lstOffset       = 149.0
	kelvinToCelsius = 273.15
	// QA_PIXEL bit 6 marks a clear observation.
	landsatClearBit = 6
)

const (
	bandSurfaceTemp = "ST_B10"
	bandQAPixel     = "QA_PIXEL"
)

// LSTAndHotspot builds the median land-surface-temperature composite in
// degrees Celsius over the hot-season windows of the study years, then
// flags hotspot pixels whose temperature strictly exceeds
// mean + multiplier*stddev of the composite inside the AOI. The hotspot
// layer carries no-data exactly where the composite does, so it inherits
// the composite footprint.
func LSTAndHotspot(ctx context.Context, p Params, landsat catalog.SceneSource) (lst, hotspot *raster.Grid, err error) {
	f := catalog.Filter{
		Bounds:        p.Target.Bounds(),
		Windows:       catalog.Windows(p.Cfg.StudyYears, p.Cfg.HotSeasonMonths),
		MaxCloudCover: p.Cfg.CloudThreshold,
	}
	scenes, err := landsat.Scenes(ctx, f)
	if err != nil {
		return nil, nil, eris.Wrap(err, "engine: query landsat scenes")
	}

	layers := make([]*raster.Grid, 0, len(scenes))
	for _, sc := range scenes {
		g, ok := sceneLST(sc, p.Cfg.LSTValidRange)
		if !ok {
			zap.L().Warn("engine: landsat scene missing required bands",
				zap.String("scene", sc.ID))
			continue
		}
		layers = append(layers, g)
	}

	lst = medianComposite(layers, p.Target)
	if lst.AllNoData() {
		zap.L().Warn("engine: no qualifying landsat observations, lst layer is empty",
			zap.Int("scenes", len(scenes)),
			zap.Ints("years", p.Cfg.StudyYears),
			zap.Ints("months", p.Cfg.HotSeasonMonths))
	}

	hotspot = hotspotMask(lst, p)
	return lst, hotspot, nil
}

// sceneLST converts one scene's raw thermal DNs to Celsius, keeping only
// clear pixels inside the valid temperature range.
func sceneLST(sc catalog.Scene, validRange []float64) (*raster.Grid, bool) {
	dn := sc.Band(bandSurfaceTemp)
	qa := sc.Band(bandQAPixel)
	if dn == nil || qa == nil || !dn.Spec.Equal(qa.Spec) {
		return nil, false
	}

	out := raster.NewGrid(dn.Spec)
	lo, hi := validRange[0], validRange[1]
	for i, v := range dn.Data {
		q := qa.Data[i]
		if math.IsNaN(v) || math.IsNaN(q) {
			continue
		}
		if (uint32(q)>>landsatClearBit)&1 == 0 {
			continue
		}
		c := v*lstScale + lstOffset - kelvinToCelsius
		// Endpoints are implausible too: the range is an open interval.
		if c <= lo || c >= hi {
			continue
		}
		out.Data[i] = c
	}
	return out, true
}

// hotspotMask thresholds the composite against mean + k*stddev of its
// values inside the AOI. Statistics ignore no-data pixels; an empty
// composite yields an all-no-data mask.
func hotspotMask(lst *raster.Grid, p Params) *raster.Grid {
	out := raster.NewGrid(lst.Spec)

	clipped := lst.Clone()
	clipped.MaskOutside(p.AOI.Contains)
	vals := clipped.ValidValues()
	if len(vals) == 0 {
		return out
	}

	mean := stat.Mean(vals, nil)
	std := stat.StdDev(vals, nil)
	threshold := mean + p.Cfg.HotspotStdMultiplier*std
	zap.L().Debug("engine: hotspot threshold",
		zap.Float64("mean", mean),
		zap.Float64("stddev", std),
		zap.Float64("threshold", threshold))

	for i, v := range lst.Data {
		if math.IsNaN(v) {
			continue
		}
		if v > threshold {
			out.Data[i] = 1
		} else {
			out.Data[i] = 0
		}
	}
	return out
}
