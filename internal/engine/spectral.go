package engine

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/catalog"
	"github.com/sells-group/uhi-cli/internal/raster"
)

// Sentinel-2 QA60 bits 10 and 11 flag opaque and cirrus clouds.
const (
	s2OpaqueCloudBit = 10
	s2CirrusCloudBit = 11
	s2ReflectanceDiv = 10000.0
)

const (
	bandBlue  = "B2"
	bandRed   = "B4"
	bandNIR   = "B8"
	bandSWIR1 = "B11"
	bandQA60  = "QA60"
)

// Leaf-on months used for the spectral composites.
var springMonths = []int{3, 4, 5}

// SpectralIndices builds the NDVI, NDBI and BSI median composites from
// cloud-masked Sentinel-2 surface reflectance over the spring window of
// the configured sentinel year. Indices are computed per scene and
// composited independently.
func SpectralIndices(ctx context.Context, p Params, sentinel catalog.SceneSource) (ndvi, ndbi, bsi *raster.Grid, err error) {
	f := catalog.Filter{
		Bounds:        p.Target.Bounds(),
		Windows:       catalog.Windows([]int{p.Cfg.SentinelYear}, springMonths),
		MaxCloudCover: p.Cfg.Sentinel.CloudThreshold,
	}
	scenes, err := sentinel.Scenes(ctx, f)
	if err != nil {
		return nil, nil, eris.Wrap(err, "engine: query sentinel scenes")
	}

	var ndviLayers, ndbiLayers, bsiLayers []*raster.Grid
	for _, sc := range scenes {
		nv, nb, bs, ok := sceneIndices(sc)
		if !ok {
			zap.L().Warn("engine: sentinel scene missing required bands",
				zap.String("scene", sc.ID))
			continue
		}
		ndviLayers = append(ndviLayers, nv)
		ndbiLayers = append(ndbiLayers, nb)
		bsiLayers = append(bsiLayers, bs)
	}

	ndvi = medianComposite(ndviLayers, p.Target)
	ndbi = medianComposite(ndbiLayers, p.Target)
	bsi = medianComposite(bsiLayers, p.Target)
	if ndvi.AllNoData() {
		zap.L().Warn("engine: no qualifying sentinel observations, spectral layers are empty",
			zap.Int("scenes", len(scenes)),
			zap.Int("year", p.Cfg.SentinelYear))
	}
	return ndvi, ndbi, bsi, nil
}

// sceneIndices computes the three indices for one scene from cloud-masked
// reflectance. A pixel is kept only when all four reflectance bands and
// the QA band are present and the QA cloud bits are clear.
func sceneIndices(sc catalog.Scene) (ndvi, ndbi, bsi *raster.Grid, ok bool) {
	blue := sc.Band(bandBlue)
	red := sc.Band(bandRed)
	nir := sc.Band(bandNIR)
	swir := sc.Band(bandSWIR1)
	qa := sc.Band(bandQA60)
	if blue == nil || red == nil || nir == nil || swir == nil || qa == nil {
		return nil, nil, nil, false
	}
	spec := blue.Spec
	if !red.Spec.Equal(spec) || !nir.Spec.Equal(spec) || !swir.Spec.Equal(spec) || !qa.Spec.Equal(spec) {
		return nil, nil, nil, false
	}

	ndvi = raster.NewGrid(spec)
	ndbi = raster.NewGrid(spec)
	bsi = raster.NewGrid(spec)
	cloudMask := uint32(1<<s2OpaqueCloudBit | 1<<s2CirrusCloudBit)

	for i := range qa.Data {
		q := qa.Data[i]
		if math.IsNaN(q) || uint32(q)&cloudMask != 0 {
			continue
		}
		b2 := blue.Data[i] / s2ReflectanceDiv
		b4 := red.Data[i] / s2ReflectanceDiv
		b8 := nir.Data[i] / s2ReflectanceDiv
		b11 := swir.Data[i] / s2ReflectanceDiv

		ndvi.Data[i] = normalizedDifference(b8, b4)
		ndbi.Data[i] = normalizedDifference(b11, b8)
		bsi.Data[i] = normalizedDifference(b11+b4, b8+b2)
	}
	return ndvi, ndbi, bsi, true
}
