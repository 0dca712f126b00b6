package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/uhi-cli/internal/catalog"
	"github.com/sells-group/uhi-cli/internal/raster"
)

func reflectanceScene(t *testing.T, id string, spec raster.GridSpec, bands map[string][]float64) catalog.Scene {
	t.Helper()
	sc := catalog.Scene{
		ID:         id,
		AcquiredAt: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC),
		Bands:      map[string]*raster.Grid{},
	}
	for name, vals := range bands {
		sc.Bands[name] = gridOf(t, spec, vals...)
	}
	return sc
}

func TestSceneIndices_Formulas(t *testing.T) {
	spec := testSpec(1, 1)
	sc := reflectanceScene(t, "S1", spec, map[string][]float64{
		bandBlue:  {1000}, // 0.1
		bandRed:   {2000}, // 0.2
		bandNIR:   {6000}, // 0.6
		bandSWIR1: {4000}, // 0.4
		bandQA60:  {0},
	})

	ndvi, ndbi, bsi, ok := sceneIndices(sc)
	require.True(t, ok)
	assert.InDelta(t, 0.5, ndvi.At(0, 0), 1e-9)                 // (0.6-0.2)/(0.6+0.2)
	assert.InDelta(t, -0.2, ndbi.At(0, 0), 1e-9)                // (0.4-0.6)/(0.4+0.6)
	assert.InDelta(t, -0.1/1.3, bsi.At(0, 0), 1e-9)             // ((0.4+0.2)-(0.6+0.1))/sum
}

func TestSceneIndices_CloudBitsMask(t *testing.T) {
	spec := testSpec(3, 1)
	sc := reflectanceScene(t, "S2", spec, map[string][]float64{
		bandBlue:  {1000, 1000, 1000},
		bandRed:   {2000, 2000, 2000},
		bandNIR:   {6000, 6000, 6000},
		bandSWIR1: {4000, 4000, 4000},
		bandQA60:  {0, 1 << s2OpaqueCloudBit, 1 << s2CirrusCloudBit},
	})

	ndvi, _, _, ok := sceneIndices(sc)
	require.True(t, ok)
	assert.False(t, math.IsNaN(ndvi.At(0, 0)))
	assert.True(t, math.IsNaN(ndvi.At(0, 1)))
	assert.True(t, math.IsNaN(ndvi.At(0, 2)))
}

func TestSceneIndices_MissingBand(t *testing.T) {
	spec := testSpec(1, 1)
	sc := reflectanceScene(t, "S3", spec, map[string][]float64{
		bandBlue: {1000},
		bandRed:  {2000},
		bandNIR:  {6000},
		// no SWIR, no QA
	})
	_, _, _, ok := sceneIndices(sc)
	assert.False(t, ok)
}

func TestSpectralIndices_CompositesPerIndex(t *testing.T) {
	p := testParams(t, 1, 1)
	bands := func(nir float64) map[string][]float64 {
		return map[string][]float64{
			bandBlue:  {1000},
			bandRed:   {2000},
			bandNIR:   {nir},
			bandSWIR1: {4000},
			bandQA60:  {0},
		}
	}
	src := &fakeScenes{scenes: []catalog.Scene{
		reflectanceScene(t, "a", p.Target, bands(2000)), // NDVI 0
		reflectanceScene(t, "b", p.Target, bands(6000)), // NDVI 0.5
		reflectanceScene(t, "c", p.Target, bands(18000)), // NDVI 0.8
	}}

	ndvi, _, _, err := SpectralIndices(context.Background(), p, src)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ndvi.At(0, 0), 1e-9)

	assert.Equal(t, catalog.Windows([]int{p.Cfg.SentinelYear}, springMonths), src.got.Windows)
	assert.Equal(t, p.Cfg.Sentinel.CloudThreshold, src.got.MaxCloudCover)
}

func TestSpectralIndices_NoScenes(t *testing.T) {
	p := testParams(t, 2, 2)
	ndvi, ndbi, bsi, err := SpectralIndices(context.Background(), p, &fakeScenes{})
	require.NoError(t, err)
	assert.True(t, ndvi.AllNoData())
	assert.True(t, ndbi.AllNoData())
	assert.True(t, bsi.AllNoData())
}

func TestNormalizedDifference_ZeroDenominator(t *testing.T) {
	assert.True(t, math.IsNaN(normalizedDifference(0.5, -0.5)))
	assert.True(t, math.IsNaN(normalizedDifference(math.NaN(), 1)))
	assert.InDelta(t, 1.0/3.0, normalizedDifference(0.2, 0.1), 1e-9)
}
