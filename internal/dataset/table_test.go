package dataset

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/uhi-cli/internal/raster"
)

func testRaster(t *testing.T, names []string, bands ...[]float64) *Raster {
	t.Helper()
	spec := raster.GridSpec{
		Width:     2,
		Height:    2,
		Transform: [6]float64{0, 10, 0, 20, 0, -10},
		CRS:       "EPSG:32633",
	}
	grids := make([]*raster.Grid, len(bands))
	for i, data := range bands {
		g, err := raster.NewGridFrom(spec, data)
		require.NoError(t, err)
		grids[i] = g
	}
	return &Raster{Spec: spec, Names: names, Bands: grids}
}

func TestTabulate_DropsAnyBandInvalid(t *testing.T) {
	nan := math.NaN()
	// Pixel (1,0) is no-data in the second band only; it must not appear.
	r := testRaster(t, []string{"LST", "NDVI"},
		[]float64{1, 2, 3, 4},
		[]float64{10, 20, nan, 40},
	)
	info := &LoadInfo{}

	tbl := Tabulate(r, info)
	require.Len(t, tbl.Rows, 3)

	for _, row := range tbl.Rows {
		assert.False(t, row.Row == 1 && row.Col == 0)
	}
	assert.Equal(t, 3, info.NValid)
	assert.Equal(t, 4, info.NTotal)
	assert.Equal(t, 75.0, info.CoveragePct)
}

func TestTabulate_PixelCenterCoordinates(t *testing.T) {
	r := testRaster(t, []string{"LST"}, []float64{1, 2, 3, 4})
	tbl := Tabulate(r, nil)
	require.Len(t, tbl.Rows, 4)

	first := tbl.Rows[0]
	assert.Equal(t, 0, first.Row)
	assert.Equal(t, 0, first.Col)
	assert.Equal(t, 5.0, first.Lon)
	assert.Equal(t, 15.0, first.Lat)

	last := tbl.Rows[3]
	assert.Equal(t, 1, last.Row)
	assert.Equal(t, 1, last.Col)
	assert.Equal(t, 15.0, last.Lon)
	assert.Equal(t, 5.0, last.Lat)
}

func TestTabulate_InfinityIsInvalid(t *testing.T) {
	r := testRaster(t, []string{"LST"}, []float64{1, math.Inf(1), 3, math.Inf(-1)})
	tbl := Tabulate(r, nil)
	assert.Len(t, tbl.Rows, 2)
}

func TestTabulate_AllInvalid(t *testing.T) {
	nan := math.NaN()
	r := testRaster(t, []string{"LST"}, []float64{nan, nan, nan, nan})
	info := &LoadInfo{}
	tbl := Tabulate(r, info)
	assert.Empty(t, tbl.Rows)
	assert.Equal(t, 0.0, info.CoveragePct)
}

func TestWriteCSV(t *testing.T) {
	nan := math.NaN()
	r := testRaster(t, []string{"LST", "NDVI"},
		[]float64{21.5, nan, 3, 4},
		[]float64{0.5, 20, 0.25, 0.75},
	)
	tbl := Tabulate(r, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))

	want := "row,col,lon,lat,LST,NDVI\n" +
		"0,0,5,15,21.5,0.5\n" +
		"1,0,5,5,3,0.25\n" +
		"1,1,15,5,4,0.75\n"
	assert.Equal(t, want, buf.String())
}

func TestSummarize(t *testing.T) {
	nan := math.NaN()
	r := testRaster(t, []string{"LST", "empty"},
		[]float64{1, 2, 3, nan},
		[]float64{nan, nan, nan, nan},
	)

	got := Summarize(r)
	require.Len(t, got, 2)

	assert.Equal(t, "LST", got[0].Name)
	assert.Equal(t, 3, got[0].Count)
	assert.InDelta(t, 2.0, got[0].Mean, 1e-9)
	assert.InDelta(t, 1.0, got[0].StdDev, 1e-9)
	assert.Equal(t, 1.0, got[0].Min)
	assert.Equal(t, 3.0, got[0].Max)

	assert.Equal(t, 0, got[1].Count)
}

func TestInfoPath(t *testing.T) {
	assert.Equal(t, "/data/features.info.yaml", InfoPath("/data/features.tif"))
	assert.Equal(t, "features.info.yaml", InfoPath("features.tiff"))
}

func TestWriteInfo_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.info.yaml")
	info := &LoadInfo{
		Shape:          [3]int{2, 2, 2},
		CRS:            "EPSG:32633",
		BandNames:      []string{"LST", "NDVI"},
		Reconciliation: BandsMismatch,
		NValid:         3,
		NTotal:         4,
		CoveragePct:    75,
	}
	require.NoError(t, WriteInfo(path, info))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "mismatch", decoded["band_reconciliation"])
	assert.Equal(t, 75, decoded["coverage_pct"])
	assert.Equal(t, "EPSG:32633", decoded["crs"])
}
