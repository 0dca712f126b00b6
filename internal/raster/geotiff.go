package raster

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var registerOnce sync.Once

func registerDrivers() {
	registerOnce.Do(godal.RegisterAll)
}

// Cube is the raw content of a multi-band raster file: band-major data plus
// the file's own spatial metadata and per-band descriptions ("" when the
// file carries none for that band).
type Cube struct {
	Spec         GridSpec
	Descriptions []string
	Bands        [][]float64
}

// WriteGeoTIFF persists bands as a Float32 GeoTIFF with NaN no-data, the
// spec's geotransform and CRS, and one description per band. Every band must
// be on spec.
func WriteGeoTIFF(path string, spec GridSpec, names []string, bands []*Grid) error {
	registerDrivers()

	if len(names) != len(bands) {
		return eris.Errorf("raster: %d names for %d bands", len(names), len(bands))
	}
	for i, b := range bands {
		if !b.Spec.Equal(spec) {
			return eris.Errorf("raster: band %q is not on the output grid", names[i])
		}
	}

	ds, err := godal.Create(godal.GTiff, path, len(bands), godal.Float32, spec.Width, spec.Height)
	if err != nil {
		return eris.Wrap(err, "raster: create geotiff")
	}

	if err := ds.SetGeoTransform(spec.Transform); err != nil {
		_ = ds.Close()
		return eris.Wrap(err, "raster: set geotransform")
	}
	if code, ok := epsgCode(spec.CRS); ok {
		sr, srErr := godal.NewSpatialRefFromEPSG(code)
		if srErr != nil {
			_ = ds.Close()
			return eris.Wrapf(srErr, "raster: spatial ref for %s", spec.CRS)
		}
		if err := ds.SetSpatialRef(sr); err != nil {
			sr.Close()
			_ = ds.Close()
			return eris.Wrap(err, "raster: set spatial ref")
		}
		sr.Close()
	} else {
		zap.L().Warn("raster: CRS is not an EPSG code, writing without spatial ref",
			zap.String("crs", spec.CRS))
	}

	buf := make([]float32, spec.Width*spec.Height)
	for i, bnd := range ds.Bands() {
		for j, v := range bands[i].Data {
			buf[j] = float32(v)
		}
		if err := bnd.SetNoData(math.NaN()); err != nil {
			_ = ds.Close()
			return eris.Wrapf(err, "raster: set nodata on band %q", names[i])
		}
		if err := bnd.SetDescription(names[i]); err != nil {
			_ = ds.Close()
			return eris.Wrapf(err, "raster: set description on band %q", names[i])
		}
		if err := bnd.Write(0, 0, buf, spec.Width, spec.Height); err != nil {
			_ = ds.Close()
			return eris.Wrapf(err, "raster: write band %q", names[i])
		}
	}

	if err := ds.Close(); err != nil {
		return eris.Wrap(err, "raster: close geotiff")
	}
	return nil
}

// ReadGeoTIFF loads every band of a raster file into float64 buffers,
// converting the file's no-data value to NaN.
func ReadGeoTIFF(path string) (*Cube, error) {
	registerDrivers()

	ds, err := godal.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = ds.Close() }()

	st := ds.Structure()
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, eris.Wrap(err, "raster: read geotransform")
	}

	cube := &Cube{
		Spec: GridSpec{
			Width:     st.SizeX,
			Height:    st.SizeY,
			Transform: gt,
			CRS:       ds.Projection(),
		},
		Descriptions: make([]string, st.NBands),
		Bands:        make([][]float64, st.NBands),
	}

	for i, bnd := range ds.Bands() {
		buf := make([]float64, st.SizeX*st.SizeY)
		if err := bnd.Read(0, 0, buf, st.SizeX, st.SizeY); err != nil {
			return nil, eris.Wrapf(err, "raster: read band %d", i+1)
		}
		if nd, ok := bnd.NoData(); ok && !math.IsNaN(nd) {
			for j, v := range buf {
				if v == nd {
					buf[j] = math.NaN()
				}
			}
		}
		cube.Bands[i] = buf
		cube.Descriptions[i] = bnd.Description()
	}

	return cube, nil
}

// Header is the cheap-to-read part of a raster file: its grid geometry,
// band count and dataset-level metadata, without any pixel data.
type Header struct {
	Spec     GridSpec
	NBands   int
	Metadata map[string]string
}

// ReadHeader opens a raster file and returns its header only.
func ReadHeader(path string) (*Header, error) {
	registerDrivers()

	ds, err := godal.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = ds.Close() }()

	st := ds.Structure()
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, eris.Wrap(err, "raster: read geotransform")
	}

	return &Header{
		Spec: GridSpec{
			Width:     st.SizeX,
			Height:    st.SizeY,
			Transform: gt,
			CRS:       ds.Projection(),
		},
		NBands:   st.NBands,
		Metadata: ds.Metadatas(),
	}, nil
}

// epsgCode extracts the numeric code from strings like "EPSG:32630".
func epsgCode(crs string) (int, bool) {
	const prefix = "EPSG:"
	if !strings.HasPrefix(strings.ToUpper(crs), prefix) {
		return 0, false
	}
	code, err := strconv.Atoi(strings.TrimSpace(crs[len(prefix):]))
	if err != nil {
		return 0, false
	}
	return code, true
}
