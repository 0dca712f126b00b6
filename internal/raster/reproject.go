package raster

import (
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
)

// ProjectXY reprojects coordinate slices in place from srcCRS to dstCRS.
// CRS strings are either "EPSG:<code>" or WKT.
func ProjectXY(srcCRS, dstCRS string, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return eris.Errorf("raster: %d x coords for %d y coords", len(xs), len(ys))
	}
	if len(xs) == 0 || SameCRS(srcCRS, dstCRS) {
		return nil
	}
	registerDrivers()

	src, err := newSpatialRef(srcCRS)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := newSpatialRef(dstCRS)
	if err != nil {
		return err
	}
	defer dst.Close()

	trn, err := godal.NewTransform(src, dst)
	if err != nil {
		return eris.Wrapf(err, "raster: transform %s -> %s", srcCRS, dstCRS)
	}
	defer trn.Close()

	if err := trn.TransformEx(xs, ys, nil, nil); err != nil {
		return eris.Wrapf(err, "raster: project %d points", len(xs))
	}
	return nil
}

// SameCRS reports whether two CRS strings are trivially identical. It does
// not resolve equivalent spellings of the same system; callers treating
// distinct spellings as distinct systems only pay a needless reprojection.
func SameCRS(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func newSpatialRef(crs string) (*godal.SpatialRef, error) {
	if code, ok := epsgCode(crs); ok {
		sr, err := godal.NewSpatialRefFromEPSG(code)
		return sr, eris.Wrapf(err, "raster: spatial ref %s", crs)
	}
	sr, err := godal.NewSpatialRefFromWKT(crs)
	return sr, eris.Wrap(err, "raster: spatial ref from WKT")
}
