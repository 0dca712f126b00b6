// Package aoi resolves and represents the study-area boundary. The AOI is
// computed once per run: a remote GeoJSON asset is preferred, a local
// shapefile is the fallback, and every layer engine shares the result.
package aoi

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/sells-group/uhi-cli/internal/raster"
)

// GeographicCRS is the CRS all resolved boundaries are delivered in.
const GeographicCRS = "EPSG:4326"

// AOI is the immutable study-area boundary: a dissolved multipolygon in a
// known CRS.
type AOI struct {
	mp  *geom.MultiPolygon
	crs string
}

// New wraps a multipolygon. Empty geometries are rejected: nothing
// downstream can work without a boundary.
func New(mp *geom.MultiPolygon, crs string) (*AOI, error) {
	if mp == nil || mp.NumPolygons() == 0 {
		return nil, eris.New("aoi: empty boundary geometry")
	}
	return &AOI{mp: mp, crs: crs}, nil
}

// Geometry returns the boundary multipolygon.
func (a *AOI) Geometry() *geom.MultiPolygon {
	return a.mp
}

// CRS returns the CRS the boundary coordinates are expressed in.
func (a *AOI) CRS() string {
	return a.crs
}

// Bounds returns [minX, minY, maxX, maxY] of the boundary.
func (a *AOI) Bounds() [4]float64 {
	b := a.mp.Bounds()
	return [4]float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)}
}

// Contains reports whether a point is inside the boundary: within any
// polygon's exterior ring and outside all of that polygon's holes.
func (a *AOI) Contains(x, y float64) bool {
	pt := geom.Coord{x, y}
	for i := 0; i < a.mp.NumPolygons(); i++ {
		poly := a.mp.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(geom.XY, pt, poly.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for r := 1; r < poly.NumLinearRings(); r++ {
			if xy.IsPointInRing(geom.XY, pt, poly.LinearRing(r).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// Project returns the AOI with every coordinate reprojected into dstCRS.
// The receiver is returned unchanged when it is already in dstCRS.
func (a *AOI) Project(dstCRS string) (*AOI, error) {
	if raster.SameCRS(a.crs, dstCRS) {
		return a, nil
	}

	out := geom.NewMultiPolygon(geom.XY)
	for i := 0; i < a.mp.NumPolygons(); i++ {
		src := a.mp.Polygon(i)
		poly := geom.NewPolygon(geom.XY)
		for r := 0; r < src.NumLinearRings(); r++ {
			flat := src.LinearRing(r).FlatCoords()
			n := len(flat) / 2
			xs := make([]float64, n)
			ys := make([]float64, n)
			for j := 0; j < n; j++ {
				xs[j] = flat[2*j]
				ys[j] = flat[2*j+1]
			}
			if err := raster.ProjectXY(a.crs, dstCRS, xs, ys); err != nil {
				return nil, err
			}
			projected := make([]float64, 2*n)
			for j := 0; j < n; j++ {
				projected[2*j] = xs[j]
				projected[2*j+1] = ys[j]
			}
			if err := poly.Push(geom.NewLinearRingFlat(geom.XY, projected)); err != nil {
				return nil, eris.Wrap(err, "aoi: rebuild ring")
			}
		}
		if err := out.Push(poly); err != nil {
			return nil, eris.Wrap(err, "aoi: rebuild polygon")
		}
	}

	return New(out, dstCRS)
}

// dissolve flattens any mix of polygons and multipolygons into one
// multipolygon. Overlapping features are kept as-is: containment tests
// treat the collection as a union, which is all the pipeline needs.
func dissolve(geoms []geom.T) (*geom.MultiPolygon, error) {
	out := geom.NewMultiPolygon(geom.XY)
	push := func(p *geom.Polygon) error {
		// Rebuild on the XY layout so mixed-layout inputs coexist.
		poly := geom.NewPolygon(geom.XY)
		for r := 0; r < p.NumLinearRings(); r++ {
			flat := p.LinearRing(r).FlatCoords()
			stride := p.Stride()
			ring := make([]float64, 0, len(flat)/stride*2)
			for j := 0; j+stride <= len(flat); j += stride {
				ring = append(ring, flat[j], flat[j+1])
			}
			if err := poly.Push(geom.NewLinearRingFlat(geom.XY, ring)); err != nil {
				return err
			}
		}
		return out.Push(poly)
	}

	for _, g := range geoms {
		switch t := g.(type) {
		case *geom.Polygon:
			if err := push(t); err != nil {
				return nil, eris.Wrap(err, "aoi: dissolve polygon")
			}
		case *geom.MultiPolygon:
			for i := 0; i < t.NumPolygons(); i++ {
				if err := push(t.Polygon(i)); err != nil {
					return nil, eris.Wrap(err, "aoi: dissolve multipolygon")
				}
			}
		default:
			// Non-areal features (points, lines) carry no boundary information.
		}
	}

	if out.NumPolygons() == 0 {
		return nil, eris.New("aoi: no polygonal features in boundary source")
	}
	return out, nil
}
