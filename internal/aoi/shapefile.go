package aoi

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ShapefileSource reads the boundary from a local polygon shapefile,
// reprojects it to geographic coordinates using the sidecar .prj (a
// missing .prj is taken to mean the file is already geographic), and
// dissolves all features into one multipolygon.
type ShapefileSource struct {
	Path string
}

// Name implements Source.
func (s *ShapefileSource) Name() string {
	return "shapefile"
}

// Boundary implements Source.
func (s *ShapefileSource) Boundary(ctx context.Context) (*AOI, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := shp.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "aoi: open shapefile %s", s.Path)
	}
	defer func() { _ = reader.Close() }()

	var geoms []geom.T
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		if mp := polygonToMultiPolygon(poly); mp != nil {
			geoms = append(geoms, mp)
		}
	}

	mp, err := dissolve(geoms)
	if err != nil {
		return nil, err
	}

	a, err := New(mp, GeographicCRS)
	if err != nil {
		return nil, err
	}

	srcCRS, err := s.projCRS()
	if err != nil {
		return nil, err
	}
	if srcCRS == "" {
		return a, nil
	}
	// Rewrap under the real source CRS, then bring it to geographic.
	a.crs = srcCRS
	return a.Project(GeographicCRS)
}

// projCRS reads the sidecar .prj WKT. Empty means geographic is assumed.
func (s *ShapefileSource) projCRS() (string, error) {
	prjPath := strings.TrimSuffix(s.Path, filepath.Ext(s.Path)) + ".prj"
	raw, err := os.ReadFile(prjPath)
	if os.IsNotExist(err) {
		zap.L().Debug("aoi: shapefile has no .prj, assuming geographic coordinates",
			zap.String("path", s.Path))
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "aoi: read %s", prjPath)
	}

	wkt := strings.TrimSpace(string(raw))
	if strings.HasPrefix(wkt, "GEOGCS") || strings.HasPrefix(wkt, "GEOGCRS") {
		// Already geographic.
		return "", nil
	}
	return wkt, nil
}

// polygonToMultiPolygon converts a shapefile polygon record to a
// go-geom multipolygon, dropping malformed parts.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("aoi: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("aoi: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
