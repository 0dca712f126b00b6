package catalog

import (
	"context"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ShapefileRoads reads road centerlines from a polyline shapefile. The
// shapefile must already be in the pipeline CRS; there is no live road API
// in this deployment, the network is distributed as a static extract.
type ShapefileRoads struct {
	Path string
}

// Roads implements RoadSource: all polyline parts whose bounding box
// intersects the requested bounds.
func (s *ShapefileRoads) Roads(ctx context.Context, bounds [4]float64) ([]Polyline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := shp.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: open roads shapefile %s", s.Path)
	}
	defer func() { _ = reader.Close() }()

	var lines []Polyline
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		pl, ok := shape.(*shp.PolyLine)
		if !ok {
			skipped++
			continue
		}

		box := pl.BBox()
		if !boundsIntersect([4]float64{box.MinX, box.MinY, box.MaxX, box.MaxY}, bounds) {
			continue
		}

		for i := int32(0); i < pl.NumParts; i++ {
			start := pl.Parts[i]
			end := int32(len(pl.Points))
			if i+1 < pl.NumParts {
				end = pl.Parts[i+1]
			}

			line := make(Polyline, 0, end-start)
			for j := start; j < end; j++ {
				line = append(line, [2]float64{pl.Points[j].X, pl.Points[j].Y})
			}
			if len(line) >= 2 {
				lines = append(lines, line)
			}
		}
	}

	if skipped > 0 {
		zap.L().Debug("catalog: skipped non-polyline road shapes", zap.Int("count", skipped))
	}
	return lines, nil
}
