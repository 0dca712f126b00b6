// Package catalog abstracts the remote-sensing collections the layer
// engines draw from. Engines only see queryable interfaces; where the
// scenes actually live (a local directory tree indexed in sqlite, in the
// shipped implementation) is not their concern.
package catalog

import (
	"context"
	"time"

	"github.com/sells-group/uhi-cli/internal/raster"
)

// Scene is one acquisition from a scene collection: its metadata plus the
// named raw bands (digital numbers, unscaled) read from the source file.
type Scene struct {
	ID         string
	AcquiredAt time.Time
	CloudCover float64 // scene-level cloud cover, percent
	Bands      map[string]*raster.Grid
}

// Band returns the named band, or nil when the scene does not carry it.
func (s Scene) Band(name string) *raster.Grid {
	return s.Bands[name]
}

// MonthWindow selects one calendar month of one year.
type MonthWindow struct {
	Year  int
	Month int
}

// Windows builds the cross product of years and months.
func Windows(years, months []int) []MonthWindow {
	out := make([]MonthWindow, 0, len(years)*len(months))
	for _, y := range years {
		for _, m := range months {
			out = append(out, MonthWindow{Year: y, Month: m})
		}
	}
	return out
}

// Filter narrows a scene collection. Bounds intersect scene footprints,
// Windows select acquisition months (empty = all), and MaxCloudCover is a
// strict upper bound in percent (negative = no cloud filtering).
type Filter struct {
	Bounds        [4]float64
	Windows       []MonthWindow
	MaxCloudCover float64
}

// Matches reports whether scene metadata passes the non-spatial parts of
// the filter.
func (f Filter) Matches(acquiredAt time.Time, cloudCover float64) bool {
	if f.MaxCloudCover >= 0 && cloudCover >= f.MaxCloudCover {
		return false
	}
	if len(f.Windows) == 0 {
		return true
	}
	for _, w := range f.Windows {
		if acquiredAt.Year() == w.Year && int(acquiredAt.Month()) == w.Month {
			return true
		}
	}
	return false
}

// SceneSource is a queryable multi-scene collection (Landsat, Sentinel).
// An empty result is not an error: the caller decides what a collection
// with zero qualifying scenes means.
type SceneSource interface {
	Scenes(ctx context.Context, f Filter) ([]Scene, error)
}

// ImageSource is a single global raster (surface-water occurrence,
// land-cover classification) windowed to the requested bounds.
type ImageSource interface {
	Image(ctx context.Context, bounds [4]float64) (*raster.Grid, error)
}

// TileSource is a tiled raster collection (DEM) to be mosaicked by the
// caller. Tiles may overlap.
type TileSource interface {
	Tiles(ctx context.Context, bounds [4]float64) ([]*raster.Grid, error)
}

// Polyline is a road centerline in map coordinates.
type Polyline [][2]float64

// RoadSource yields road centerlines intersecting the requested bounds.
type RoadSource interface {
	Roads(ctx context.Context, bounds [4]float64) ([]Polyline, error)
}

// boundsIntersect reports whether two [minX, minY, maxX, maxY] boxes overlap.
func boundsIntersect(a, b [4]float64) bool {
	return a[0] <= b[2] && b[0] <= a[2] && a[1] <= b[3] && b[1] <= a[3]
}
