// Package raster provides the in-memory grid model shared by every layer
// engine: a single-band float64 grid over a pinned affine transform + CRS,
// with NaN as the no-data value.
package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// GridSpec pins a grid's geometry: pixel dimensions, GDAL-style affine
// transform and coordinate reference system. Two layers are interchangeable
// iff their specs are equal.
type GridSpec struct {
	Width  int
	Height int
	// Transform is the GDAL geotransform: [originX, pixelW, rotX, originY,
	// rotY, pixelH]. pixelH is negative for north-up grids.
	Transform [6]float64
	CRS       string
}

// NewSpec builds a north-up spec from an origin and square pixel size.
func NewSpec(width, height int, originX, originY, pixelSize float64, crs string) GridSpec {
	return GridSpec{
		Width:     width,
		Height:    height,
		Transform: [6]float64{originX, pixelSize, 0, originY, 0, -pixelSize},
		CRS:       crs,
	}
}

// SpecForBounds builds the smallest north-up grid of square pixels that
// covers bounds at the given pixel size. This is how the target grid is
// pinned from an AOI extent before any engine runs.
func SpecForBounds(bounds [4]float64, pixelSize float64, crs string) GridSpec {
	width := int(math.Ceil((bounds[2] - bounds[0]) / pixelSize))
	height := int(math.Ceil((bounds[3] - bounds[1]) / pixelSize))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return NewSpec(width, height, bounds[0], bounds[3], pixelSize, crs)
}

// PixelCenter returns the map coordinates of the center of pixel (row, col).
func (s GridSpec) PixelCenter(row, col int) (x, y float64) {
	fc := float64(col) + 0.5
	fr := float64(row) + 0.5
	x = s.Transform[0] + fc*s.Transform[1] + fr*s.Transform[2]
	y = s.Transform[3] + fc*s.Transform[4] + fr*s.Transform[5]
	return x, y
}

// PixelAt inverts the affine transform, returning the (row, col) whose cell
// contains the map coordinate (x, y). ok is false outside the grid.
func (s GridSpec) PixelAt(x, y float64) (row, col int, ok bool) {
	t := s.Transform
	det := t[1]*t[5] - t[2]*t[4]
	if det == 0 {
		return 0, 0, false
	}
	dx := x - t[0]
	dy := y - t[3]
	fc := (dx*t[5] - dy*t[2]) / det
	fr := (dy*t[1] - dx*t[4]) / det
	col = int(math.Floor(fc))
	row = int(math.Floor(fr))
	if row < 0 || row >= s.Height || col < 0 || col >= s.Width {
		return row, col, false
	}
	return row, col, true
}

// Resolution returns the absolute pixel size along x and y.
func (s GridSpec) Resolution() (rx, ry float64) {
	return math.Abs(s.Transform[1]), math.Abs(s.Transform[5])
}

// Bounds returns [minX, minY, maxX, maxY] of the grid extent.
func (s GridSpec) Bounds() [4]float64 {
	corners := [4][2]float64{}
	for i, rc := range [][2]int{{0, 0}, {0, s.Width}, {s.Height, 0}, {s.Height, s.Width}} {
		fr, fc := float64(rc[0]), float64(rc[1])
		corners[i][0] = s.Transform[0] + fc*s.Transform[1] + fr*s.Transform[2]
		corners[i][1] = s.Transform[3] + fc*s.Transform[4] + fr*s.Transform[5]
	}
	b := [4]float64{corners[0][0], corners[0][1], corners[0][0], corners[0][1]}
	for _, c := range corners[1:] {
		b[0] = math.Min(b[0], c[0])
		b[1] = math.Min(b[1], c[1])
		b[2] = math.Max(b[2], c[0])
		b[3] = math.Max(b[3], c[1])
	}
	return b
}

// Equal reports whether two specs describe the same grid geometry.
func (s GridSpec) Equal(o GridSpec) bool {
	return s.Width == o.Width && s.Height == o.Height &&
		s.Transform == o.Transform && s.CRS == o.CRS
}

// Grid is a single-band raster. Data is row-major; NaN marks no-data cells.
type Grid struct {
	Spec GridSpec
	Data []float64
}

// NewGrid allocates a grid on spec with every cell set to no-data.
func NewGrid(spec GridSpec) *Grid {
	data := make([]float64, spec.Width*spec.Height)
	for i := range data {
		data[i] = math.NaN()
	}
	return &Grid{Spec: spec, Data: data}
}

// NewGridFrom wraps existing row-major data in a grid.
func NewGridFrom(spec GridSpec, data []float64) (*Grid, error) {
	if len(data) != spec.Width*spec.Height {
		return nil, eris.Errorf("raster: data length %d does not match %dx%d grid",
			len(data), spec.Width, spec.Height)
	}
	return &Grid{Spec: spec, Data: data}, nil
}

// At returns the value at (row, col).
func (g *Grid) At(row, col int) float64 {
	return g.Data[row*g.Spec.Width+col]
}

// Set assigns the value at (row, col).
func (g *Grid) Set(row, col int, v float64) {
	g.Data[row*g.Spec.Width+col] = v
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	data := make([]float64, len(g.Data))
	copy(data, g.Data)
	return &Grid{Spec: g.Spec, Data: data}
}

// Resample regrids onto target by nearest-neighbor lookup at each target
// pixel center. Target cells whose centers fall outside the source grid
// become no-data. A grid already on target is returned unchanged.
func (g *Grid) Resample(target GridSpec) *Grid {
	if g.Spec.Equal(target) {
		return g
	}
	out := NewGrid(target)
	for row := 0; row < target.Height; row++ {
		for col := 0; col < target.Width; col++ {
			x, y := target.PixelCenter(row, col)
			sr, sc, ok := g.Spec.PixelAt(x, y)
			if !ok {
				continue
			}
			out.Set(row, col, g.At(sr, sc))
		}
	}
	return out
}

// MaskOutside sets to no-data every cell whose center fails the containment
// predicate. The predicate receives map coordinates.
func (g *Grid) MaskOutside(contains func(x, y float64) bool) {
	for row := 0; row < g.Spec.Height; row++ {
		for col := 0; col < g.Spec.Width; col++ {
			x, y := g.Spec.PixelCenter(row, col)
			if !contains(x, y) {
				g.Set(row, col, math.NaN())
			}
		}
	}
}

// CopyMaskFrom sets to no-data every cell that is no-data in src. Grids must
// share a spec.
func (g *Grid) CopyMaskFrom(src *Grid) error {
	if !g.Spec.Equal(src.Spec) {
		return eris.New("raster: mask source grid spec differs")
	}
	for i, v := range src.Data {
		if math.IsNaN(v) {
			g.Data[i] = math.NaN()
		}
	}
	return nil
}

// FillFrom copies src values into cells that are still no-data, leaving
// existing values untouched. Grids must share a spec.
func (g *Grid) FillFrom(src *Grid) error {
	if !g.Spec.Equal(src.Spec) {
		return eris.New("raster: fill source grid spec differs")
	}
	for i, v := range src.Data {
		if math.IsNaN(g.Data[i]) && !math.IsNaN(v) {
			g.Data[i] = v
		}
	}
	return nil
}

// QuantizeFloat32 rounds every value through float32 precision. Derived
// quantities here do not need float64 storage and the persisted raster is
// Float32, so the in-memory stack matches what the file will hold.
func (g *Grid) QuantizeFloat32() {
	for i, v := range g.Data {
		g.Data[i] = float64(float32(v))
	}
}

// ValidValues returns all finite cell values.
func (g *Grid) ValidValues() []float64 {
	vals := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	return vals
}

// AllNoData reports whether no cell holds a finite value.
func (g *Grid) AllNoData() bool {
	return len(g.ValidValues()) == 0
}
