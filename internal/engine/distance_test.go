package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/uhi-cli/internal/catalog"
	"github.com/sells-group/uhi-cli/internal/raster"
)

func TestSquaredDistanceTransform_Exact(t *testing.T) {
	// Single present pixel at (row 0, col 0) on a 5x5 grid.
	present := make([]bool, 25)
	present[0] = true

	d2 := squaredDistanceTransform(present, 5, 5, 50)

	assert.Equal(t, 0.0, d2[0])
	assert.Equal(t, 9.0, d2[3])    // 3 pixels right
	assert.Equal(t, 16.0, d2[4*5]) // 4 pixels down
	assert.Equal(t, 25.0, d2[4*5+3], "3,4 diagonal is exactly 5 pixels")
}

func TestSquaredDistanceTransform_Cap(t *testing.T) {
	present := make([]bool, 10)
	present[0] = true

	d2 := squaredDistanceTransform(present, 10, 1, 3)

	assert.Equal(t, 4.0, d2[2])
	assert.Equal(t, 9.0, d2[3])
	assert.Equal(t, 9.0, d2[7], "beyond the neighborhood saturates at the cap")
	assert.Equal(t, 9.0, d2[9])
}

func TestSquaredDistanceTransform_NoPresence(t *testing.T) {
	d2 := squaredDistanceTransform(make([]bool, 6), 3, 2, 4)
	for i, v := range d2 {
		assert.Equal(t, 16.0, v, "index %d", i)
	}
}

func TestDistanceToWater_ThresholdAndScale(t *testing.T) {
	p := testParams(t, 5, 1)
	nan := math.NaN()
	// Only col 0 meets the occurrence threshold; NaN counts as dry.
	occ := gridOf(t, p.Target, 80, 20, nan, 10, 0)
	got, err := DistanceToWater(context.Background(), p, &fakeImage{grid: occ})
	require.NoError(t, err)

	assert.Equal(t, 0.0, got.At(0, 0))
	assert.Equal(t, 10.0, got.At(0, 1))
	assert.Equal(t, 20.0, got.At(0, 2))
	assert.Equal(t, 40.0, got.At(0, 4), "k pixels away is k times the pixel size")
}

func TestDistanceToWater_NoWaterSaturates(t *testing.T) {
	p := testParams(t, 3, 1)
	p.Cfg.Distance.NeighborhoodPixels = 2

	got, err := DistanceToWater(context.Background(), p, &fakeImage{grid: raster.NewGrid(p.Target)})
	require.NoError(t, err)
	for col := 0; col < 3; col++ {
		assert.Equal(t, 20.0, got.At(0, col))
	}
}

func TestRasterizeLines_BurnsCrossedCells(t *testing.T) {
	spec := testSpec(5, 5)
	// Horizontal line through the middle row (y = 25 falls in row 2).
	lines := []catalog.Polyline{{{5, 25}, {45, 25}}}

	present := rasterizeLines(lines, spec)
	for col := 0; col < 5; col++ {
		assert.True(t, present[2*5+col], "col %d", col)
	}
	assert.False(t, present[0])
	assert.False(t, present[4*5+4])
}

func TestRasterizeLines_NorthUpRowOrder(t *testing.T) {
	spec := testSpec(5, 5)
	// y grows upward but rows grow downward: a line near the top edge
	// (y = 45) must land in row 0, one near the bottom (y = 5) in row 4.
	top := rasterizeLines([]catalog.Polyline{{{5, 45}, {45, 45}}}, spec)
	bottom := rasterizeLines([]catalog.Polyline{{{5, 5}, {45, 5}}}, spec)

	for col := 0; col < 5; col++ {
		assert.True(t, top[0*5+col], "top line col %d", col)
		assert.False(t, top[4*5+col])
		assert.True(t, bottom[4*5+col], "bottom line col %d", col)
		assert.False(t, bottom[0*5+col])
	}
}

func TestRasterizeLines_ClipsOutOfGrid(t *testing.T) {
	spec := testSpec(3, 3)
	lines := []catalog.Polyline{{{-100, 25}, {15, 25}}}

	present := rasterizeLines(lines, spec)
	assert.True(t, present[0*3+0], "segment enters the grid at col 0")
	assert.True(t, present[0*3+1], "segment ends inside col 1")
	assert.False(t, present[0*3+2])
	assert.False(t, present[2*3+0], "other rows stay clear")
}

func TestDistanceToRoads_EndToEnd(t *testing.T) {
	p := testParams(t, 5, 5)
	// Vertical road down column 0 (x = 5 is the center of col 0).
	roads := &fakeRoads{lines: []catalog.Polyline{{{5, 5}, {5, 45}}}}

	got, err := DistanceToRoads(context.Background(), p, roads)
	require.NoError(t, err)

	assert.Equal(t, 0.0, got.At(2, 0))
	assert.Equal(t, 10.0, got.At(2, 1))
	assert.Equal(t, 40.0, got.At(2, 4))
}

func TestDistanceToRoads_NoRoadsSaturates(t *testing.T) {
	p := testParams(t, 2, 2)
	p.Cfg.Distance.NeighborhoodPixels = 5

	got, err := DistanceToRoads(context.Background(), p, &fakeRoads{})
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.At(0, 0))
	assert.Equal(t, 50.0, got.At(1, 1))
}
