package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/uhi-cli/internal/raster"
)

func TestMedianComposite_PerPixel(t *testing.T) {
	spec := testSpec(2, 1)
	nan := math.NaN()
	layers := []*raster.Grid{
		gridOf(t, spec, 10, nan),
		gridOf(t, spec, 30, 5),
		gridOf(t, spec, 20, nan),
	}

	got := medianComposite(layers, spec)
	assert.Equal(t, 20.0, got.At(0, 0))
	assert.Equal(t, 5.0, got.At(0, 1), "single observation is its own median")
}

func TestMedianComposite_EvenCountInterpolates(t *testing.T) {
	spec := testSpec(1, 1)
	layers := []*raster.Grid{
		gridOf(t, spec, 10),
		gridOf(t, spec, 20),
	}
	got := medianComposite(layers, spec)
	assert.InDelta(t, 15.0, got.At(0, 0), 1e-9)
}

func TestMedianComposite_Empty(t *testing.T) {
	spec := testSpec(2, 2)
	got := medianComposite(nil, spec)
	assert.True(t, got.AllNoData())
}
