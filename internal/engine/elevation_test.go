package engine

import (
	"context"
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/uhi-cli/internal/raster"
)

func TestElevation_FirstValidWins(t *testing.T) {
	p := testParams(t, 2, 1)
	nan := math.NaN()
	first := gridOf(t, p.Target, 100, nan)
	second := gridOf(t, p.Target, 200, 250)

	got, err := Elevation(context.Background(), p, &fakeTiles{tiles: []*raster.Grid{first, second}})
	require.NoError(t, err)

	assert.Equal(t, 100.0, got.At(0, 0), "overlap resolves to the earlier tile")
	assert.Equal(t, 250.0, got.At(0, 1), "gaps fill from later tiles")
}

func TestElevation_NoTiles(t *testing.T) {
	p := testParams(t, 2, 2)
	got, err := Elevation(context.Background(), p, &fakeTiles{})
	require.NoError(t, err)
	assert.True(t, got.AllNoData())
}

func TestElevation_SourceError(t *testing.T) {
	p := testParams(t, 2, 2)
	_, err := Elevation(context.Background(), p, &fakeTiles{err: eris.New("bad tile")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad tile")
}
