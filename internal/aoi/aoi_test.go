package aoi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func squareAOI(t *testing.T) *AOI {
	t.Helper()
	mp := geom.NewMultiPolygon(geom.XY)
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY,
		[]float64{0, 0, 10, 0, 10, 10, 0, 10, 0, 0})))
	require.NoError(t, mp.Push(poly))
	a, err := New(mp, GeographicCRS)
	require.NoError(t, err)
	return a
}

func TestNew_RejectsEmpty(t *testing.T) {
	_, err := New(nil, GeographicCRS)
	assert.Error(t, err)

	_, err = New(geom.NewMultiPolygon(geom.XY), GeographicCRS)
	assert.Error(t, err)
}

func TestAOI_Bounds(t *testing.T) {
	a := squareAOI(t)
	assert.Equal(t, [4]float64{0, 0, 10, 10}, a.Bounds())
}

func TestAOI_Contains(t *testing.T) {
	a := squareAOI(t)

	assert.True(t, a.Contains(5, 5))
	assert.False(t, a.Contains(15, 5))
	assert.False(t, a.Contains(-1, -1))
}

func TestAOI_Contains_Hole(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY)
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY,
		[]float64{0, 0, 10, 0, 10, 10, 0, 10, 0, 0})))
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY,
		[]float64{4, 4, 6, 4, 6, 6, 4, 6, 4, 4})))
	require.NoError(t, mp.Push(poly))
	a, err := New(mp, GeographicCRS)
	require.NoError(t, err)

	assert.True(t, a.Contains(2, 2))
	assert.False(t, a.Contains(5, 5), "point inside the hole is outside the AOI")
}

func TestAOI_Project_SameCRSIsIdentity(t *testing.T) {
	a := squareAOI(t)
	p, err := a.Project("epsg:4326")
	require.NoError(t, err)
	assert.Same(t, a, p)
}

func TestDissolve_MixedGeometries(t *testing.T) {
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY,
		[]float64{0, 0, 1, 0, 1, 1, 0, 1, 0, 0})))

	mpIn := geom.NewMultiPolygon(geom.XY)
	p2 := geom.NewPolygon(geom.XY)
	require.NoError(t, p2.Push(geom.NewLinearRingFlat(geom.XY,
		[]float64{5, 5, 6, 5, 6, 6, 5, 6, 5, 5})))
	require.NoError(t, mpIn.Push(p2))

	point := geom.NewPointFlat(geom.XY, []float64{9, 9})

	mp, err := dissolve([]geom.T{poly, mpIn, point})
	require.NoError(t, err)
	assert.Equal(t, 2, mp.NumPolygons(), "point features are ignored")
}

func TestDissolve_NoPolygons(t *testing.T) {
	_, err := dissolve([]geom.T{geom.NewPointFlat(geom.XY, []float64{0, 0})})
	assert.Error(t, err)
}

func TestDecodeGeoJSON(t *testing.T) {
	fc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":
			{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}]}`
	geoms, err := decodeGeoJSON([]byte(fc))
	require.NoError(t, err)
	assert.Len(t, geoms, 1)

	feature := `{"type":"Feature","properties":{},"geometry":
		{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}`
	geoms, err = decodeGeoJSON([]byte(feature))
	require.NoError(t, err)
	assert.Len(t, geoms, 1)

	bare := `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`
	geoms, err = decodeGeoJSON([]byte(bare))
	require.NoError(t, err)
	assert.Len(t, geoms, 1)

	_, err = decodeGeoJSON([]byte(`not json`))
	assert.Error(t, err)
}
