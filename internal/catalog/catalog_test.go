package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindows_CrossProduct(t *testing.T) {
	w := Windows([]int{2022, 2023}, []int{3, 4})
	assert.Equal(t, []MonthWindow{
		{2022, 3}, {2022, 4},
		{2023, 3}, {2023, 4},
	}, w)
}

func TestFilter_Matches_CloudCover(t *testing.T) {
	f := Filter{MaxCloudCover: 20}
	at := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, f.Matches(at, 10))
	assert.False(t, f.Matches(at, 20), "threshold is a strict upper bound")
	assert.False(t, f.Matches(at, 35))

	// Negative threshold disables cloud filtering.
	f.MaxCloudCover = -1
	assert.True(t, f.Matches(at, 99))
}

func TestFilter_Matches_Windows(t *testing.T) {
	f := Filter{
		MaxCloudCover: -1,
		Windows:       Windows([]int{2022, 2023}, []int{3, 4, 5}),
	}

	assert.True(t, f.Matches(time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC), 0))
	assert.True(t, f.Matches(time.Date(2023, 5, 31, 0, 0, 0, 0, time.UTC), 0))
	assert.False(t, f.Matches(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 0))
	assert.False(t, f.Matches(time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC), 0))
}

func TestFilter_Matches_NoWindows(t *testing.T) {
	f := Filter{MaxCloudCover: -1}
	assert.True(t, f.Matches(time.Time{}, 0))
}

func TestBoundsIntersect(t *testing.T) {
	a := [4]float64{0, 0, 10, 10}

	assert.True(t, boundsIntersect(a, [4]float64{5, 5, 15, 15}))
	assert.True(t, boundsIntersect(a, [4]float64{10, 10, 20, 20}), "touching boxes intersect")
	assert.False(t, boundsIntersect(a, [4]float64{11, 0, 20, 10}))
	assert.False(t, boundsIntersect(a, [4]float64{0, -20, 10, -11}))
}
