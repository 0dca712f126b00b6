package config

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		TargetCRS:       "EPSG:32633",
		TargetScale:     30,
		StudyYears:      []int{2022, 2023},
		HotSeasonMonths: []int{6, 7, 8},
		BandNames:       []string{"LST", "NDVI"},
		RasterName:      "features",
		DataDir:         "data/processed",
		LSTValidRange:   []float64{10, 60},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_LSTRange(t *testing.T) {
	for _, bad := range [][]float64{nil, {10}, {60, 10}, {10, 10}} {
		c := validConfig()
		c.LSTValidRange = bad
		assert.Error(t, c.Validate(), "range %v", bad)
	}
}

func TestValidate_TargetScale(t *testing.T) {
	c := validConfig()
	c.TargetScale = 0
	assert.Error(t, c.Validate())

	c.TargetScale = -30
	assert.Error(t, c.Validate())
}

func TestValidate_BandNames(t *testing.T) {
	c := validConfig()
	c.BandNames = nil
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingKey))

	c = validConfig()
	c.BandNames = []string{"LST", "LST"}
	assert.Error(t, c.Validate())
}

func TestValidate_Months(t *testing.T) {
	c := validConfig()
	c.HotSeasonMonths = []int{6, 13}
	assert.Error(t, c.Validate())

	c.HotSeasonMonths = []int{0}
	assert.Error(t, c.Validate())
}

func TestRasterPath(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "data/processed/features.tif", c.RasterPath())
}

func TestLoad_MissingRequiredKey(t *testing.T) {
	// No config file in the test working directory and no UHI_* env vars,
	// so the first required key must be reported.
	_, err := Load()
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingKey))
}
