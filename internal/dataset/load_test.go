package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileBands_Match(t *testing.T) {
	names, rec := reconcileBands([]string{"LST", "NDVI"}, []string{"LST", "NDVI"})
	assert.Equal(t, BandsMatch, rec)
	assert.Equal(t, []string{"LST", "NDVI"}, names)
}

func TestReconcileBands_MismatchFileWins(t *testing.T) {
	names, rec := reconcileBands([]string{"a", "b"}, []string{"LST", "NDVI"})
	assert.Equal(t, BandsMismatch, rec)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestReconcileBands_CountMismatchIsMismatch(t *testing.T) {
	names, rec := reconcileBands([]string{"LST"}, []string{"LST", "NDVI"})
	assert.Equal(t, BandsMismatch, rec)
	assert.Equal(t, []string{"LST"}, names)
}

func TestReconcileBands_PartialLabelsAreUnknown(t *testing.T) {
	// One unlabeled band means the file's labels are not trusted at all:
	// the expected names win and no empty string leaks into the result.
	names, rec := reconcileBands([]string{"LST", ""}, []string{"LST", "NDVI"})
	assert.Equal(t, BandsUnknown, rec)
	assert.Equal(t, []string{"LST", "NDVI"}, names)
}

func TestReconcileBands_UnlabeledAssumesExpected(t *testing.T) {
	names, rec := reconcileBands([]string{"", ""}, []string{"LST", "NDVI"})
	assert.Equal(t, BandsUnknown, rec)
	assert.Equal(t, []string{"LST", "NDVI"}, names)
}

func TestReconcileBands_UnlabeledCountMismatchGoesPositional(t *testing.T) {
	names, rec := reconcileBands([]string{"", "", ""}, []string{"LST"})
	assert.Equal(t, BandsUnknown, rec)
	assert.Equal(t, []string{"band_1", "band_2", "band_3"}, names)
}

func TestBandReconciliation_String(t *testing.T) {
	assert.Equal(t, "match", BandsMatch.String())
	assert.Equal(t, "mismatch", BandsMismatch.String())
	assert.Equal(t, "unknown", BandsUnknown.String())

	j, err := BandsMismatch.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"mismatch"`, string(j))

	y, err := BandsUnknown.MarshalYAML()
	assert.NoError(t, err)
	assert.Equal(t, "unknown", y)
}
