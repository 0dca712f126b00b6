// Package dataset loads an exported feature raster back into memory,
// reconciles its band labels against the configured names, tabulates the
// jointly valid pixels and fans the result out to the sinks.
package dataset

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/raster"
)

// BandReconciliation tags how the file's band labels relate to the
// expected names. The resolved names always accompany the tag; callers
// never need to re-derive them.
type BandReconciliation int

const (
	// BandsMatch: file labels present and identical to the expected names.
	BandsMatch BandReconciliation = iota
	// BandsMismatch: file labels present but different; the file wins.
	BandsMismatch
	// BandsUnknown: file carries no labels; the expected names are assumed.
	BandsUnknown
)

func (r BandReconciliation) String() string {
	switch r {
	case BandsMatch:
		return "match"
	case BandsMismatch:
		return "mismatch"
	case BandsUnknown:
		return "unknown"
	}
	return "invalid"
}

func (r BandReconciliation) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

func (r BandReconciliation) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// LoadInfo describes a loaded raster. NValid, NTotal and CoveragePct are
// filled in by Tabulate.
type LoadInfo struct {
	Shape          [3]int             `yaml:"shape" json:"shape"` // bands, height, width
	CRS            string             `yaml:"crs" json:"crs"`
	Resolution     [2]float64         `yaml:"resolution" json:"resolution"`
	Bounds         [4]float64         `yaml:"bounds" json:"bounds"`
	BandNames      []string           `yaml:"band_names" json:"band_names"`
	FileBandNames  []string           `yaml:"file_band_names" json:"file_band_names"`
	Reconciliation BandReconciliation `yaml:"band_reconciliation" json:"band_reconciliation"`
	NValid         int                `yaml:"n_valid" json:"n_valid"`
	NTotal         int                `yaml:"n_total" json:"n_total"`
	CoveragePct    float64            `yaml:"coverage_pct" json:"coverage_pct"`
}

// Raster is a loaded multi-band grid with resolved band names.
type Raster struct {
	Spec  raster.GridSpec
	Names []string
	Bands []*raster.Grid
}

// Load reads every band of a GeoTIFF and reconciles its labels against
// the expected names. A label mismatch is downgraded to a warning, the
// file's own labels win.
func Load(path string, expected []string) (*Raster, *LoadInfo, error) {
	cube, err := raster.ReadGeoTIFF(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "dataset: load %s", path)
	}

	names, rec := reconcileBands(cube.Descriptions, expected)
	switch rec {
	case BandsMismatch:
		zap.L().Warn("dataset: band labels differ from configuration, file labels win",
			zap.String("path", path),
			zap.Strings("file", cube.Descriptions),
			zap.Strings("expected", expected))
	case BandsUnknown:
		zap.L().Warn("dataset: file carries no band labels, assuming configured names",
			zap.String("path", path),
			zap.Strings("assumed", names))
	}

	bands := make([]*raster.Grid, len(cube.Bands))
	for i, data := range cube.Bands {
		g, err := raster.NewGridFrom(cube.Spec, data)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "dataset: band %d of %s", i+1, path)
		}
		bands[i] = g
	}

	px, py := cube.Spec.Resolution()
	info := &LoadInfo{
		Shape:          [3]int{len(bands), cube.Spec.Height, cube.Spec.Width},
		CRS:            cube.Spec.CRS,
		Resolution:     [2]float64{px, math.Abs(py)},
		Bounds:         cube.Spec.Bounds(),
		BandNames:      names,
		FileBandNames:  append([]string(nil), cube.Descriptions...),
		Reconciliation: rec,
	}
	return &Raster{Spec: cube.Spec, Names: names, Bands: bands}, info, nil
}

// reconcileBands resolves band names from the file's labels and the
// expected list. Labels count as present only when every band carries
// one. Present and equal: match. Present and different: mismatch, the
// file wins. Any band unlabeled: unknown, and the expected names are
// assumed when the count fits, positional names otherwise.
func reconcileBands(fileLabels, expected []string) ([]string, BandReconciliation) {
	labeled := len(fileLabels) > 0
	for _, l := range fileLabels {
		if l == "" {
			labeled = false
			break
		}
	}

	if labeled {
		if equalNames(fileLabels, expected) {
			return append([]string(nil), fileLabels...), BandsMatch
		}
		return append([]string(nil), fileLabels...), BandsMismatch
	}

	if len(expected) == len(fileLabels) {
		return append([]string(nil), expected...), BandsUnknown
	}
	names := make([]string, len(fileLabels))
	for i := range names {
		names[i] = positionalName(i)
	}
	return names, BandsUnknown
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func positionalName(i int) string {
	return "band_" + strconv.Itoa(i+1)
}
