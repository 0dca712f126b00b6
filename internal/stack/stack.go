// Package stack turns a computed layer set into the ordered, clipped,
// export-ready band stack.
package stack

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/aoi"
	"github.com/sells-group/uhi-cli/internal/engine"
	"github.com/sells-group/uhi-cli/internal/raster"
)

// ErrMissingLayer reports band names requested in configuration that the
// layer set does not carry.
var ErrMissingLayer = eris.New("stack: requested band not computed")

// Stack is the assembled product: bands in configured order, every band
// on the same grid, clipped to the AOI and quantized to float32
// precision.
type Stack struct {
	Spec  raster.GridSpec
	Names []string
	Bands []*raster.Grid
}

// Assemble selects names from the layer set in order, resamples each
// layer onto the target grid, masks pixels outside the AOI and rounds
// values through float32. A single missing name fails the whole assembly
// with every missing name listed; nothing partial comes back. Layers the
// configuration does not ask for are dropped.
func Assemble(layers engine.LayerSet, names []string, region *aoi.AOI, target raster.GridSpec) (*Stack, error) {
	var missing []string
	for _, name := range names {
		if layers[name] == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Wrapf(ErrMissingLayer, "bands %s", strings.Join(missing, ", "))
	}

	if extra := extraLayers(layers, names); len(extra) > 0 {
		zap.L().Debug("stack: dropping layers not in the configured band list",
			zap.Strings("layers", extra))
	}

	bands := make([]*raster.Grid, len(names))
	for i, name := range names {
		g := layers[name].Resample(target).Clone()
		g.MaskOutside(region.Contains)
		g.QuantizeFloat32()
		bands[i] = g
	}

	return &Stack{Spec: target, Names: append([]string(nil), names...), Bands: bands}, nil
}

// Write persists the stack as a float32 GeoTIFF with band descriptions.
func (s *Stack) Write(path string) error {
	return raster.WriteGeoTIFF(path, s.Spec, s.Names, s.Bands)
}

func extraLayers(layers engine.LayerSet, names []string) []string {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var extra []string
	for name := range layers {
		if !wanted[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return extra
}
