package dataset

import (
	"math"

	"go.uber.org/zap"
)

// PixelRow is one jointly valid pixel with its map position and the
// per-band values in band order.
type PixelRow struct {
	Row, Col int
	Lon, Lat float64
	Values   []float64
}

// PixelTable is the tabular view of a raster: one row per pixel that is
// finite in every band.
type PixelTable struct {
	Names []string
	Rows  []PixelRow
}

// Tabulate emits one row per pixel whose value is finite in all bands,
// with coordinates at the pixel center, and records the coverage
// diagnostics on info.
func Tabulate(r *Raster, info *LoadInfo) *PixelTable {
	total := r.Spec.Width * r.Spec.Height
	t := &PixelTable{Names: append([]string(nil), r.Names...)}

	for row := 0; row < r.Spec.Height; row++ {
		for col := 0; col < r.Spec.Width; col++ {
			idx := row*r.Spec.Width + col
			valid := true
			for _, b := range r.Bands {
				v := b.Data[idx]
				if math.IsNaN(v) || math.IsInf(v, 0) {
					valid = false
					break
				}
			}
			if !valid {
				continue
			}
			vals := make([]float64, len(r.Bands))
			for i, b := range r.Bands {
				vals[i] = b.Data[idx]
			}
			lon, lat := r.Spec.PixelCenter(row, col)
			t.Rows = append(t.Rows, PixelRow{Row: row, Col: col, Lon: lon, Lat: lat, Values: vals})
		}
	}

	if info != nil {
		info.NValid = len(t.Rows)
		info.NTotal = total
		if total > 0 {
			info.CoveragePct = 100 * float64(len(t.Rows)) / float64(total)
		}
	}
	zap.L().Info("dataset: tabulated pixels",
		zap.Int("valid", len(t.Rows)),
		zap.Int("total", total))
	return t
}
