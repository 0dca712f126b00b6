package dataset

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gonum.org/v1/gonum/stat"
)

// BandSummary aggregates the valid values of one band.
type BandSummary struct {
	Name   string
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes per-band statistics over the valid pixels.
func Summarize(r *Raster) []BandSummary {
	out := make([]BandSummary, len(r.Bands))
	for i, b := range r.Bands {
		s := BandSummary{Name: r.Names[i]}
		vals := b.ValidValues()
		s.Count = len(vals)
		if len(vals) > 0 {
			s.Mean = stat.Mean(vals, nil)
			s.StdDev = stat.StdDev(vals, nil)
			s.Min, s.Max = vals[0], vals[0]
			for _, v := range vals {
				if v < s.Min {
					s.Min = v
				}
				if v > s.Max {
					s.Max = v
				}
			}
		}
		out[i] = s
	}
	return out
}

// WriteXLSX writes the band summaries as a one-sheet workbook.
func WriteXLSX(path string, summaries []BandSummary) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Band summary")
	if err != nil {
		return eris.Wrap(err, "dataset: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"band", "count", "mean", "stddev", "min", "max"} {
		header.AddCell().Value = h
	}
	for _, s := range summaries {
		row := sheet.AddRow()
		row.AddCell().Value = s.Name
		row.AddCell().SetInt(s.Count)
		row.AddCell().SetFloat(s.Mean)
		row.AddCell().SetFloat(s.StdDev)
		row.AddCell().SetFloat(s.Min)
		row.AddCell().SetFloat(s.Max)
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "dataset: save %s", path)
	}
	return nil
}
