package dataset

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
)

// WriteCSV streams the table as CSV with the header
// row,col,lon,lat,<band names in order>.
func WriteCSV(w io.Writer, t *PixelTable) error {
	cw := csv.NewWriter(w)

	header := append([]string{"row", "col", "lon", "lat"}, t.Names...)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "dataset: write csv header")
	}

	rec := make([]string, len(header))
	for _, row := range t.Rows {
		rec[0] = strconv.Itoa(row.Row)
		rec[1] = strconv.Itoa(row.Col)
		rec[2] = strconv.FormatFloat(row.Lon, 'g', -1, 64)
		rec[3] = strconv.FormatFloat(row.Lat, 'g', -1, 64)
		for i, v := range row.Values {
			rec[4+i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "dataset: write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "dataset: flush csv")
}
