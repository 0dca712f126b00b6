package catalog

import (
	"context"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/raster"
)

// Dataset-level GDAL metadata keys the scanner understands.
const (
	metaAcquiredAt = "ACQUIRED_AT"
	metaCloudCover = "CLOUD_COVER"
)

// Scan walks a directory tree, reads the header of every GeoTIFF and
// upserts it into the index under the given kind. Acquisition time and
// cloud cover come from dataset metadata; files without them are still
// indexed (with zero time / unknown cloud cover) and a warning is logged,
// since tiled sources like DEMs legitimately carry neither.
func Scan(ctx context.Context, ix *Index, kind, dir string) (int, error) {
	log := zap.L().With(zap.String("component", "catalog.scan"), zap.String("kind", kind))

	var indexed int
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isGeoTIFF(path) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		hdr, err := raster.ReadHeader(path)
		if err != nil {
			return eris.Wrapf(err, "catalog: scan %s", path)
		}

		rec := SceneRecord{
			ID:         filepath.Base(path),
			Kind:       kind,
			Path:       path,
			CloudCover: -1,
			Bounds:     hdr.Spec.Bounds(),
		}
		if raw, ok := hdr.Metadata[metaAcquiredAt]; ok {
			t, parseErr := parseAcquiredAt(raw)
			if parseErr != nil {
				log.Warn("unparseable acquisition time", zap.String("path", path), zap.String("value", raw))
			} else {
				rec.AcquiredAt = t
			}
		} else {
			log.Warn("scene has no acquisition time metadata", zap.String("path", path))
		}
		if raw, ok := hdr.Metadata[metaCloudCover]; ok {
			if cc, parseErr := strconv.ParseFloat(raw, 64); parseErr == nil {
				rec.CloudCover = cc
			} else {
				log.Warn("unparseable cloud cover", zap.String("path", path), zap.String("value", raw))
			}
		}

		if err := ix.Upsert(ctx, rec); err != nil {
			return err
		}
		indexed++
		return nil
	})
	if err != nil {
		return indexed, eris.Wrapf(err, "catalog: scan %s", dir)
	}

	log.Info("directory indexed", zap.String("dir", dir), zap.Int("files", indexed))
	return indexed, nil
}

func isGeoTIFF(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return true
	default:
		return false
	}
}

func parseAcquiredAt(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("catalog: unrecognized time %q", raw)
}
