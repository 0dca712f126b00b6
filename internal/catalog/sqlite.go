package catalog

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/uhi-cli/internal/raster"
)

// Kinds of indexed rasters.
const (
	KindLandsat  = "landsat"
	KindSentinel = "sentinel"
	KindDEM      = "dem"
)

// SceneRecord is one indexed raster file.
type SceneRecord struct {
	ID         string
	Kind       string
	Path       string
	AcquiredAt time.Time
	CloudCover float64
	Bounds     [4]float64
}

// Index is a sqlite-backed registry of scene files. It stores metadata
// only; pixel data stays on disk until a source loads it.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (or creates) the scene index at the given path.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open index")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "catalog: exec %s", pragma)
		}
	}
	return &Index{db: db}, nil
}

const indexMigration = `
CREATE TABLE IF NOT EXISTS scenes (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	path        TEXT NOT NULL,
	acquired_at DATETIME,
	cloud_cover REAL NOT NULL DEFAULT -1,
	min_x       REAL NOT NULL,
	min_y       REAL NOT NULL,
	max_x       REAL NOT NULL,
	max_y       REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scenes_kind ON scenes(kind);
CREATE INDEX IF NOT EXISTS idx_scenes_acquired_at ON scenes(acquired_at);
`

// Migrate creates the index schema.
func (ix *Index) Migrate(ctx context.Context) error {
	_, err := ix.db.ExecContext(ctx, indexMigration)
	return eris.Wrap(err, "catalog: migrate index")
}

// Close releases the underlying database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Upsert inserts or replaces one scene record.
func (ix *Index) Upsert(ctx context.Context, rec SceneRecord) error {
	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO scenes (id, kind, path, acquired_at, cloud_cover, min_x, min_y, max_x, max_y)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			kind = excluded.kind,
			path = excluded.path,
			acquired_at = excluded.acquired_at,
			cloud_cover = excluded.cloud_cover,
			min_x = excluded.min_x,
			min_y = excluded.min_y,
			max_x = excluded.max_x,
			max_y = excluded.max_y`,
		rec.ID, rec.Kind, rec.Path, rec.AcquiredAt.UTC(), rec.CloudCover,
		rec.Bounds[0], rec.Bounds[1], rec.Bounds[2], rec.Bounds[3],
	)
	return eris.Wrapf(err, "catalog: upsert scene %s", rec.ID)
}

// Query returns records of one kind passing the filter. Bounds and cloud
// cover are pushed into SQL; month windows are matched in Go because they
// are a cross-year disjunction that SQL expresses poorly.
func (ix *Index) Query(ctx context.Context, kind string, f Filter) ([]SceneRecord, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT id, kind, path, acquired_at, cloud_cover, min_x, min_y, max_x, max_y
		FROM scenes
		WHERE kind = ?
		  AND max_x >= ? AND min_x <= ?
		  AND max_y >= ? AND min_y <= ?
		ORDER BY acquired_at`,
		kind, f.Bounds[0], f.Bounds[2], f.Bounds[1], f.Bounds[3],
	)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: query scenes")
	}
	defer rows.Close()

	var recs []SceneRecord
	for rows.Next() {
		var rec SceneRecord
		var acquired sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Path, &acquired, &rec.CloudCover,
			&rec.Bounds[0], &rec.Bounds[1], &rec.Bounds[2], &rec.Bounds[3]); err != nil {
			return nil, eris.Wrap(err, "catalog: scan scene row")
		}
		if acquired.Valid {
			rec.AcquiredAt = acquired.Time
		}
		if !f.Matches(rec.AcquiredAt, rec.CloudCover) {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "catalog: iterate scene rows")
}

// Count returns the number of indexed records of one kind ("" = all).
func (ix *Index) Count(ctx context.Context, kind string) (int, error) {
	query := `SELECT COUNT(*) FROM scenes`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	var n int
	if err := ix.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "catalog: count scenes")
	}
	return n, nil
}

// IndexedScenes is a SceneSource over one kind of indexed file. Band grids
// are loaded from disk per query, named by the file's band descriptions.
type IndexedScenes struct {
	Index *Index
	Kind  string
}

// Scenes implements SceneSource.
func (s *IndexedScenes) Scenes(ctx context.Context, f Filter) ([]Scene, error) {
	recs, err := s.Index.Query(ctx, s.Kind, f)
	if err != nil {
		return nil, err
	}

	scenes := make([]Scene, 0, len(recs))
	for _, rec := range recs {
		cube, err := raster.ReadGeoTIFF(rec.Path)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: load scene %s", rec.ID)
		}
		scenes = append(scenes, Scene{
			ID:         rec.ID,
			AcquiredAt: rec.AcquiredAt,
			CloudCover: rec.CloudCover,
			Bands:      cubeBands(cube),
		})
	}
	return scenes, nil
}

// IndexedTiles is a TileSource over one kind of indexed file. Only the
// first band of each tile is read.
type IndexedTiles struct {
	Index *Index
	Kind  string
}

// Tiles implements TileSource.
func (s *IndexedTiles) Tiles(ctx context.Context, bounds [4]float64) ([]*raster.Grid, error) {
	recs, err := s.Index.Query(ctx, s.Kind, Filter{Bounds: bounds, MaxCloudCover: -1})
	if err != nil {
		return nil, err
	}

	tiles := make([]*raster.Grid, 0, len(recs))
	for _, rec := range recs {
		cube, err := raster.ReadGeoTIFF(rec.Path)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: load tile %s", rec.ID)
		}
		if len(cube.Bands) == 0 {
			continue
		}
		grid, err := raster.NewGridFrom(cube.Spec, cube.Bands[0])
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: tile %s", rec.ID)
		}
		tiles = append(tiles, grid)
	}
	return tiles, nil
}

// cubeBands splits a cube into named grids. Bands without a description
// get positional names ("B1", "B2", ...).
func cubeBands(cube *raster.Cube) map[string]*raster.Grid {
	bands := make(map[string]*raster.Grid, len(cube.Bands))
	for i, data := range cube.Bands {
		name := cube.Descriptions[i]
		if name == "" {
			name = positionalBandName(i)
		}
		grid, err := raster.NewGridFrom(cube.Spec, data)
		if err != nil {
			continue
		}
		bands[name] = grid
	}
	return bands
}

func positionalBandName(i int) string {
	return "B" + strconv.Itoa(i+1)
}
