package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PGStore bulk-loads pixel tables into one Postgres table, one column
// per band.
type PGStore struct {
	pool  Pool
	table string
}

func NewPGStore(pool Pool, table string) *PGStore {
	return &PGStore{pool: pool, table: table}
}

// EnsureTable creates the target table if needed, with fixed position
// columns and one double precision column per band name.
func (s *PGStore) EnsureTable(ctx context.Context, bandNames []string) error {
	cols := []string{
		`"row" integer NOT NULL`,
		`"col" integer NOT NULL`,
		`lon double precision NOT NULL`,
		`lat double precision NOT NULL`,
	}
	for _, name := range bandNames {
		cols = append(cols, pgx.Identifier{name}.Sanitize()+" double precision")
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pgx.Identifier{s.table}.Sanitize(), strings.Join(cols, ", "))

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return eris.Wrapf(err, "dataset: create table %s", s.table)
	}
	return nil
}

// Insert bulk-copies the table rows and returns the inserted count.
func (s *PGStore) Insert(ctx context.Context, t *PixelTable) (int64, error) {
	columns := append([]string{"row", "col", "lon", "lat"}, t.Names...)

	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		rec := make([]any, 0, len(columns))
		rec = append(rec, r.Row, r.Col, r.Lon, r.Lat)
		for _, v := range r.Values {
			rec = append(rec, v)
		}
		rows[i] = rec
	}

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{s.table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "dataset: copy into %s", s.table)
	}
	zap.L().Info("dataset: rows inserted",
		zap.String("table", s.table),
		zap.Int64("rows", n))
	return n, nil
}
