// Package sqlstore keeps the ledger as a sparse cell table in postgres or sqlite.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const (
	colRow   = "row_idx"
	colCol   = "col_idx"
	colValue = "value"
)

var reIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store addresses cells by (row, col) like a spreadsheet; row 1 holds the header.
type Store struct {
	drv    *entsql.Driver
	table  string
	logger *slog.Logger
}

// New creates the cell table if needed and seeds the header row when the ledger is empty.
func New(ctx context.Context, drv *entsql.Driver, table string, header []string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !reIdent.MatchString(table) {
		return nil, fmt.Errorf("invalid ledger table name %q", table)
	}
	s := &Store{drv: drv, table: table, logger: logger}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s INTEGER NOT NULL,
	%s INTEGER NOT NULL,
	%s TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (%s, %s)
)`, table, colRow, colCol, colValue, colRow, colCol)
	if err := drv.Exec(ctx, ddl, []any{}, nil); err != nil {
		return nil, fmt.Errorf("create ledger table: %w", err)
	}

	if len(header) > 0 {
		existing, err := s.Header(ctx)
		if err != nil {
			return nil, err
		}
		if len(existing) == 0 {
			if err := s.writeRow(ctx, s.drv, 1, header); err != nil {
				return nil, fmt.Errorf("seed header: %w", err)
			}
			logger.Info("ledger.sql.seeded", "table", table, "columns", len(header))
		}
	}
	return s, nil
}

// Close closes the underlying driver.
func (s *Store) Close() error {
	return s.drv.Close()
}

func (s *Store) Header(ctx context.Context) ([]string, error) {
	rows, err := s.readRows(ctx, entsql.EQ(colRow, 1))
	if err != nil {
		return nil, err
	}
	return rows[1], nil
}

func (s *Store) Rows(ctx context.Context) ([][]string, error) {
	cells, err := s.readRows(ctx, entsql.GTE(colRow, 2))
	if err != nil {
		return nil, err
	}
	last := 1
	for r := range cells {
		if r > last {
			last = r
		}
	}
	out := make([][]string, 0, last-1)
	for r := 2; r <= last; r++ {
		out = append(out, cells[r])
	}
	return out, nil
}

func (s *Store) AppendRow(ctx context.Context, values []string) (int, error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return 0, err
	}
	row, err := s.lastRow(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	row++
	if row < 2 {
		row = 2
	}
	if err := s.writeRow(ctx, tx, row, values); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.logger.Debug("ledger.sql.append", "table", s.table, "row", row)
	return row, nil
}

func (s *Store) UpdateCell(ctx context.Context, row, col int, value string) error {
	return s.upsert(ctx, s.drv, row, col, value)
}

func (s *Store) readRows(ctx context.Context, where *entsql.Predicate) (map[int][]string, error) {
	q, args := entsql.Dialect(s.drv.Dialect()).
		Select(colRow, colCol, colValue).
		From(entsql.Table(s.table)).
		Where(where).
		OrderBy(colRow, colCol).
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]string)
	for rows.Next() {
		var (
			r, c int
			v    string
		)
		if err := rows.Scan(&r, &c, &v); err != nil {
			return nil, err
		}
		rec := out[r]
		for len(rec) < c {
			rec = append(rec, "")
		}
		rec[c-1] = v
		out[r] = rec
	}
	return out, rows.Err()
}

func (s *Store) lastRow(ctx context.Context, conn dialect.ExecQuerier) (int, error) {
	q, args := entsql.Dialect(s.drv.Dialect()).
		Select(entsql.Max(colRow)).
		From(entsql.Table(s.table)).
		Query()

	var rows entsql.Rows
	if err := conn.Query(ctx, q, args, &rows); err != nil {
		return 0, fmt.Errorf("query last row: %w", err)
	}
	defer rows.Close()

	var last sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&last); err != nil {
			return 0, err
		}
	}
	return int(last.Int64), rows.Err()
}

func (s *Store) writeRow(ctx context.Context, conn dialect.ExecQuerier, row int, values []string) error {
	for i, v := range values {
		if err := s.upsert(ctx, conn, row, i+1, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, conn dialect.ExecQuerier, row, col int, value string) error {
	q, args := entsql.Dialect(s.drv.Dialect()).
		Insert(s.table).
		Columns(colRow, colCol, colValue).
		Values(row, col, value).
		OnConflict(
			entsql.ConflictColumns(colRow, colCol),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := conn.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("write cell (%d,%d): %w", row, col, err)
	}
	return nil
}
