// Package xlsxstore keeps the ledger in an .xlsx workbook on disk.
package xlsxstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Store reopens the workbook on every call so edits made by other tools are picked up.
// The mutex only keeps this process from interleaving its own read-modify-save cycles.
type Store struct {
	path   string
	sheet  string
	logger *slog.Logger
	mu     sync.Mutex
}

// Open returns a Store for path. When the file does not exist and header is non-empty,
// a workbook with that header row is created.
func Open(path, sheet string, header []string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	s := &Store{path: path, sheet: sheet, logger: logger}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if len(header) == 0 {
			return nil, fmt.Errorf("ledger workbook %q does not exist", path)
		}
		if err := s.create(header); err != nil {
			return nil, err
		}
		logger.Info("ledger.xlsx.created", "path", path, "sheet", sheet, "columns", len(header))
	} else if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) create(header []string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if s.sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", s.sheet); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(s.sheet, "A1", &header); err != nil {
		return err
	}
	return f.SaveAs(s.path)
}

func (s *Store) Header(ctx context.Context) ([]string, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *Store) Rows(ctx context.Context) ([][]string, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func (s *Store) AppendRow(ctx context.Context, values []string) (int, error) {
	var row int
	err := s.modify(ctx, func(f *excelize.File) error {
		rows, err := f.GetRows(s.sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return err
		}
		row = len(rows) + 1
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(s.sheet, cell, &values)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("ledger.xlsx.append", "path", s.path, "row", row)
	return row, nil
}

func (s *Store) UpdateCell(ctx context.Context, row, col int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return s.modify(ctx, func(f *excelize.File) error {
		return f.SetCellValue(s.sheet, cell, value)
	})
}

func (s *Store) readAll(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	// Raw values keep date cells as serials instead of locale-formatted text.
	rows, err := f.GetRows(s.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", s.sheet, err)
	}
	return rows, nil
}

func (s *Store) modify(ctx context.Context, fn func(f *excelize.File) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := fn(f); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
