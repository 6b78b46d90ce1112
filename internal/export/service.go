package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/ledger"
)

// RowLister is the slice of the ledger service the exporter reads from.
type RowLister interface {
	ListActive(ctx context.Context, person string) ([]ledger.Row, error)
}

// Service produces XLSX bytes for a salesperson's contracts.
type Service struct {
	ledger RowLister
	logger *slog.Logger
}

func NewService(l RowLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: l, logger: logger}
}

// ExportContractsXLSX returns a workbook with the person's non-cancelled contracts.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// Rows with an unreadable date are kept only when no window is given.
func (s *Service) ExportContractsXLSX(ctx context.Context, person string, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := dateOnly(*from)
		fromDate = &f
	}
	if to != nil {
		t := dateOnly(*to)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		t := dateOnly(time.Now())
		toDate = &t
	}

	rows, err := s.ledger.ListActive(ctx, person)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	rows = filterByDate(rows, fromDate, toDate)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	const sheet = "Contracts"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := append([]string{"행"}, constants.LedgerColumns...)
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, err
	}

	for i, r := range rows {
		values := make([]any, 0, len(headers))
		values = append(values, r.Index)
		for _, col := range constants.LedgerColumns {
			values = append(values, r.Field(col))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 6)  // row
	_ = f.SetColWidth(sheet, "B", "E", 16) // person..channel
	_ = f.SetColWidth(sheet, "F", "F", 12) // date

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"salesperson", person,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func filterByDate(rows []ledger.Row, from, to *time.Time) []ledger.Row {
	if from == nil && to == nil {
		return rows
	}
	out := rows[:0:0]
	for _, r := range rows {
		if r.Date.IsZero() {
			continue
		}
		d := dateOnly(r.Date)
		if from != nil && d.Before(*from) {
			continue
		}
		if to != nil && d.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out
}
