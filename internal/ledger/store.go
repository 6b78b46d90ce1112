// Package ledger keeps the shared contract ledger: a header row followed by one row per contract.
package ledger

import "context"

// Store is a row-oriented tabular store addressed by 1-based row and column.
// Row 1 is the header; data rows start at row 2.
type Store interface {
	// Header returns the current header row.
	Header(ctx context.Context) ([]string, error)
	// Rows returns every data row in sheet order. rows[i] lives at sheet row i+2.
	Rows(ctx context.Context) ([][]string, error)
	// AppendRow writes values after the last row and returns its 1-based row index.
	AppendRow(ctx context.Context, values []string) (int, error)
	// UpdateCell overwrites a single cell.
	UpdateCell(ctx context.Context, row, col int, value string) error
}

// FirstDataRow is the sheet row of the first contract.
const FirstDataRow = 2
