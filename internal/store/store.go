// Package store adapts the external tabular store (Google Sheets) that is the
// system of record for orders.
//
// The backend offers per-cell and per-range writes with read-after-write
// visibility but no multi-row atomicity, no row locking, and no push
// notification. All adapters here expose that contract honestly: a failed
// batch gives no partial-success signal, so callers must treat it as "state
// unknown" and re-fetch before trusting any local copy.
package store

import "context"

// CellWrite addresses one cell by 1-based row and column header name.
type CellWrite struct {
	Row    int
	Column string
	Value  string
}

// Store is the tabular store contract.
type Store interface {
	// FetchAll returns every data row (header excluded) plus the header list.
	// Rows are ordered as they appear in the sheet; data rows start at sheet
	// row 2. Fails with a BACKEND_UNAVAILABLE AppError on transport or auth
	// failure after one fresh-credential retry.
	FetchAll(ctx context.Context) (rows [][]string, header []string, err error)

	// WriteCell updates a single cell. Fails with COLUMN_NOT_FOUND if the
	// column is absent from the header snapshot. A failure is non-fatal to
	// callers, but they must not assume the write applied.
	WriteCell(ctx context.Context, row int, column, value string) error

	// WriteBatch applies a list of cell writes. The backend reports only
	// overall success or failure; a failure must be treated as
	// PARTIAL_BATCH_UNCERTAIN (whole batch possibly not applied, re-fetch
	// before trusting local state).
	WriteBatch(ctx context.Context, writes []CellWrite) error
}

// Invalidator is implemented by stores that cache reads.
type Invalidator interface {
	// Invalidate drops any cached snapshot so the next FetchAll hits the
	// backend.
	Invalidate()
}
