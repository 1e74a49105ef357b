package store

import (
	"context"
	"fmt"
	"sync"

	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
)

// MockStore implements Store in memory for testing without a spreadsheet.
type MockStore struct {
	mu     sync.Mutex
	header []string
	rows   [][]string

	// Failure injection.
	FetchErr error
	WriteErr error
	BatchErr error

	// Call records.
	FetchCalls int
	CellWrites []CellWrite
	Batches    [][]CellWrite
}

var _ Store = (*MockStore)(nil)

// NewMockStore creates a mock with the given header and data rows.
func NewMockStore(header []string, rows [][]string) *MockStore {
	return &MockStore{header: header, rows: rows}
}

// Seed replaces the mock's data.
func (m *MockStore) Seed(header []string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.header = header
	m.rows = rows
}

// Rows returns a copy of the current data rows.
func (m *MockStore) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Cell returns the value at a 1-based sheet row and named column.
func (m *MockStore) Cell(row int, column string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.columnIndexLocked(column)
	if !ok {
		return ""
	}
	r := row - 2 // sheet row 1 is the header
	if r < 0 || r >= len(m.rows) || idx >= len(m.rows[r]) {
		return ""
	}
	return m.rows[r][idx]
}

func (m *MockStore) FetchAll(_ context.Context) ([][]string, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls++
	if m.FetchErr != nil {
		return nil, nil, m.FetchErr
	}
	rows := make([][]string, len(m.rows))
	for i, r := range m.rows {
		rows[i] = append([]string(nil), r...)
	}
	return rows, append([]string(nil), m.header...), nil
}

func (m *MockStore) WriteCell(_ context.Context, row int, column, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if err := m.applyLocked(CellWrite{Row: row, Column: column, Value: value}); err != nil {
		return err
	}
	m.CellWrites = append(m.CellWrites, CellWrite{Row: row, Column: column, Value: value})
	return nil
}

func (m *MockStore) WriteBatch(_ context.Context, writes []CellWrite) error {
	if len(writes) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BatchErr != nil {
		return m.BatchErr
	}
	for _, w := range writes {
		if _, ok := m.columnIndexLocked(w.Column); !ok {
			return apperrors.ErrColumnNotFoundf(w.Column)
		}
	}
	for _, w := range writes {
		if err := m.applyLocked(w); err != nil {
			return err
		}
	}
	m.Batches = append(m.Batches, append([]CellWrite(nil), writes...))
	return nil
}

func (m *MockStore) applyLocked(w CellWrite) error {
	idx, ok := m.columnIndexLocked(w.Column)
	if !ok {
		return apperrors.ErrColumnNotFoundf(w.Column)
	}
	r := w.Row - 2
	if r < 0 || r >= len(m.rows) {
		return apperrors.ErrBackendUnavailablef(fmt.Errorf("row %d out of range", w.Row))
	}
	for len(m.rows[r]) <= idx {
		m.rows[r] = append(m.rows[r], "")
	}
	m.rows[r][idx] = w.Value
	return nil
}

func (m *MockStore) columnIndexLocked(column string) (int, bool) {
	for i, h := range m.header {
		if h == column {
			return i, true
		}
	}
	return 0, false
}
