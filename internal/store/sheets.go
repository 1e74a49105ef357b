package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
	"pedidotrack.io/tracker/internal/pkg/logger"
)

// SheetsConfig configures the Google Sheets adapter.
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	Timeout         time.Duration
}

// SheetsStore implements Store against the Google Sheets API.
//
// It keeps a header snapshot from the last read so single-cell writes can be
// addressed by column name, and rebuilds its service client exactly once on an
// expired-credential signal before surfacing BACKEND_UNAVAILABLE.
type SheetsStore struct {
	cfg SheetsConfig

	mu     sync.Mutex
	svc    *sheets.Service
	header []string
}

var _ Store = (*SheetsStore)(nil)

// NewSheetsStore creates the adapter and establishes the initial API client.
func NewSheetsStore(ctx context.Context, cfg SheetsConfig) (*SheetsStore, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &SheetsStore{cfg: cfg}
	svc, err := s.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect sheets api: %w", err)
	}
	s.svc = svc
	return s, nil
}

func (s *SheetsStore) connect(ctx context.Context) (*sheets.Service, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if s.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.cfg.CredentialsFile))
	}
	return sheets.NewService(ctx, opts...)
}

// reauth rebuilds the service client with fresh credentials.
func (s *SheetsStore) reauth(ctx context.Context) error {
	logger.Warn("sheets credentials rejected, re-authenticating once")
	svc, err := s.connect(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.svc = svc
	s.mu.Unlock()
	return nil
}

func (s *SheetsStore) service() *sheets.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.svc
}

// isAuthError reports whether err looks like an expired-credential signal.
func isAuthError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 401 || apiErr.Code == 403
	}
	return false
}

// FetchAll reads the whole sheet and refreshes the header snapshot.
func (s *SheetsStore) FetchAll(ctx context.Context) ([][]string, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.service().Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.cfg.SheetName).Context(ctx).Do()
	if isAuthError(err) {
		if rerr := s.reauth(ctx); rerr != nil {
			return nil, nil, apperrors.ErrBackendUnavailablef(rerr)
		}
		resp, err = s.service().Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.cfg.SheetName).Context(ctx).Do()
	}
	if err != nil {
		return nil, nil, apperrors.ErrBackendUnavailablef(err)
	}

	if len(resp.Values) == 0 {
		return nil, nil, nil
	}

	header := toStrings(resp.Values[0])
	rows := make([][]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		rows = append(rows, toStrings(raw))
	}

	s.mu.Lock()
	s.header = header
	s.mu.Unlock()

	logger.Debug("sheet fetched",
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(header)),
	)
	return rows, header, nil
}

// WriteCell updates one cell addressed by 1-based row and column header name.
func (s *SheetsStore) WriteCell(ctx context.Context, row int, column, value string) error {
	idx, err := s.columnIndex(ctx, column)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	body := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	rng := cellRange(s.cfg.SheetName, idx, row)

	_, err = s.service().Spreadsheets.Values.
		Update(s.cfg.SpreadsheetID, rng, body).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if isAuthError(err) {
		if rerr := s.reauth(ctx); rerr != nil {
			return apperrors.ErrBackendUnavailablef(rerr)
		}
		_, err = s.service().Spreadsheets.Values.
			Update(s.cfg.SpreadsheetID, rng, body).
			ValueInputOption("RAW").
			Context(ctx).Do()
	}
	if err != nil {
		return apperrors.ErrBackendUnavailablef(err)
	}

	logger.Debug("cell written", zap.String("range", rng))
	return nil
}

// WriteBatch applies all writes in one BatchUpdate call. Column lookups happen
// before anything is sent, so COLUMN_NOT_FOUND aborts with nothing staged
// against the backend.
func (s *SheetsStore) WriteBatch(ctx context.Context, writes []CellWrite) error {
	if len(writes) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(writes))
	for _, w := range writes {
		idx, err := s.columnIndex(ctx, w.Column)
		if err != nil {
			return err
		}
		data = append(data, &sheets.ValueRange{
			Range:  cellRange(s.cfg.SheetName, idx, w.Row),
			Values: [][]interface{}{{w.Value}},
		})
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	body := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}

	_, err := s.service().Spreadsheets.Values.
		BatchUpdate(s.cfg.SpreadsheetID, body).
		Context(ctx).Do()
	if isAuthError(err) {
		if rerr := s.reauth(ctx); rerr != nil {
			return apperrors.ErrPartialBatchUncertainf(rerr, len(writes))
		}
		_, err = s.service().Spreadsheets.Values.
			BatchUpdate(s.cfg.SpreadsheetID, body).
			Context(ctx).Do()
	}
	if err != nil {
		// The backend reports no partial-failure detail; the whole batch is
		// now of unknown state.
		return apperrors.ErrPartialBatchUncertainf(err, len(writes))
	}

	logger.Debug("batch written", zap.Int("cells", len(writes)))
	return nil
}

// columnIndex resolves a column header to its zero-based position using the
// header snapshot, fetching the header row first if no snapshot exists yet.
func (s *SheetsStore) columnIndex(ctx context.Context, column string) (int, error) {
	s.mu.Lock()
	header := s.header
	s.mu.Unlock()

	if header == nil {
		if err := s.fetchHeader(ctx); err != nil {
			return 0, err
		}
		s.mu.Lock()
		header = s.header
		s.mu.Unlock()
	}

	for i, h := range header {
		if h == column {
			return i, nil
		}
	}
	return 0, apperrors.ErrColumnNotFoundf(column)
}

func (s *SheetsStore) fetchHeader(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	rng := fmt.Sprintf("%s!1:1", s.cfg.SheetName)
	resp, err := s.service().Spreadsheets.Values.Get(s.cfg.SpreadsheetID, rng).Context(ctx).Do()
	if isAuthError(err) {
		if rerr := s.reauth(ctx); rerr != nil {
			return apperrors.ErrBackendUnavailablef(rerr)
		}
		resp, err = s.service().Spreadsheets.Values.Get(s.cfg.SpreadsheetID, rng).Context(ctx).Do()
	}
	if err != nil {
		return apperrors.ErrBackendUnavailablef(err)
	}
	if len(resp.Values) == 0 {
		return apperrors.ErrBackendUnavailablef(fmt.Errorf("sheet %q has no header row", s.cfg.SheetName))
	}

	s.mu.Lock()
	s.header = toStrings(resp.Values[0])
	s.mu.Unlock()
	return nil
}

func toStrings(raw []interface{}) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = fmt.Sprint(v)
	}
	return out
}
