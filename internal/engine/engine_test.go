package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pedidotrack.io/tracker/internal/domain"
	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
	"pedidotrack.io/tracker/internal/pkg/logger"
	"pedidotrack.io/tracker/internal/store"
)

func init() {
	_ = logger.Init("error", "json")
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newEngineFixture(t *testing.T) (*Engine, *store.MockStore) {
	t.Helper()
	mock := store.NewMockStore(domain.ExpectedColumns(), [][]string{
		make([]string, len(domain.ExpectedColumns())),
		make([]string, len(domain.ExpectedColumns())),
		make([]string, len(domain.ExpectedColumns())),
	})
	e := New(mock, nil, time.UTC, time.Hour).WithClock(func() time.Time { return fixedNow })
	return e, mock
}

func pendingOrder(row int) *domain.Order {
	reg := fixedNow.Add(-10 * time.Minute)
	return &domain.Order{
		ID:           "P-1",
		Status:       domain.StatusPending,
		RegisteredAt: &reg,
		SourceRow:    row,
	}
}

func TestMarkProcessing(t *testing.T) {
	e, mock := newEngineFixture(t)
	o := pendingOrder(2)

	require.NoError(t, e.MarkProcessing(context.Background(), o, "lucia"))
	require.Equal(t, domain.StatusInProgress, o.Status)
	require.NotNil(t, o.ProcessedAt)
	require.Equal(t, string(domain.StatusInProgress), mock.Cell(2, domain.ColStatus))
	require.Equal(t, "2026-03-01 12:00:00", mock.Cell(2, domain.ColProcessedAt))
}

func TestMarkProcessing_FromDelayed(t *testing.T) {
	e, _ := newEngineFixture(t)
	o := pendingOrder(2)
	o.Status = domain.StatusDelayed

	require.NoError(t, e.MarkProcessing(context.Background(), o, "lucia"))
	require.Equal(t, domain.StatusInProgress, o.Status)
}

func TestMarkProcessing_RejectedFromCompleted(t *testing.T) {
	e, mock := newEngineFixture(t)
	o := pendingOrder(2)
	o.Status = domain.StatusCompleted

	err := e.MarkProcessing(context.Background(), o, "lucia")
	require.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	require.Empty(t, mock.Batches, "no write for a rejected transition")
}

func TestMarkCompleted_SetsCompletedAtOnce(t *testing.T) {
	e, mock := newEngineFixture(t)
	o := pendingOrder(2)
	o.Status = domain.StatusInProgress

	require.NoError(t, e.MarkCompleted(context.Background(), o, "lucia"))
	require.Equal(t, domain.StatusCompleted, o.Status)
	require.NotNil(t, o.CompletedAt)
	require.Equal(t, "2026-03-01 12:00:00", mock.Cell(2, domain.ColCompletedAt))

	// Completed is terminal: completing again is rejected, not re-stamped.
	err := e.MarkCompleted(context.Background(), o, "lucia")
	require.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
}

func TestMarkCompleted_FailedBatchLeavesOrderUntouched(t *testing.T) {
	e, mock := newEngineFixture(t)
	mock.BatchErr = apperrors.ErrPartialBatchUncertainf(errors.New("500"), 2)
	o := pendingOrder(2)

	err := e.MarkCompleted(context.Background(), o, "lucia")
	require.Error(t, err)
	require.Equal(t, domain.StatusPending, o.Status,
		"a write reported failed must never be reflected in memory")
	require.Nil(t, o.CompletedAt)
}

func TestMarkCleared(t *testing.T) {
	e, mock := newEngineFixture(t)
	o := pendingOrder(3)
	o.Status = domain.StatusCompleted

	require.NoError(t, e.MarkCleared(context.Background(), o, "lucia"))
	require.True(t, o.Cleared)
	require.Equal(t, "TRUE", mock.Cell(3, domain.ColCleared))

	// Idempotent: clearing again issues no write.
	writes := len(mock.CellWrites)
	require.NoError(t, e.MarkCleared(context.Background(), o, "lucia"))
	require.Len(t, mock.CellWrites, writes)
}

func TestMarkCleared_RequiresCompleted(t *testing.T) {
	e, _ := newEngineFixture(t)
	o := pendingOrder(2)

	err := e.MarkCleared(context.Background(), o, "lucia")
	require.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	require.False(t, o.Cleared)
}

func TestConfirmModification_Idempotent(t *testing.T) {
	e, mock := newEngineFixture(t)
	o := pendingOrder(2)
	o.FulfillmentNote = "add two boxes"

	require.NoError(t, e.ConfirmModification(context.Background(), o, "lucia"))
	require.True(t, o.ModificationConfirmed)
	require.Equal(t, "add two boxes"+domain.ConfirmedMarker, mock.Cell(2, domain.ColFulfillmentNote))
	require.Len(t, mock.CellWrites, 1)

	// Second confirmation is a no-op: no write issued.
	require.NoError(t, e.ConfirmModification(context.Background(), o, "lucia"))
	require.Len(t, mock.CellWrites, 1)
}

func TestConfirmModification_EmptyNoteIsNoop(t *testing.T) {
	e, mock := newEngineFixture(t)
	o := pendingOrder(2)

	require.NoError(t, e.ConfirmModification(context.Background(), o, "lucia"))
	require.False(t, o.ModificationConfirmed)
	require.Empty(t, mock.CellWrites)
}

func TestConfirmModification_FailedWriteNotReflected(t *testing.T) {
	e, mock := newEngineFixture(t)
	mock.WriteErr = apperrors.ErrBackendUnavailablef(errors.New("timeout"))
	o := pendingOrder(2)
	o.FulfillmentNote = "swap crate"

	require.Error(t, e.ConfirmModification(context.Background(), o, "lucia"))
	require.False(t, o.ModificationConfirmed)
}

func TestSetDeliveryDate(t *testing.T) {
	e, mock := newEngineFixture(t)
	o := pendingOrder(2)
	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, e.SetDeliveryDate(context.Background(), o, &date))
	require.Equal(t, "2026-03-05", mock.Cell(2, domain.ColDeliveryDate))
	require.Equal(t, date, *o.DeliveryDate)
}

func TestSetDeliveryDate_FrozenAfterCompletion(t *testing.T) {
	e, _ := newEngineFixture(t)
	o := pendingOrder(2)
	o.Status = domain.StatusCompleted
	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	err := e.SetDeliveryDate(context.Background(), o, &date)
	require.True(t, apperrors.HasCode(err, apperrors.CodeOrderCompleted))
	require.Nil(t, o.DeliveryDate)
}

func TestEngine_DispatchesEvents(t *testing.T) {
	mock := store.NewMockStore(domain.ExpectedColumns(), [][]string{
		make([]string, len(domain.ExpectedColumns())),
	})
	dispatcher := domain.NewEventDispatcher()
	var got []domain.EventType
	record := func(ctx context.Context, ev *domain.DomainEvent) error {
		got = append(got, ev.EventType)
		return nil
	}
	dispatcher.Register(domain.EventOrderProcessing, record)
	dispatcher.Register(domain.EventOrderCompleted, record)

	e := New(mock, dispatcher, time.UTC, time.Hour).WithClock(func() time.Time { return fixedNow })
	o := pendingOrder(2)

	require.NoError(t, e.MarkProcessing(context.Background(), o, "lucia"))
	require.NoError(t, e.MarkCompleted(context.Background(), o, "lucia"))
	require.Equal(t, []domain.EventType{domain.EventOrderProcessing, domain.EventOrderCompleted}, got)
}
