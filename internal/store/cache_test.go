package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
	"pedidotrack.io/tracker/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func newCacheFixture(t *testing.T) (*MockStore, *CachedStore, *time.Time) {
	t.Helper()
	inner := NewMockStore(
		[]string{"ID", "Status"},
		[][]string{{"P-1", "PENDING"}, {"P-2", "COMPLETED"}},
	)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cached := NewCachedStore(inner, 60*time.Second).WithClock(func() time.Time { return now })
	return inner, cached, &now
}

func TestCachedStore_ServesWithinTTL(t *testing.T) {
	inner, cached, now := newCacheFixture(t)
	ctx := context.Background()

	_, _, err := cached.FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, inner.FetchCalls)

	*now = now.Add(59 * time.Second)
	rows, header, err := cached.FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, inner.FetchCalls, "second read within TTL must not hit the backend")
	require.Equal(t, []string{"ID", "Status"}, header)
	require.Len(t, rows, 2)
}

func TestCachedStore_ExpiresAfterTTL(t *testing.T) {
	inner, cached, now := newCacheFixture(t)
	ctx := context.Background()

	_, _, err := cached.FetchAll(ctx)
	require.NoError(t, err)

	*now = now.Add(61 * time.Second)
	_, _, err = cached.FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, inner.FetchCalls)
}

func TestCachedStore_WriteCellInvalidates(t *testing.T) {
	inner, cached, _ := newCacheFixture(t)
	ctx := context.Background()

	_, _, err := cached.FetchAll(ctx)
	require.NoError(t, err)

	require.NoError(t, cached.WriteCell(ctx, 2, "Status", "DELAYED"))

	rows, _, err := cached.FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, inner.FetchCalls, "a successful write must force the next read through")
	require.Equal(t, "DELAYED", rows[0][1])
}

func TestCachedStore_FailedWriteCellKeepsCache(t *testing.T) {
	inner, cached, _ := newCacheFixture(t)
	ctx := context.Background()

	_, _, err := cached.FetchAll(ctx)
	require.NoError(t, err)

	inner.WriteErr = apperrors.ErrBackendUnavailablef(errors.New("timeout"))
	require.Error(t, cached.WriteCell(ctx, 2, "Status", "DELAYED"))

	_, _, err = cached.FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, inner.FetchCalls, "a failed single-cell write did not apply; the cache stays valid")
}

func TestCachedStore_FailedBatchInvalidates(t *testing.T) {
	inner, cached, _ := newCacheFixture(t)
	ctx := context.Background()

	_, _, err := cached.FetchAll(ctx)
	require.NoError(t, err)

	inner.BatchErr = apperrors.ErrPartialBatchUncertainf(errors.New("500"), 1)
	err = cached.WriteBatch(ctx, []CellWrite{{Row: 2, Column: "Status", Value: "DELAYED"}})
	require.True(t, apperrors.HasCode(err, apperrors.CodePartialBatchUncertain))

	_, _, err = cached.FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, inner.FetchCalls, "batch state is unknown; the cached view cannot be trusted")
}

func TestCachedStore_EmptyBatchIsNoop(t *testing.T) {
	inner, cached, _ := newCacheFixture(t)
	ctx := context.Background()

	_, _, err := cached.FetchAll(ctx)
	require.NoError(t, err)

	require.NoError(t, cached.WriteBatch(ctx, nil))
	_, _, err = cached.FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, inner.FetchCalls)
}
