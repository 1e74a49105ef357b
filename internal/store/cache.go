package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pedidotrack.io/tracker/internal/pkg/logger"
)

// CachedStore decorates a Store with a bounded-TTL read cache.
//
// Any successful write invalidates the cache synchronously, so a stale read
// after a write is impossible through this decorator. Failed writes leave the
// cache alone for single cells (the write did not apply) but batch failures
// also invalidate: the backend gives no partial-failure detail, so the cached
// view can no longer be trusted.
type CachedStore struct {
	inner Store
	ttl   time.Duration
	clock func() time.Time

	mu        sync.Mutex
	rows      [][]string
	header    []string
	fetchedAt time.Time
	valid     bool
}

var (
	_ Store       = (*CachedStore)(nil)
	_ Invalidator = (*CachedStore)(nil)
)

// NewCachedStore wraps inner with a TTL cache.
func NewCachedStore(inner Store, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &CachedStore{
		inner: inner,
		ttl:   ttl,
		clock: time.Now,
	}
}

// WithClock overrides the time source (tests).
func (c *CachedStore) WithClock(clock func() time.Time) *CachedStore {
	c.clock = clock
	return c
}

// FetchAll serves the cached snapshot while it is fresh, otherwise reads
// through. A failed read-through keeps the previous snapshot invalidated so
// the next call retries the backend.
func (c *CachedStore) FetchAll(ctx context.Context) ([][]string, []string, error) {
	c.mu.Lock()
	if c.valid && c.clock().Sub(c.fetchedAt) < c.ttl {
		rows, header := c.rows, c.header
		c.mu.Unlock()
		return rows, header, nil
	}
	c.mu.Unlock()

	rows, header, err := c.inner.FetchAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	c.rows = rows
	c.header = header
	c.fetchedAt = c.clock()
	c.valid = true
	c.mu.Unlock()

	return rows, header, nil
}

// WriteCell writes through and invalidates the cache on success.
func (c *CachedStore) WriteCell(ctx context.Context, row int, column, value string) error {
	if err := c.inner.WriteCell(ctx, row, column, value); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// WriteBatch writes through. The cache is invalidated on success and on
// failure: a reported batch failure means the backend state is unknown.
func (c *CachedStore) WriteBatch(ctx context.Context, writes []CellWrite) error {
	if len(writes) == 0 {
		return nil
	}
	err := c.inner.WriteBatch(ctx, writes)
	c.Invalidate()
	return err
}

// Invalidate drops the cached snapshot.
func (c *CachedStore) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
	logger.Debug("sheet cache invalidated", zap.Duration("ttl", c.ttl))
}
