package service

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"pedidotrack.io/tracker/internal/blob"
	"pedidotrack.io/tracker/internal/domain"
	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
	"pedidotrack.io/tracker/internal/pkg/logger"
	"pedidotrack.io/tracker/internal/pkg/worker"
)

// AttachmentService locates, lists, and uploads order files.
type AttachmentService struct {
	resolver *blob.Resolver
	store    blob.ObjectStore
	basePath string
	orders   *OrderService
	pool     *worker.Pool
}

// NewAttachmentService creates an AttachmentService. basePath is the prefix
// used when constructing a folder for an order with no resolvable one. pool
// (optional) bounds concurrent object-store work service-wide.
func NewAttachmentService(resolver *blob.Resolver, store blob.ObjectStore, basePath string, orders *OrderService, pool *worker.Pool) *AttachmentService {
	return &AttachmentService{
		resolver: resolver,
		store:    store,
		basePath: basePath,
		orders:   orders,
		pool:     pool,
	}
}

// runBlob executes fn, routed through the blob worker pool when one is
// configured so slow listings cannot exhaust request goroutines.
func (s *AttachmentService) runBlob(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	done := make(chan error, 1)
	if err := s.pool.Submit(ctx, func(ctx context.Context) {
		done <- fn(ctx)
	}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListForOrder resolves the order's prefix, lists the files under it, and
// cross-references note mentions. An unresolved prefix is a soft condition:
// the listing is empty (plus any note mentions), never an error.
func (s *AttachmentService) ListForOrder(ctx context.Context, id string) (*AttachmentView, error) {
	o, err := s.orders.Get(id)
	if err != nil {
		return nil, err
	}

	var (
		prefix   string
		resolved bool
		listed   []blob.Attachment
	)
	err = s.runBlob(ctx, func(ctx context.Context) error {
		var err error
		prefix, resolved, err = s.resolver.Resolve(ctx, o.ID)
		if err != nil || !resolved {
			return err
		}
		listed, err = s.resolver.ListFiles(ctx, prefix)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !resolved {
		logger.Debug("attachment prefix unresolved, serving mentions only",
			zap.String("order_id", o.ID),
		)
	}

	mentions := blob.ParseMentions(o.FulfillmentNote)
	files := blob.CrossReference(prefix, listed, mentions)
	for i := range files {
		if files[i].Key != "" {
			files[i].URL = s.store.PublicURL(files[i].Key)
		}
	}

	return &AttachmentView{
		Prefix:   prefix,
		Resolved: resolved,
		Files:    files,
	}, nil
}

// Upload stores a file for the order and records its key on the order row.
// When no prefix resolves, one is constructed under the base path so the next
// resolution finds it directly.
func (s *AttachmentService) Upload(ctx context.Context, id, filename, contentType string, body io.Reader) (*blob.Attachment, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || strings.Contains(filename, "/") {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid attachment filename")
	}

	att, err := s.orders.withOrder(id, func(o *domain.Order) error {
		var key string
		err := s.runBlob(ctx, func(ctx context.Context) error {
			prefix, resolved, err := s.resolver.Resolve(ctx, o.ID)
			if err != nil {
				return err
			}
			if !resolved {
				prefix = s.basePath + o.ID + "/"
			}
			key = prefix + filename
			return s.store.Put(ctx, key, body, contentType)
		})
		if err != nil {
			return err
		}
		return s.orders.engine.AppendAttachment(ctx, o, key)
	})
	if err != nil {
		return nil, err
	}

	key := att.Attachments[len(att.Attachments)-1]
	return &blob.Attachment{
		Name:        filename,
		Key:         key,
		URL:         s.store.PublicURL(key),
		FromListing: true,
	}, nil
}
