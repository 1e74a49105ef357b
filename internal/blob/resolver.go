package blob

import (
	"context"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"pedidotrack.io/tracker/internal/pkg/logger"
)

// Attachment is one file associated with an order, either found under the
// resolved prefix or extracted from a note mention.
type Attachment struct {
	Name         string `json:"name"`
	Key          string `json:"key,omitempty"`
	URL          string `json:"url,omitempty"`
	Size         int64  `json:"size,omitempty"`
	LastModified string `json:"last_modified,omitempty"`

	// FromListing is true when the object store listing vouches for the file.
	// False means the file was only mentioned in a note.
	FromListing bool `json:"from_listing"`
}

// Resolver locates the object-store prefix holding an order's files.
//
// No registry maps order id to prefix; resolution walks a fixed candidate
// list and falls back to a bounded bucket scan. "Not found" is a first-class
// outcome, not an error — callers render an empty attachment list.
type Resolver struct {
	store    ObjectStore
	basePath string
	listCap  int
	scanCap  int
}

// NewResolver creates a resolver.
// basePath is the known prefix order folders usually live under ("orders/").
func NewResolver(store ObjectStore, basePath string, listCap, scanCap int) *Resolver {
	if listCap <= 0 {
		listCap = 100
	}
	if scanCap <= 0 {
		scanCap = 1000
	}
	return &Resolver{
		store:    store,
		basePath: basePath,
		listCap:  listCap,
		scanCap:  scanCap,
	}
}

// Candidates returns the ordered prefix candidates for an order id.
// The strict base-path forms are tried before the loose ones; first match wins.
func (r *Resolver) Candidates(orderID string) []string {
	return []string{
		r.basePath + orderID + "/",
		r.basePath + orderID,
		orderID + "/",
		orderID,
	}
}

// Resolve finds the prefix holding the order's files.
//
// Each candidate is probed with a one-object listing; the first non-empty
// probe wins. If no candidate matches, a bounded full-bucket scan accepts the
// first key that textually contains the id, deriving the prefix from
// everything before the final separator. ok=false means "not found" and is a
// soft condition.
func (r *Resolver) Resolve(ctx context.Context, orderID string) (prefix string, ok bool, err error) {
	if orderID == "" {
		return "", false, nil
	}

	for _, candidate := range r.Candidates(orderID) {
		objs, err := r.store.List(ctx, candidate, 1)
		if err != nil {
			return "", false, err
		}
		if len(objs) > 0 {
			logger.Debug("attachment prefix resolved",
				zap.String("order_id", orderID),
				zap.String("prefix", candidate),
			)
			return candidate, true, nil
		}
	}

	// Bounded fallback scan. Listings beyond the cap are not searched; small
	// per-order attachment counts make this acceptable in practice.
	objs, err := r.store.List(ctx, "", r.scanCap)
	if err != nil {
		return "", false, err
	}
	for _, obj := range objs {
		if !strings.Contains(obj.Key, orderID) {
			continue
		}
		prefix := ""
		if i := strings.LastIndex(obj.Key, "/"); i >= 0 {
			prefix = obj.Key[:i+1]
		}
		logger.Debug("attachment prefix resolved via bucket scan",
			zap.String("order_id", orderID),
			zap.String("prefix", prefix),
		)
		return prefix, true, nil
	}

	return "", false, nil
}

// ListFiles lists the files under a resolved prefix, excluding directory
// markers (keys ending in the separator), capped at the configured page size.
func (r *Resolver) ListFiles(ctx context.Context, prefix string) ([]Attachment, error) {
	objs, err := r.store.List(ctx, prefix, r.listCap)
	if err != nil {
		return nil, err
	}

	files := make([]Attachment, 0, len(objs))
	for _, obj := range objs {
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		att := Attachment{
			Name:        path.Base(obj.Key),
			Key:         obj.Key,
			Size:        obj.Size,
			FromListing: true,
		}
		if !obj.LastModified.IsZero() {
			att.LastModified = obj.LastModified.UTC().Format(time.RFC3339)
		}
		files = append(files, att)
	}
	return files, nil
}

// CrossReference merges note-mentioned filenames into a prefix listing,
// de-duplicating by display name. The listing's authoritative key wins when a
// mention and a listed file share a name; unmatched mentions are appended with
// a constructed key (or none when no prefix was resolved).
func CrossReference(prefix string, listed []Attachment, mentions []string) []Attachment {
	seen := make(map[string]bool, len(listed))
	out := make([]Attachment, 0, len(listed)+len(mentions))
	for _, att := range listed {
		seen[att.Name] = true
		out = append(out, att)
	}
	for _, name := range mentions {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		att := Attachment{Name: name}
		if prefix != "" {
			att.Key = prefix + name
		}
		out = append(out, att)
	}
	return out
}
