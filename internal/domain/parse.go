package domain

import (
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"pedidotrack.io/tracker/internal/pkg/logger"
)

// Expected column headers in the backing sheet. Column order is irrelevant;
// headers are matched by name. Missing columns are synthesized as empty in the
// in-memory view only — the backend schema is never altered.
const (
	ColID               = "ID"
	ColInvoiceFolio     = "Invoice Folio"
	ColRegisteredAt     = "Registered At"
	ColRegistrant       = "Registrant"
	ColCustomer         = "Customer"
	ColShipmentType     = "Shipment Type"
	ColDeliveryDate     = "Delivery Date"
	ColShift            = "Shift"
	ColStatus           = "Status"
	ColPaymentStatus    = "Payment Status"
	ColCompletedAt      = "Completed At"
	ColProcessedAt      = "Processed At"
	ColFulfillmentNote  = "Fulfillment Note"
	ColAttachments      = "Attachments"
	ColFulfillmentFiles = "Fulfillment Files"
	ColShippingLabels   = "Shipping Labels"
	ColCleared          = "Cleared"
)

// ExpectedColumns lists every column the tracker reads or writes.
func ExpectedColumns() []string {
	return []string{
		ColID, ColInvoiceFolio, ColRegisteredAt, ColRegistrant, ColCustomer,
		ColShipmentType, ColDeliveryDate, ColShift, ColStatus, ColPaymentStatus,
		ColCompletedAt, ColProcessedAt, ColFulfillmentNote, ColAttachments,
		ColFulfillmentFiles, ColShippingLabels, ColCleared,
	}
}

// Timestamp layouts accepted on read. Writes always use TimestampLayout.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

var readLayouts = []string{
	TimestampLayout,
	time.RFC3339,
	DateLayout,
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// ParseTimestamp parses a stored timestamp into the given civil time zone.
// Malformed values parse to nil ("absent"), never to an error: all date/time
// consumers must treat absent as a valid state.
func ParseTimestamp(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range readLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 {
			// RFC3339 carries its own offset; normalize into the engine zone
			// so staleness comparisons are zone-consistent.
			t, err = time.Parse(layout, raw)
			t = t.In(loc)
		} else {
			t, err = time.ParseInLocation(layout, raw, loc)
		}
		if err == nil {
			return &t
		}
	}
	return nil
}

// FormatTimestamp renders a timestamp for write-back; nil renders empty.
func FormatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(TimestampLayout)
}

// FormatDate renders a date-only value for write-back; nil renders empty.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// RefSeparator joins attachment references on write-back.
const RefSeparator = "; "

// ParseRefs parses an attachment reference cell into a list of object-store
// keys. Accepts both the migrated representation ("; "-joined bare keys) and
// the legacy one (comma-joined full public URLs); URLs are reduced to keys.
func ParseRefs(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	split := func(r rune) bool { return r == ';' || r == ',' }

	var refs []string
	for _, part := range strings.FieldsFunc(cell, split) {
		ref := strings.TrimSpace(part)
		if ref == "" {
			continue
		}
		refs = append(refs, RefToKey(ref))
	}
	return refs
}

// JoinRefs serializes keys for write-back.
func JoinRefs(refs []string) string {
	return strings.Join(refs, RefSeparator)
}

// RefToKey reduces a full public URL to its object-store key. Bare keys pass
// through unchanged.
func RefToKey(ref string) string {
	if !strings.Contains(ref, "://") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return strings.TrimPrefix(u.Path, "/")
}

// ParseRow converts one raw sheet row into an Order.
//
// idx maps column header → zero-based column position in the row; sourceRow is
// the 1-based position of the row in the sheet. Missing cells read as empty,
// malformed cells degrade to defaults, extra columns are ignored. Returns nil
// for rows with no id (blank or padding rows).
func ParseRow(row []string, idx map[string]int, sourceRow int, loc *time.Location) *Order {
	cell := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	id := cell(ColID)
	if id == "" {
		return nil
	}

	o := &Order{
		ID:            id,
		InvoiceFolio:  cell(ColInvoiceFolio),
		Registrant:    cell(ColRegistrant),
		Customer:      cell(ColCustomer),
		PaymentStatus: cell(ColPaymentStatus),
		SourceRow:     sourceRow,
	}

	var ok bool
	if o.Status, ok = ParseStatus(cell(ColStatus)); !ok {
		logger.Warn("malformed status, defaulting to PENDING",
			zap.String("order_id", id),
			zap.String("raw", cell(ColStatus)),
		)
	}
	if o.ShipmentType, ok = ParseShipmentType(cell(ColShipmentType)); !ok {
		logger.Warn("malformed shipment type, defaulting to empty",
			zap.String("order_id", id),
			zap.String("raw", cell(ColShipmentType)),
		)
	}
	o.Shift, _ = ParseShift(cell(ColShift))
	if o.ShipmentType != ShipmentLocal {
		// Shift is only meaningful for local orders.
		o.Shift = ShiftNone
	}

	o.RegisteredAt = ParseTimestamp(cell(ColRegisteredAt), loc)
	o.DeliveryDate = ParseTimestamp(cell(ColDeliveryDate), loc)
	o.CompletedAt = ParseTimestamp(cell(ColCompletedAt), loc)
	o.ProcessedAt = ParseTimestamp(cell(ColProcessedAt), loc)

	note := cell(ColFulfillmentNote)
	o.ModificationConfirmed = NoteConfirmed(note)
	if o.ModificationConfirmed {
		note = strings.TrimRight(note, " ")
		note = strings.TrimSuffix(note, strings.TrimSpace(ConfirmedMarker))
		note = strings.TrimRight(note, " ")
	}
	o.FulfillmentNote = note

	o.Attachments = ParseRefs(cell(ColAttachments))
	o.FulfillmentFiles = ParseRefs(cell(ColFulfillmentFiles))
	o.ShippingLabels = ParseRefs(cell(ColShippingLabels))

	o.Cleared = parseBool(cell(ColCleared))

	return o
}

// ParseRows converts a raw sheet payload (header + data rows) into orders.
// Row 1 is the header; data rows start at sheet row 2.
func ParseRows(rows [][]string, header []string, loc *time.Location) []*Order {
	idx := HeaderIndex(header)
	orders := make([]*Order, 0, len(rows))
	for i, row := range rows {
		if o := ParseRow(row, idx, i+2, loc); o != nil {
			orders = append(orders, o)
		}
	}
	return orders
}

// HeaderIndex maps column headers to zero-based positions. Duplicate headers
// keep the first occurrence.
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

func parseBool(raw string) bool {
	switch strings.ToUpper(raw) {
	case "TRUE", "1", "YES":
		return true
	}
	return false
}
