package errors

import "net/http"

// Error code constants.
// Errors carry code + params; the presentation layer decides how to render them.

// Backend (tabular store) error codes.
const (
	// CodeBackendUnavailable marks a transport or auth failure against the
	// tabular store. Retried once with fresh credentials before surfacing.
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"

	// CodeColumnNotFound marks schema drift: a write targeted a column that is
	// missing from the header snapshot. Never retried.
	CodeColumnNotFound = "COLUMN_NOT_FOUND"

	// CodePartialBatchUncertain marks a failed batch write. The backend gives
	// no partial-failure detail, so the whole batch must be treated as not
	// applied and the cached view re-fetched before the next decision.
	CodePartialBatchUncertain = "PARTIAL_BATCH_UNCERTAIN"
)

// Data-shape error codes.
const (
	// CodeMalformedRow marks an unparseable timestamp or enum in a row.
	// Absorbed locally: the field degrades to its absent/default value.
	CodeMalformedRow = "MALFORMED_ROW"
)

// Attachment error codes.
const (
	// CodeAttachmentUnresolved marks a failed prefix resolution. Soft: callers
	// render an empty attachment list.
	CodeAttachmentUnresolved = "ATTACHMENT_UNRESOLVED"

	CodeAttachmentUploadFail = "ATTACHMENT_UPLOAD_FAILED"
)

// Order error codes.
const (
	CodeOrderNotFound        = "ORDER_NOT_FOUND"
	CodeInvalidTransition    = "INVALID_STATUS_TRANSITION"
	CodeOrderCompleted       = "ORDER_ALREADY_COMPLETED"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
)

// Auth error codes.
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Convenience constructors using predefined codes.

// ErrBackendUnavailablef wraps a transport/auth failure against the tabular store.
func ErrBackendUnavailablef(err error) *AppError {
	return Wrap(err, CodeBackendUnavailable, "tabular store unavailable", http.StatusServiceUnavailable)
}

// ErrColumnNotFoundf creates a schema-drift error for a missing column.
func ErrColumnNotFoundf(column string) *AppError {
	return New(CodeColumnNotFound, "column not present in header", http.StatusInternalServerError).
		WithParams(map[string]interface{}{"column": column})
}

// ErrPartialBatchUncertainf wraps a failed batch write.
func ErrPartialBatchUncertainf(err error, staged int) *AppError {
	return Wrap(err, CodePartialBatchUncertain, "batch write failed, state unknown", http.StatusServiceUnavailable).
		WithParams(map[string]interface{}{"staged_writes": staged})
}

// ErrOrderNotFoundf creates an order not found error.
func ErrOrderNotFoundf(orderID string) *AppError {
	return NotFound(CodeOrderNotFound, "order not found").
		WithParams(map[string]interface{}{"order_id": orderID})
}

// ErrInvalidTransitionf creates an error for a disallowed status transition.
func ErrInvalidTransitionf(from, to string) *AppError {
	return Conflict(CodeInvalidTransition, "status transition not allowed").
		WithParams(map[string]interface{}{"from": from, "to": to})
}
