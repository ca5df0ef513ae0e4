package service

import (
	"errors"

	"github.com/hypervisual/finance-workflow/internal/ingest"
)

// Engine error taxonomy. Commands return these sentinels (wrapped with
// context) so callers can map them to transport responses; none of them is
// retried automatically.
var (
	// ErrMalformedInput: the raw record is not a valid mapping. Ingestion of
	// that record is skipped and logged, never aborting the batch.
	ErrMalformedInput = ingest.ErrMalformedInput

	// ErrDocumentNotFound: no document with the requested ID.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInsufficientPermission: the actor lacks the role or permission for
	// the requested level. No state change happens.
	ErrInsufficientPermission = errors.New("insufficient permission")

	// ErrInvalidState: the operation is not valid for the current status.
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrAlreadyFinalized: validation requested but no level is pending.
	ErrAlreadyFinalized = errors.New("document already finalized")

	// ErrDuplicateDetected: a probable duplicate needs explicit caller
	// confirmation before the document is accepted.
	ErrDuplicateDetected = errors.New("probable duplicate requires confirmation")

	// ErrIngestionUnavailable: the upstream document source is unreachable;
	// the engine fell back to seed data and flagged the result degraded.
	ErrIngestionUnavailable = errors.New("document source unavailable")

	// ErrAuditWriteFailed: the audit sink rejected the write; the triggering
	// transition is rolled back rather than committed without coverage.
	ErrAuditWriteFailed = errors.New("audit write failed")
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
