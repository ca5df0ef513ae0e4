package port

import (
	"context"

	"github.com/hypervisual/finance-workflow/internal/ingest"
)

// DocumentSource is the external graph-based record store documents are
// ingested from. It returns opaque property bags of unspecified but stable
// shape per document kind; callers must tolerate unavailability.
type DocumentSource interface {
	Query(ctx context.Context, kind string) ([]ingest.RecordBag, error)
}
