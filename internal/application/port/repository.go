package port

import (
	"context"
	"errors"

	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

// ErrRevisionConflict is returned by DocumentRepository.Update when the
// document was modified concurrently (stored revision no longer matches).
var ErrRevisionConflict = errors.New("document revision conflict")

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Kind         string
	Status       string
	Entity       string
	Counterparty string
	Limit        int
	Offset       int
}

// DocumentRepository defines persistence operations for FinancialDocument.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.FinancialDocument) error

	// GetByID returns nil, nil when no document matches.
	GetByID(ctx context.Context, id string) (*entity.FinancialDocument, error)

	// Update persists the document with an optimistic revision
	// check-and-increment; a stale revision yields ErrRevisionConflict.
	Update(ctx context.Context, doc *entity.FinancialDocument) error

	List(ctx context.Context, filter DocumentFilter) ([]*entity.FinancialDocument, error)
}

// AuditRepository defines the append-only audit log. Events are never
// updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, event *entity.AuditEvent) error
	ListByDocumentID(ctx context.Context, documentID string) ([]*entity.AuditEvent, error)
}

// TransactionManager executes a function within a database transaction.
// Repository calls made with the returned context join that transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
