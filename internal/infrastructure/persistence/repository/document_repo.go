package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/domain/entity"
	"github.com/hypervisual/finance-workflow/internal/infrastructure/persistence/sqlite"
)

// documentColumns is the canonical column order shared by every SELECT.
var documentColumns = []string{
	"id", "kind", "status", "entity_group", "counterparty",
	"net_amount", "tax_amount", "gross_amount", "currency",
	"category", "subcategory", "description", "document_number",
	"document_date", "due_date", "created_at", "updated_at",
	"submitted_at", "paid_at", "workflow",
	"payment_status", "payment_date", "payment_reference",
	"dispute_reason", "disputed_at", "created_by", "revision",
}

// DocumentRepository implements port.DocumentRepository on SQLite.
// Counterparty and the validation workflow are stored as JSON columns; the
// amounts get their own columns so aggregation queries stay possible.
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{db: db, logger: logger}
}

// Create inserts a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.FinancialDocument) error {
	counterparty, workflow, err := marshalDocumentJSON(doc)
	if err != nil {
		return err
	}

	query, args, err := sq.Insert("documents").
		Columns(documentColumns...).
		Values(
			doc.ID, doc.Kind, doc.Status, doc.Entity, counterparty,
			doc.Amounts.Net, doc.Amounts.Tax, doc.Amounts.Gross, doc.Amounts.Currency,
			doc.Category, doc.Subcategory, doc.Description, doc.DocumentNumber,
			doc.DocumentDate, doc.DueDate, doc.CreatedAt, doc.UpdatedAt,
			doc.SubmittedAt, doc.PaidAt, workflow,
			doc.PaymentStatus, doc.PaymentDate, doc.PaymentReference,
			doc.DisputeReason, doc.DisputedAt, doc.CreatedBy, doc.Revision,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := r.getExecutor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create document", zap.String("id", doc.ID), zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetByID retrieves a document by ID, returning nil, nil when absent.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*entity.FinancialDocument, error) {
	query, args, err := sq.Select(documentColumns...).
		From("documents").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	row := r.getExecutor(ctx).QueryRowContext(ctx, query, args...)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// Update persists the document with an optimistic revision
// check-and-increment. A concurrent writer makes the WHERE clause miss and
// the call fails with port.ErrRevisionConflict.
func (r *DocumentRepository) Update(ctx context.Context, doc *entity.FinancialDocument) error {
	counterparty, workflow, err := marshalDocumentJSON(doc)
	if err != nil {
		return err
	}

	query, args, err := sq.Update("documents").
		Set("status", doc.Status).
		Set("entity_group", doc.Entity).
		Set("counterparty", counterparty).
		Set("net_amount", doc.Amounts.Net).
		Set("tax_amount", doc.Amounts.Tax).
		Set("gross_amount", doc.Amounts.Gross).
		Set("currency", doc.Amounts.Currency).
		Set("category", doc.Category).
		Set("subcategory", doc.Subcategory).
		Set("description", doc.Description).
		Set("document_number", doc.DocumentNumber).
		Set("document_date", doc.DocumentDate).
		Set("due_date", doc.DueDate).
		Set("updated_at", doc.UpdatedAt).
		Set("submitted_at", doc.SubmittedAt).
		Set("paid_at", doc.PaidAt).
		Set("workflow", workflow).
		Set("payment_status", doc.PaymentStatus).
		Set("payment_date", doc.PaymentDate).
		Set("payment_reference", doc.PaymentReference).
		Set("dispute_reason", doc.DisputeReason).
		Set("disputed_at", doc.DisputedAt).
		Set("revision", doc.Revision+1).
		Where(sq.Eq{"id": doc.ID, "revision": doc.Revision}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update document", zap.String("id", doc.ID), zap.Error(err))
		return fmt.Errorf("failed to update document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %s revision %d", port.ErrRevisionConflict, doc.ID, doc.Revision)
	}

	doc.Revision++
	return nil
}

// List retrieves documents matching the filter, newest first.
func (r *DocumentRepository) List(ctx context.Context, filter port.DocumentFilter) ([]*entity.FinancialDocument, error) {
	builder := sq.Select(documentColumns...).
		From("documents").
		OrderBy("document_date DESC", "id")

	if filter.Kind != "" {
		builder = builder.Where(sq.Eq{"kind": filter.Kind})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Entity != "" {
		builder = builder.Where(sq.Eq{"entity_group": filter.Entity})
	}
	if filter.Counterparty != "" {
		builder = builder.Where(sq.Like{"counterparty": "%" + filter.Counterparty + "%"})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.FinancialDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*entity.FinancialDocument, error) {
	var (
		doc              entity.FinancialDocument
		counterpartyJSON string
		workflowJSON     string
		submittedAt      sql.NullTime
		paidAt           sql.NullTime
		paymentDate      sql.NullTime
		disputedAt       sql.NullTime
	)

	err := row.Scan(
		&doc.ID, &doc.Kind, &doc.Status, &doc.Entity, &counterpartyJSON,
		&doc.Amounts.Net, &doc.Amounts.Tax, &doc.Amounts.Gross, &doc.Amounts.Currency,
		&doc.Category, &doc.Subcategory, &doc.Description, &doc.DocumentNumber,
		&doc.DocumentDate, &doc.DueDate, &doc.CreatedAt, &doc.UpdatedAt,
		&submittedAt, &paidAt, &workflowJSON,
		&doc.PaymentStatus, &paymentDate, &doc.PaymentReference,
		&doc.DisputeReason, &disputedAt, &doc.CreatedBy, &doc.Revision,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(counterpartyJSON), &doc.Counterparty); err != nil {
		return nil, fmt.Errorf("decode counterparty: %w", err)
	}
	if err := json.Unmarshal([]byte(workflowJSON), &doc.Workflow); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	if submittedAt.Valid {
		doc.SubmittedAt = &submittedAt.Time
	}
	if paidAt.Valid {
		doc.PaidAt = &paidAt.Time
	}
	if paymentDate.Valid {
		doc.PaymentDate = &paymentDate.Time
	}
	if disputedAt.Valid {
		doc.DisputedAt = &disputedAt.Time
	}
	return &doc, nil
}

func marshalDocumentJSON(doc *entity.FinancialDocument) (counterparty, workflow string, err error) {
	cp, err := json.Marshal(doc.Counterparty)
	if err != nil {
		return "", "", fmt.Errorf("encode counterparty: %w", err)
	}
	steps := doc.Workflow
	if steps == nil {
		steps = []entity.ValidationStep{}
	}
	wf, err := json.Marshal(steps)
	if err != nil {
		return "", "", fmt.Errorf("encode workflow: %w", err)
	}
	return string(cp), string(wf), nil
}

// getExecutor returns the ambient transaction when the context carries one
func (r *DocumentRepository) getExecutor(ctx context.Context) executor {
	if tx := sqlite.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Verify interface compliance
var _ port.DocumentRepository = (*DocumentRepository)(nil)
