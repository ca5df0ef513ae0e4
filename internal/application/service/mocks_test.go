package service

import (
	"context"

	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/domain/entity"
	"github.com/hypervisual/finance-workflow/internal/ingest"
)

// Mock repositories

type mockDocumentRepo struct {
	createFunc  func(ctx context.Context, doc *entity.FinancialDocument) error
	getByIDFunc func(ctx context.Context, id string) (*entity.FinancialDocument, error)
	updateFunc  func(ctx context.Context, doc *entity.FinancialDocument) error
	listFunc    func(ctx context.Context, filter port.DocumentFilter) ([]*entity.FinancialDocument, error)

	created []*entity.FinancialDocument
	updated []*entity.FinancialDocument
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *entity.FinancialDocument) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, doc)
	}
	m.created = append(m.created, doc)
	return nil
}

func (m *mockDocumentRepo) GetByID(ctx context.Context, id string) (*entity.FinancialDocument, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockDocumentRepo) Update(ctx context.Context, doc *entity.FinancialDocument) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, doc)
	}
	doc.Revision++
	m.updated = append(m.updated, doc)
	return nil
}

func (m *mockDocumentRepo) List(ctx context.Context, filter port.DocumentFilter) ([]*entity.FinancialDocument, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return []*entity.FinancialDocument{}, nil
}

type mockAuditRepo struct {
	appendFunc func(ctx context.Context, event *entity.AuditEvent) error
	listFunc   func(ctx context.Context, documentID string) ([]*entity.AuditEvent, error)

	events []*entity.AuditEvent
}

func (m *mockAuditRepo) Append(ctx context.Context, event *entity.AuditEvent) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, event)
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockAuditRepo) ListByDocumentID(ctx context.Context, documentID string) ([]*entity.AuditEvent, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, documentID)
	}
	return m.events, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockSource struct {
	queryFunc func(ctx context.Context, kind string) ([]ingest.RecordBag, error)
}

func (m *mockSource) Query(ctx context.Context, kind string) ([]ingest.RecordBag, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, kind)
	}
	return []ingest.RecordBag{}, nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
