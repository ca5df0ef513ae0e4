package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/domain/entity"
	"github.com/hypervisual/finance-workflow/internal/infrastructure/persistence/sqlite"
)

func setupDB(t *testing.T) (*sql.DB, *sqlite.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	// Every pooled connection would otherwise get its own :memory: database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "001_initial_schema.sql"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	return db, sqlite.NewDB(db, zap.NewNop())
}

func sampleDocument(id string) *entity.FinancialDocument {
	now := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	return &entity.FinancialDocument{
		ID:     id,
		Kind:   entity.KindSupplierInvoice,
		Status: entity.StatusPendingValidation,
		Counterparty: entity.Counterparty{
			Name:  "Adobe Systems",
			TaxID: "CHE-123.456.789",
		},
		Amounts:      entity.Amounts{Net: 6476.00, Tax: 524.50, Gross: 7000.50, Currency: "CHF"},
		Description:  "Licences Creative Cloud",
		DocumentDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC),
		CreatedAt:    now,
		UpdatedAt:    now,
		Workflow: []entity.ValidationStep{
			{Level: 1, Required: true, Status: entity.StepPending},
			{Level: 2, Required: true, Status: entity.StepPending},
		},
		PaymentStatus: entity.PaymentUnpaid,
		CreatedBy:     "system",
		Revision:      1,
	}
}

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	db, _ := setupDB(t)
	repo := NewDocumentRepository(db, zap.NewNop())
	ctx := context.Background()

	doc := sampleDocument("doc-1")
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetByID() = nil, want document")
	}
	if got.Counterparty.Name != "Adobe Systems" {
		t.Errorf("counterparty = %+v, want Adobe Systems", got.Counterparty)
	}
	if got.Amounts.Gross != 7000.50 {
		t.Errorf("gross = %v, want 7000.50", got.Amounts.Gross)
	}
	if len(got.Workflow) != 2 || got.Workflow[0].Level != 1 || !got.Workflow[1].Required {
		t.Errorf("workflow = %+v, want two required steps", got.Workflow)
	}
	if got.SubmittedAt != nil || got.PaidAt != nil {
		t.Errorf("nullable timestamps should stay nil, got %+v", got)
	}
	if got.Revision != 1 {
		t.Errorf("revision = %d, want 1", got.Revision)
	}
}

func TestDocumentRepository_GetByID_Missing(t *testing.T) {
	db, _ := setupDB(t)
	repo := NewDocumentRepository(db, zap.NewNop())

	got, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetByID() = %+v, want nil", got)
	}
}

func TestDocumentRepository_Update_RevisionCheck(t *testing.T) {
	db, _ := setupDB(t)
	repo := NewDocumentRepository(db, zap.NewNop())
	ctx := context.Background()

	doc := sampleDocument("doc-1")
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	doc.Status = entity.StatusValidated
	if err := repo.Update(ctx, doc); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if doc.Revision != 2 {
		t.Errorf("revision after update = %d, want 2", doc.Revision)
	}

	// A writer still holding the old revision must lose.
	stale := sampleDocument("doc-1")
	stale.Revision = 1
	if err := repo.Update(ctx, stale); !errors.Is(err, port.ErrRevisionConflict) {
		t.Errorf("Update() with stale revision error = %v, want ErrRevisionConflict", err)
	}

	got, _ := repo.GetByID(ctx, "doc-1")
	if got.Status != entity.StatusValidated {
		t.Errorf("stale writer overwrote the document: status = %v", got.Status)
	}
}

func TestDocumentRepository_List_Filters(t *testing.T) {
	db, _ := setupDB(t)
	repo := NewDocumentRepository(db, zap.NewNop())
	ctx := context.Background()

	invoice := sampleDocument("inv-1")
	expense := sampleDocument("exp-1")
	expense.Kind = entity.KindExpenseReport
	expense.Status = entity.StatusValidated
	for _, doc := range []*entity.FinancialDocument{invoice, expense} {
		if err := repo.Create(ctx, doc); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	invoices, err := repo.List(ctx, port.DocumentFilter{Kind: entity.KindSupplierInvoice})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(invoices) != 1 || invoices[0].ID != "inv-1" {
		t.Errorf("List(kind=invoice) = %v, want only inv-1", invoices)
	}

	validated, err := repo.List(ctx, port.DocumentFilter{Status: entity.StatusValidated})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(validated) != 1 || validated[0].ID != "exp-1" {
		t.Errorf("List(status=validated) = %v, want only exp-1", validated)
	}

	all, err := repo.List(ctx, port.DocumentFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List() returned %d documents, want 2", len(all))
	}
}

func TestAuditRepository_AppendAndList(t *testing.T) {
	db, _ := setupDB(t)
	docRepo := NewDocumentRepository(db, zap.NewNop())
	auditRepo := NewAuditRepository(db, zap.NewNop())
	ctx := context.Background()

	if err := docRepo.Create(ctx, sampleDocument("doc-1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	base := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	events := []*entity.AuditEvent{
		entity.NewAuditEvent(entity.EventCreated, "doc-1", "system", base, map[string]interface{}{"amount": 7000.50}),
		entity.NewAuditEvent(entity.EventValidated, "doc-1", "marie", base.Add(time.Hour), map[string]interface{}{"level": 1}),
	}
	for _, event := range events {
		if err := auditRepo.Append(ctx, event); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := auditRepo.ListByDocumentID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListByDocumentID() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByDocumentID() returned %d events, want 2", len(got))
	}
	if got[0].EventType != entity.EventCreated || got[1].EventType != entity.EventValidated {
		t.Errorf("events out of order: %v, %v", got[0].EventType, got[1].EventType)
	}
	if got[0].Payload["amount"] != 7000.50 {
		t.Errorf("payload amount = %v, want 7000.50", got[0].Payload["amount"])
	}
}

func TestTransaction_RollsBackBothWrites(t *testing.T) {
	db, txManager := setupDB(t)
	docRepo := NewDocumentRepository(db, zap.NewNop())
	auditRepo := NewAuditRepository(db, zap.NewNop())
	ctx := context.Background()

	boom := errors.New("audit sink down")
	err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := docRepo.Create(txCtx, sampleDocument("doc-1")); err != nil {
			return err
		}
		event := entity.NewAuditEvent(entity.EventCreated, "doc-1", "system", time.Now(), nil)
		if err := auditRepo.Append(txCtx, event); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction() error = %v, want wrapped sink error", err)
	}

	got, err := docRepo.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Errorf("document survived a rolled back transaction")
	}
	events, _ := auditRepo.ListByDocumentID(ctx, "doc-1")
	if len(events) != 0 {
		t.Errorf("audit events survived a rolled back transaction")
	}
}
