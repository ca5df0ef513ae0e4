package service

import (
	"context"
	"testing"
	"time"

	"github.com/hypervisual/finance-workflow/internal/aggregate"
	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

func TestSummaryService_Summarize(t *testing.T) {
	today := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	paidAt := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	docs := []*entity.FinancialDocument{
		{
			ID:      "inv-pending",
			Status:  entity.StatusPendingValidation,
			Amounts: entity.Amounts{Gross: 7000.50},
			DueDate: time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:      "inv-overdue",
			Status:  entity.StatusValidated,
			Amounts: entity.Amounts{Gross: 500},
			DueDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:            "inv-paid",
			Status:        entity.StatusPaid,
			PaymentStatus: entity.PaymentPaid,
			Amounts:       entity.Amounts{Gross: 1077.00},
			DueDate:       time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			PaidAt:        &paidAt,
		},
	}
	docRepo := &mockDocumentRepo{
		listFunc: func(ctx context.Context, filter port.DocumentFilter) ([]*entity.FinancialDocument, error) {
			return docs, nil
		},
	}
	svc := NewSummaryService(docRepo, &mockLogger{})

	summary, err := svc.Summarize(context.Background(), today)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if summary.Totals.Pending != 7000.50 {
		t.Errorf("Summarize() pending = %v, want 7000.50", summary.Totals.Pending)
	}
	if summary.Totals.Overdue != 500 {
		t.Errorf("Summarize() overdue = %v, want 500", summary.Totals.Overdue)
	}
	if summary.Totals.PaidThisMonth != 1077.00 {
		t.Errorf("Summarize() paid this month = %v, want 1077.00", summary.Totals.PaidThisMonth)
	}

	var overdueAlert *aggregate.Alert
	for i := range summary.Alerts {
		if summary.Alerts[i].DocumentID == "inv-overdue" {
			overdueAlert = &summary.Alerts[i]
		}
	}
	if overdueAlert == nil || overdueAlert.Bucket != aggregate.DueOverdue {
		t.Errorf("Summarize() alerts = %v, want overdue alert for inv-overdue", summary.Alerts)
	}
}
