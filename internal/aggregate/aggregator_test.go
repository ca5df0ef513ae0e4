package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

var today = time.Date(2025, 1, 20, 15, 30, 0, 0, time.UTC)

func doc(id, status string, due time.Time, gross float64) *entity.FinancialDocument {
	return &entity.FinancialDocument{
		ID:           id,
		Kind:         entity.KindSupplierInvoice,
		Status:       status,
		DueDate:      due,
		DocumentDate: due.AddDate(0, -1, 0),
		Amounts:      entity.Amounts{Gross: gross, Currency: "CHF"},
	}
}

func TestClassifyDue(t *testing.T) {
	tests := []struct {
		name   string
		status string
		due    time.Time
		want   DueBucket
	}{
		{"due yesterday and unpaid", entity.StatusPendingValidation, time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC), DueOverdue},
		{"due today", entity.StatusPendingValidation, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), DueToday},
		{"due in two days", entity.StatusValidated, time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC), DueSoon},
		{"due in six days", entity.StatusValidated, time.Date(2025, 1, 26, 0, 0, 0, 0, time.UTC), DueWeek},
		{"due in ten days", entity.StatusValidated, time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC), DueNone},
		{"paid never alerts", entity.StatusPaid, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), DueNone},
		{"reimbursed never alerts", entity.StatusReimbursed, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), DueNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyDue(doc("d", tt.status, tt.due, 100), today)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyDue_IgnoresTimeOfDay(t *testing.T) {
	// Due later today, but at an earlier hour than "now".
	due := time.Date(2025, 1, 20, 8, 0, 0, 0, time.UTC)
	got := ClassifyDue(doc("d", entity.StatusPendingValidation, due, 100), today)
	assert.Equal(t, DueToday, got)
}

func TestSumByStatus(t *testing.T) {
	paidJan := doc("paid-jan", entity.StatusPaid, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), 1077.00)
	paidAt := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	paidJan.PaidAt = &paidAt

	paidDec := doc("paid-dec", entity.StatusPaid, time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC), 500.00)
	paidDecAt := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
	paidDec.PaidAt = &paidDecAt

	documents := []*entity.FinancialDocument{
		doc("pending", entity.StatusPendingValidation, time.Date(2025, 2, 18, 0, 0, 0, 0, time.UTC), 7000.50),
		doc("draft", entity.StatusDraft, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 150.00),
		doc("validated", entity.StatusValidated, time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC), 4500.00),
		doc("late", entity.StatusValidated, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), 2000.00),
		paidJan,
		paidDec,
	}

	totals := SumByStatus(documents, today)

	assert.InDelta(t, 7150.50, totals.Pending, 0.001)
	assert.InDelta(t, 4500.00, totals.Validated, 0.001)
	assert.InDelta(t, 1077.00, totals.PaidThisMonth, 0.001)
	assert.InDelta(t, 2000.00, totals.Overdue, 0.001)
}

func TestSumByStatus_OverdueTrumpsStatusBucket(t *testing.T) {
	// A pending document past its due date counts as overdue, not pending.
	documents := []*entity.FinancialDocument{
		doc("late-pending", entity.StatusPendingValidation, time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC), 300.00),
	}

	totals := SumByStatus(documents, today)
	assert.InDelta(t, 300.00, totals.Overdue, 0.001)
	assert.Zero(t, totals.Pending)
}

func TestDueAlerts(t *testing.T) {
	documents := []*entity.FinancialDocument{
		doc("a", entity.StatusPendingValidation, time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC), 100),
		doc("b", entity.StatusValidated, time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC), 200),
		doc("c", entity.StatusPaid, time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC), 300),
		doc("d", entity.StatusValidated, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 400),
	}

	alerts := DueAlerts(documents, today)

	assert.Len(t, alerts, 2)
	assert.Equal(t, "a", alerts[0].DocumentID)
	assert.Equal(t, DueOverdue, alerts[0].Bucket)
	assert.Equal(t, "b", alerts[1].DocumentID)
	assert.Equal(t, DueSoon, alerts[1].Bucket)
}
