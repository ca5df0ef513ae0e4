// Package aggregate derives read-only dashboard summaries from the current
// document set: gross totals bucketed by status and due-date alert
// classification. Everything here is pure; the reference date is supplied by
// the caller so results are reproducible.
package aggregate

import (
	"time"

	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

// DueBucket classifies how urgent a document's due date is.
type DueBucket string

const (
	DueNone    DueBucket = ""
	DueWeek    DueBucket = "week"    // 0 < days until due <= 7
	DueSoon    DueBucket = "soon"    // 0 < days until due <= 3
	DueToday   DueBucket = "today"   // due today
	DueOverdue DueBucket = "overdue" // due date passed, not paid
)

const (
	soonDays = 3
	weekDays = 7
)

// Totals are gross-amount sums per dashboard bucket.
type Totals struct {
	Pending       float64 `json:"pending"`
	Validated     float64 `json:"validated"`
	PaidThisMonth float64 `json:"paid_this_month"`
	Overdue       float64 `json:"overdue"`
}

// Alert pairs a document with its due-date bucket.
type Alert struct {
	DocumentID string    `json:"document_id"`
	Bucket     DueBucket `json:"bucket"`
	DaysUntil  int       `json:"days_until_due"`
	Gross      float64   `json:"gross_amount"`
}

// SumByStatus buckets gross amounts the way the finance dashboard displays
// them. An unpaid document past its due date counts as overdue regardless of
// workflow status; paid documents count only within the current month.
func SumByStatus(documents []*entity.FinancialDocument, today time.Time) Totals {
	var totals Totals

	for _, doc := range documents {
		paid := doc.Status == entity.StatusPaid || doc.Status == entity.StatusReimbursed

		if !paid && daysUntil(doc.DueDate, today) < 0 {
			totals.Overdue += doc.Amounts.Gross
			continue
		}

		switch doc.Status {
		case entity.StatusDraft, entity.StatusPendingValidation:
			totals.Pending += doc.Amounts.Gross
		case entity.StatusValidated:
			totals.Validated += doc.Amounts.Gross
		case entity.StatusPaid, entity.StatusReimbursed:
			ref := doc.PaidAt
			if ref == nil {
				ref = &doc.DocumentDate
			}
			if ref.Year() == today.Year() && ref.Month() == today.Month() {
				totals.PaidThisMonth += doc.Amounts.Gross
			}
		}
	}

	return totals
}

// ClassifyDue returns the due-date bucket for one document. Paid documents
// never alert.
func ClassifyDue(doc *entity.FinancialDocument, today time.Time) DueBucket {
	if doc.Status == entity.StatusPaid || doc.Status == entity.StatusReimbursed {
		return DueNone
	}

	switch days := daysUntil(doc.DueDate, today); {
	case days < 0:
		return DueOverdue
	case days == 0:
		return DueToday
	case days <= soonDays:
		return DueSoon
	case days <= weekDays:
		return DueWeek
	default:
		return DueNone
	}
}

// DueAlerts collects every document with a non-empty due bucket.
func DueAlerts(documents []*entity.FinancialDocument, today time.Time) []Alert {
	var alerts []Alert
	for _, doc := range documents {
		bucket := ClassifyDue(doc, today)
		if bucket == DueNone {
			continue
		}
		alerts = append(alerts, Alert{
			DocumentID: doc.ID,
			Bucket:     bucket,
			DaysUntil:  daysUntil(doc.DueDate, today),
			Gross:      doc.Amounts.Gross,
		})
	}
	return alerts
}

// daysUntil counts whole calendar days between today and the due date,
// ignoring time-of-day on both sides.
func daysUntil(due, today time.Time) int {
	due = time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(due.Sub(today) / (24 * time.Hour))
}
