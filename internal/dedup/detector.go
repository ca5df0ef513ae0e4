// Package dedup flags probable re-submissions of already-known documents.
// The match is intentionally coarse: false positives are expected and are
// resolved by the caller through explicit confirmation, never by silently
// rejecting the candidate.
package dedup

import (
	"math"
	"strings"
	"time"

	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

// DefaultEpsilon is the gross-amount tolerance, in currency units.
const DefaultEpsilon = 5.0

// Result reports the outcome of a duplicate check.
type Result struct {
	IsDuplicate bool `json:"is_duplicate"`

	// RequiresConfirmation is set alongside IsDuplicate: proceeding needs an
	// explicit confirm-and-override from the caller.
	RequiresConfirmation bool   `json:"requires_confirmation"`
	MatchedDocumentID    string `json:"matched_document_id,omitempty"`
}

// Detector compares candidate documents against the existing set.
type Detector struct {
	epsilon float64
}

// NewDetector creates a detector; epsilon <= 0 uses the default tolerance.
func NewDetector(epsilon float64) *Detector {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Detector{epsilon: epsilon}
}

// Check flags the candidate as a probable duplicate of any existing document
// with the same counterparty identity, the same calendar day and a gross
// amount within epsilon.
func (d *Detector) Check(candidate *entity.FinancialDocument, existing []*entity.FinancialDocument) Result {
	for _, other := range existing {
		if !sameCounterparty(candidate, other) {
			continue
		}
		if !sameCalendarDay(candidate.DocumentDate, other.DocumentDate) {
			continue
		}
		if math.Abs(candidate.Amounts.Gross-other.Amounts.Gross) > d.epsilon {
			continue
		}
		return Result{
			IsDuplicate:          true,
			RequiresConfirmation: true,
			MatchedDocumentID:    other.ID,
		}
	}
	return Result{}
}

// sameCounterparty matches expense reports on employee identity and
// invoices on supplier name.
func sameCounterparty(a, b *entity.FinancialDocument) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Counterparty.EmployeeID != "" || b.Counterparty.EmployeeID != "" {
		return a.Counterparty.EmployeeID == b.Counterparty.EmployeeID
	}
	return strings.EqualFold(a.Counterparty.Name, b.Counterparty.Name)
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
