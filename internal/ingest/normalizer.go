// Package ingest maps opaque records from the external document store into
// the canonical FinancialDocument schema. Normalization is pure and
// best-effort: absent fields get documented defaults, and only a bag that is
// not a mapping at all is rejected.
package ingest

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

// ErrMalformedInput is returned when the raw record is not a mapping.
// This is the normalizer's one hard boundary; everything else defaults.
var ErrMalformedInput = errors.New("malformed input record")

// Defaults are substituted for fields the raw record lacks.
type Defaults struct {
	BaseCurrency    string
	StandardVATRate float64 // percent, e.g. 8.1
}

// Normalizer converts record bags into financial documents.
type Normalizer struct {
	defaults Defaults
	now      func() time.Time
}

// NewNormalizer creates a normalizer. The clock is injectable for tests;
// pass nil for time.Now.
func NewNormalizer(defaults Defaults, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{defaults: defaults, now: now}
}

// statusLabels maps store status labels (the upstream base uses French
// display names) onto canonical statuses.
var statusLabels = map[string]string{
	"Brouillon": entity.StatusDraft,
	"À valider": entity.StatusPendingValidation,
	"Soumise":   entity.StatusPendingValidation,
	"Validée":   entity.StatusValidated,
	"Approuvée": entity.StatusValidated,
	"Payée":     entity.StatusPaid,
	"Remboursée": entity.StatusReimbursed,
	"En litige": entity.StatusDispute,
	"Rejetée":   entity.StatusRejected,
	"Annulée":   entity.StatusCancelled,
}

var canonicalStatuses = map[string]bool{
	entity.StatusDraft:             true,
	entity.StatusPendingValidation: true,
	entity.StatusValidated:         true,
	entity.StatusPaid:              true,
	entity.StatusReimbursed:        true,
	entity.StatusDispute:           true,
	entity.StatusRejected:          true,
	entity.StatusCancelled:         true,
}

// Normalize maps a raw record into a FinancialDocument, filling defaults for
// every absent field. It never fails for a sparse or oddly-typed mapping;
// only a nil bag is malformed.
func (n *Normalizer) Normalize(raw RecordBag, kind string) (*entity.FinancialDocument, error) {
	if raw == nil {
		return nil, ErrMalformedInput
	}

	now := n.now()

	doc := &entity.FinancialDocument{
		ID:             raw.stringAt("id", "invoice_id", "expense_id", "record_id"),
		Kind:           kind,
		Status:         n.normalizeStatus(raw.stringAt("status")),
		Entity:         raw.stringAt("entity", "entity_group"),
		Counterparty:   n.normalizeCounterparty(raw, kind),
		Amounts:        n.normalizeAmounts(raw),
		Category:       raw.stringAt("category"),
		Subcategory:    raw.stringAt("subcategory"),
		Description:    raw.stringAt("description", "notes"),
		DocumentNumber: raw.stringAt("invoice_number", "document_number", "reference"),
		CreatedBy:      raw.stringAt("created_by"),
		PaymentStatus:  raw.stringAt("payment_status"),
		Workflow:       n.normalizeWorkflow(raw.bagAt("validation_workflow")),
	}

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if k := raw.stringAt("kind"); k != "" {
		doc.Kind = k
	}
	if doc.CreatedBy == "" {
		doc.CreatedBy = entity.SystemActorID
	}
	doc.Revision = 1

	doc.DocumentDate, _ = raw.dateAt("document_date", "invoice_date", "date")
	if doc.DocumentDate.IsZero() {
		doc.DocumentDate = now
	}
	doc.DueDate, _ = raw.dateAt("due_date")
	if doc.DueDate.IsZero() {
		doc.DueDate = doc.DocumentDate
	}
	doc.CreatedAt, _ = raw.dateAt("created_at")
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = doc.CreatedAt
	if t, ok := raw.dateAt("submitted_at"); ok {
		doc.SubmittedAt = &t
	}
	if t, ok := raw.dateAt("paid_at", "payment_date"); ok {
		if doc.Status == entity.StatusPaid || doc.Status == entity.StatusReimbursed {
			doc.PaidAt = &t
		} else {
			doc.PaymentDate = &t
		}
	}
	doc.PaymentReference = raw.stringAt("payment_reference")

	if doc.PaymentStatus == "" {
		doc.PaymentStatus = n.derivePaymentStatus(doc, raw)
	}

	return doc, nil
}

func (n *Normalizer) normalizeStatus(status string) string {
	if canonicalStatuses[status] {
		return status
	}
	if mapped, ok := statusLabels[status]; ok {
		return mapped
	}
	return entity.StatusDraft
}

func (n *Normalizer) normalizeCounterparty(raw RecordBag, kind string) entity.Counterparty {
	bag := raw.bagAt("counterparty", "supplier", "employee")
	cp := entity.Counterparty{}
	if bag != nil {
		cp.Name = bag.stringAt("name")
		cp.TaxID = bag.stringAt("tax_id", "vat_number")
		cp.BankAccount = bag.stringAt("bank_account", "iban")
		cp.Address = bag.stringAt("address")
		cp.EmployeeID = bag.stringAt("employee_id", "id")
	} else {
		cp.Name = raw.stringAt("counterparty_name", "supplier_name", "merchant")
	}
	if kind != entity.KindExpenseReport {
		cp.EmployeeID = ""
	}
	if cp.Name == "" {
		cp.Name = entity.UnknownCounterpartyName
	}
	return cp
}

// NormalizeAmounts applies the same reconstruction rules to an already typed
// triple, for manual entry paths that bypass record bags. A zero currency
// falls back to the base currency; an inconsistent triple gets its tax
// recomputed from gross - net.
func (n *Normalizer) NormalizeAmounts(a entity.Amounts) entity.Amounts {
	rate := n.defaults.StandardVATRate / 100

	switch {
	case a.Gross != 0 && a.Net != 0:
		if !a.Consistent() {
			a.Tax = round2(a.Gross - a.Net)
		}
	case a.Gross != 0:
		a.Net = round2(a.Gross / (1 + rate))
		a.Tax = round2(a.Gross - a.Net)
	case a.Net != 0:
		if a.Tax == 0 {
			a.Tax = round2(a.Net * rate)
		}
		a.Gross = round2(a.Net + a.Tax)
	}
	if a.Currency == "" {
		a.Currency = n.defaults.BaseCurrency
	}
	return a
}

// normalizeAmounts reconstructs a consistent net/tax/gross triple. When the
// source triple violates gross = net + tax beyond tolerance, tax is
// recomputed as gross - net rather than approximated from a fixed rate.
func (n *Normalizer) normalizeAmounts(raw RecordBag) entity.Amounts {
	rate := n.defaults.StandardVATRate / 100

	net, hasNet := raw.floatAt("net_amount", "subtotal_ht", "amount_ht")
	tax, hasTax := raw.floatAt("tax_amount", "vat_amount")
	gross, hasGross := raw.floatAt("gross_amount", "total_ttc", "amount", "total")

	switch {
	case hasGross && hasNet:
		if math.Abs(gross-(net+tax)) > entity.AmountTolerance {
			tax = round2(gross - net)
		}
	case hasGross:
		net = round2(gross / (1 + rate))
		tax = round2(gross - net)
	case hasNet:
		if !hasTax {
			tax = round2(net * rate)
		}
		gross = round2(net + tax)
	}

	currency := raw.stringAt("currency")
	if currency == "" {
		currency = n.defaults.BaseCurrency
	}

	return entity.Amounts{Net: net, Tax: tax, Gross: gross, Currency: currency}
}

// normalizeWorkflow reads steps already recorded upstream (level_1/level_2
// sub-bags) so re-imported documents keep their sign-off history.
func (n *Normalizer) normalizeWorkflow(bag RecordBag) []entity.ValidationStep {
	if bag == nil {
		return nil
	}

	var steps []entity.ValidationStep
	for i, key := range []string{"level_1", "level_2"} {
		stepBag := bag.bagAt(key)
		if stepBag == nil {
			continue
		}
		// A recorded higher step implies the lower ones; synthesize any the
		// source omitted so levels stay contiguous from 1.
		for len(steps) < i {
			steps = append(steps, entity.ValidationStep{
				Level:    len(steps) + 1,
				Required: true,
				Status:   entity.StepPending,
			})
		}
		step := entity.ValidationStep{
			Level:    i + 1,
			Required: true,
			Status:   entity.StepPending,
		}
		if status := stepBag.stringAt("status"); status == entity.StepApproved || status == entity.StepRejected {
			step.Status = status
			step.ValidatorID = stepBag.stringAt("validator", "validator_id")
			if t, ok := stepBag.dateAt("date", "decided_at"); ok {
				step.DecidedAt = &t
			}
		}
		steps = append(steps, step)
	}
	return steps
}

func (n *Normalizer) derivePaymentStatus(doc *entity.FinancialDocument, raw RecordBag) string {
	switch doc.Status {
	case entity.StatusPaid:
		return entity.PaymentPaid
	case entity.StatusReimbursed:
		return entity.PaymentReimbursed
	}
	if doc.Kind == entity.KindExpenseReport {
		// Company-settled payment methods need no reimbursement.
		switch raw.stringAt("payment_method") {
		case "company_card", "revolut":
			return entity.PaymentNotRequired
		}
	}
	if doc.PaymentDate != nil {
		return entity.PaymentScheduled
	}
	return entity.PaymentUnpaid
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
