package entity

import (
	"math"
	"time"
)

// AmountTolerance is the rounding tolerance for the gross = net + tax invariant.
const AmountTolerance = 0.01

// UnknownCounterpartyName is the sentinel used when the source record carries
// no counterparty at all, so formatting code never sees an empty party.
const UnknownCounterpartyName = "Unknown counterparty"

// Counterparty is the external party on a document: a supplier for invoices,
// an employee for expense reports (EmployeeID set, bank fields usually empty).
type Counterparty struct {
	Name        string `json:"name"`
	TaxID       string `json:"tax_id,omitempty"`
	BankAccount string `json:"bank_account,omitempty"`
	Address     string `json:"address,omitempty"`
	EmployeeID  string `json:"employee_id,omitempty"`
}

// Amounts holds the monetary breakdown of a document.
type Amounts struct {
	Net      float64 `json:"net_amount"`
	Tax      float64 `json:"tax_amount"`
	Gross    float64 `json:"gross_amount"`
	Currency string  `json:"currency"`
}

// Consistent reports whether gross matches net + tax within tolerance.
func (a Amounts) Consistent() bool {
	return math.Abs(a.Gross-(a.Net+a.Tax)) <= AmountTolerance
}

// ValidationStep is one level of the multi-tier sign-off chain.
// Required is frozen at submission time; ValidatorID and DecidedAt are set
// exactly once, when the step leaves StepPending.
type ValidationStep struct {
	Level       int        `json:"level"`
	Required    bool       `json:"required"`
	ValidatorID string     `json:"validator_id,omitempty"`
	Status      string     `json:"status"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// FinancialDocument is the canonical document the engine operates on.
// It is created by the normalizer or by manual entry and mutated only by the
// approval workflow engine.
type FinancialDocument struct {
	ID               string           `json:"id"`
	Kind             string           `json:"kind"`
	Status           string           `json:"status"`
	Entity           string           `json:"entity,omitempty"`
	Counterparty     Counterparty     `json:"counterparty"`
	Amounts          Amounts          `json:"amounts"`
	Category         string           `json:"category,omitempty"`
	Subcategory      string           `json:"subcategory,omitempty"`
	Description      string           `json:"description,omitempty"`
	DocumentNumber   string           `json:"document_number,omitempty"`
	DocumentDate     time.Time        `json:"document_date"`
	DueDate          time.Time        `json:"due_date"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	SubmittedAt      *time.Time       `json:"submitted_at,omitempty"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
	Workflow         []ValidationStep `json:"validation_workflow"`
	PaymentStatus    string           `json:"payment_status"`
	PaymentDate      *time.Time       `json:"payment_date,omitempty"`
	PaymentReference string           `json:"payment_reference,omitempty"`
	DisputeReason    string           `json:"dispute_reason,omitempty"`
	DisputedAt       *time.Time       `json:"disputed_at,omitempty"`
	CreatedBy        string           `json:"created_by"`

	// Revision is the optimistic concurrency counter, incremented on every
	// engine transition.
	Revision int64 `json:"revision"`
}

// IsTerminal reports whether no further workflow transitions are allowed.
func (d *FinancialDocument) IsTerminal() bool {
	switch d.Status {
	case StatusPaid, StatusReimbursed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// CurrentValidationLevel returns the lowest-numbered required step still
// pending, or 0 when every required step has been decided.
func (d *FinancialDocument) CurrentValidationLevel() int {
	for _, step := range d.Workflow {
		if step.Required && step.Status == StepPending {
			return step.Level
		}
	}
	return 0
}

// StepAt returns the step for the given level, or nil.
func (d *FinancialDocument) StepAt(level int) *ValidationStep {
	for i := range d.Workflow {
		if d.Workflow[i].Level == level {
			return &d.Workflow[i]
		}
	}
	return nil
}

// Thresholds are the monetary boundaries for one document kind.
// AutoApprove and below needs no human sign-off; above Level1 both levels
// are required.
type Thresholds struct {
	AutoApprove float64
	Level1      float64
	Level2      float64
}

// RequiredLevels computes the approval levels a gross amount needs.
// Evaluated once at submission; the result is frozen on the document and
// never recomputed when configuration changes.
func RequiredLevels(gross float64, t Thresholds) []int {
	switch {
	case gross <= t.AutoApprove:
		return nil
	case gross <= t.Level1:
		return []int{1}
	default:
		return []int{1, 2}
	}
}

// BuildWorkflow materializes validation steps for the required levels.
func BuildWorkflow(levels []int) []ValidationStep {
	steps := make([]ValidationStep, 0, len(levels))
	for _, level := range levels {
		steps = append(steps, ValidationStep{
			Level:    level,
			Required: true,
			Status:   StepPending,
		})
	}
	return steps
}
