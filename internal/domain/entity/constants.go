package entity

// Document kind constants
const (
	KindSupplierInvoice = "supplier_invoice"
	KindExpenseReport   = "expense_report"
)

// Document status constants
const (
	StatusDraft             = "draft"
	StatusPendingValidation = "pending_validation"
	StatusValidated         = "validated"
	StatusPaid              = "paid"
	StatusReimbursed        = "reimbursed"
	StatusDispute           = "dispute"
	StatusRejected          = "rejected"
	StatusCancelled         = "cancelled"
)

// Payment status constants
const (
	PaymentUnpaid      = "unpaid"
	PaymentScheduled   = "scheduled"
	PaymentPaid        = "paid"
	PaymentReimbursed  = "reimbursed"
	PaymentNotRequired = "not_required"
)

// Validation step status constants
const (
	StepPending  = "pending"
	StepApproved = "approved"
	StepRejected = "rejected"
)

// Role constants
const (
	RoleEmployee       = "employee"
	RoleFinanceManager = "finance_manager"
	RoleSuperadmin     = "superadmin"
)

// PermissionFinanceValidate allows level 1 approval without the superadmin role.
const PermissionFinanceValidate = "finance.validate"

// SystemActorID identifies automatic transitions (auto-approval, ingestion).
const SystemActorID = "system"

// Audit event type constants
const (
	EventCreated          = "CREATED"
	EventValidated        = "VALIDATED"
	EventPaymentScheduled = "PAYMENT_SCHEDULED"
	EventPaid             = "PAID"
	EventDisputed         = "DISPUTED"
	EventRejected         = "REJECTED"
	EventImported         = "IMPORTED"
)
