package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/domain/entity"
	"github.com/hypervisual/finance-workflow/internal/domain/workflow"
)

// ApprovalService drives documents through the validation workflow. Every
// command loads the document, checks authorization against the pending
// level, fires the state machine, and persists the document together with
// its audit event in one transaction.
type ApprovalService interface {
	Submit(ctx context.Context, documentID string, actor entity.Identity) (*entity.FinancialDocument, error)
	Validate(ctx context.Context, documentID string, actor entity.Identity) (*entity.FinancialDocument, error)
	Reject(ctx context.Context, documentID string, actor entity.Identity, reason string) (*entity.FinancialDocument, error)
	SchedulePayment(ctx context.Context, documentID string, actor entity.Identity, paymentDate time.Time) (*entity.FinancialDocument, error)
	MarkPaid(ctx context.Context, documentID string, actor entity.Identity) (*entity.FinancialDocument, error)
	Dispute(ctx context.Context, documentID string, actor entity.Identity, reason string) (*entity.FinancialDocument, error)
}

type approvalService struct {
	documents  port.DocumentRepository
	audits     port.AuditRepository
	txManager  port.TransactionManager
	thresholds map[string]entity.Thresholds
	logger     Logger
	now        func() time.Time

	locks sync.Map // documentID -> *sync.Mutex
}

// NewApprovalService creates an approval service. thresholds maps document
// kind to its amount tiers; kinds without an entry get zero tiers, which
// means every document of that kind auto-approves.
func NewApprovalService(
	documents port.DocumentRepository,
	audits port.AuditRepository,
	txManager port.TransactionManager,
	thresholds map[string]entity.Thresholds,
	logger Logger,
) ApprovalService {
	return &approvalService{
		documents:  documents,
		audits:     audits,
		txManager:  txManager,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *approvalService) lock(documentID string) func() {
	v, _ := s.locks.LoadOrStore(documentID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *approvalService) load(ctx context.Context, documentID string) (*entity.FinancialDocument, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	return doc, nil
}

// Submit moves a draft into the workflow. The required validation levels are
// frozen from the gross amount at this moment; later amount edits never
// change them. Documents at or below the auto-approve tier skip validation
// entirely and get a system step on record.
func (s *approvalService) Submit(ctx context.Context, documentID string, actor entity.Identity) (*entity.FinancialDocument, error) {
	unlock := s.lock(documentID)
	defer unlock()

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != entity.StatusDraft {
		return nil, fmt.Errorf("%w: cannot submit from %s", ErrInvalidState, doc.Status)
	}

	levels := entity.RequiredLevels(doc.Amounts.Gross, s.thresholdsFor(doc.Kind))
	doc.Workflow = entity.BuildWorkflow(levels)
	now := s.now()
	doc.SubmittedAt = &now

	machine := workflow.BuildDocumentStateMachine(workflow.State(doc.Status))
	var event *entity.AuditEvent
	if len(levels) == 0 {
		if err := machine.Fire(ctx, workflow.TriggerAutoApprove); err != nil {
			return nil, s.mapTransitionErr(err)
		}
		doc.Workflow = []entity.ValidationStep{{
			Level:       1,
			Required:    true,
			ValidatorID: entity.SystemActorID,
			Status:      entity.StepApproved,
			DecidedAt:   &now,
		}}
		event = entity.NewAuditEvent(entity.EventValidated, doc.ID, entity.SystemActorID, now, map[string]interface{}{
			"level":  1,
			"auto":   true,
			"amount": doc.Amounts.Gross,
		})
	} else {
		if err := machine.Fire(ctx, workflow.TriggerSubmit); err != nil {
			return nil, s.mapTransitionErr(err)
		}
	}
	doc.Status = string(machine.State())

	if err := s.persist(ctx, doc, event); err != nil {
		return nil, err
	}
	s.logger.Info("document submitted",
		"document_id", doc.ID, "status", doc.Status, "levels", len(levels))
	return doc, nil
}

// Validate approves the lowest pending required level for the acting
// identity. When the last required level approves, the document transitions
// to validated; otherwise it stays pending for the next level.
func (s *approvalService) Validate(ctx context.Context, documentID string, actor entity.Identity) (*entity.FinancialDocument, error) {
	unlock := s.lock(documentID)
	defer unlock()

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	level, err := s.pendingLevel(doc)
	if err != nil {
		return nil, err
	}
	if !actor.CanValidateLevel(level) {
		return nil, fmt.Errorf("%w: level %d requires %s", ErrInsufficientPermission, level, levelRequirement(level))
	}

	now := s.now()
	step := doc.StepAt(level)
	step.Status = entity.StepApproved
	step.ValidatorID = actor.ID
	step.DecidedAt = &now

	if doc.CurrentValidationLevel() == 0 {
		machine := workflow.BuildDocumentStateMachine(workflow.State(doc.Status))
		if err := machine.Fire(ctx, workflow.TriggerApprove); err != nil {
			return nil, s.mapTransitionErr(err)
		}
		doc.Status = string(machine.State())
	}

	event := entity.NewAuditEvent(entity.EventValidated, doc.ID, actor.ID, now, map[string]interface{}{
		"level":  level,
		"amount": doc.Amounts.Gross,
		"status": doc.Status,
	})
	if err := s.persist(ctx, doc, event); err != nil {
		return nil, err
	}
	s.logger.Info("validation level approved",
		"document_id", doc.ID, "level", level, "validator", actor.ID, "status", doc.Status)
	return doc, nil
}

// Reject refuses the document at the current pending level. Authorization
// follows the same rule as Validate: whoever may approve a level may reject
// at it. Rejection is terminal.
func (s *approvalService) Reject(ctx context.Context, documentID string, actor entity.Identity, reason string) (*entity.FinancialDocument, error) {
	unlock := s.lock(documentID)
	defer unlock()

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	level, err := s.pendingLevel(doc)
	if err != nil {
		return nil, err
	}
	if !actor.CanValidateLevel(level) {
		return nil, fmt.Errorf("%w: level %d requires %s", ErrInsufficientPermission, level, levelRequirement(level))
	}

	now := s.now()
	step := doc.StepAt(level)
	step.Status = entity.StepRejected
	step.ValidatorID = actor.ID
	step.DecidedAt = &now

	machine := workflow.BuildDocumentStateMachine(workflow.State(doc.Status))
	if err := machine.Fire(ctx, workflow.TriggerReject); err != nil {
		return nil, s.mapTransitionErr(err)
	}
	doc.Status = string(machine.State())

	event := entity.NewAuditEvent(entity.EventRejected, doc.ID, actor.ID, now, map[string]interface{}{
		"level":  level,
		"reason": reason,
	})
	if err := s.persist(ctx, doc, event); err != nil {
		return nil, err
	}
	s.logger.Info("document rejected",
		"document_id", doc.ID, "level", level, "validator", actor.ID)
	return doc, nil
}

// SchedulePayment records a payment date and reference for a validated
// document. The workflow state does not change; only the payment lane does.
func (s *approvalService) SchedulePayment(ctx context.Context, documentID string, actor entity.Identity, paymentDate time.Time) (*entity.FinancialDocument, error) {
	unlock := s.lock(documentID)
	defer unlock()

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != entity.StatusValidated {
		return nil, fmt.Errorf("%w: cannot schedule payment from %s", ErrInvalidState, doc.Status)
	}

	doc.PaymentStatus = entity.PaymentScheduled
	doc.PaymentDate = &paymentDate
	doc.PaymentReference = paymentReference()

	event := entity.NewAuditEvent(entity.EventPaymentScheduled, doc.ID, actor.ID, s.now(), map[string]interface{}{
		"payment_date": paymentDate.Format("2006-01-02"),
		"reference":    doc.PaymentReference,
		"amount":       doc.Amounts.Gross,
	})
	if err := s.persist(ctx, doc, event); err != nil {
		return nil, err
	}
	s.logger.Info("payment scheduled",
		"document_id", doc.ID, "reference", doc.PaymentReference)
	return doc, nil
}

// MarkPaid settles a scheduled payment. Invoices end in paid, expenses with
// a reimbursable payment method end in reimbursed.
func (s *approvalService) MarkPaid(ctx context.Context, documentID string, actor entity.Identity) (*entity.FinancialDocument, error) {
	unlock := s.lock(documentID)
	defer unlock()

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != entity.StatusValidated || doc.PaymentStatus != entity.PaymentScheduled {
		return nil, fmt.Errorf("%w: payment not scheduled for %s document", ErrInvalidState, doc.Status)
	}

	trigger := workflow.TriggerMarkPaid
	paymentStatus := entity.PaymentPaid
	if doc.Kind == entity.KindExpenseReport {
		trigger = workflow.TriggerReimburse
		paymentStatus = entity.PaymentReimbursed
	}

	machine := workflow.BuildDocumentStateMachine(workflow.State(doc.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, s.mapTransitionErr(err)
	}
	doc.Status = string(machine.State())
	doc.PaymentStatus = paymentStatus
	now := s.now()
	doc.PaidAt = &now

	event := entity.NewAuditEvent(entity.EventPaid, doc.ID, actor.ID, now, map[string]interface{}{
		"reference": doc.PaymentReference,
		"amount":    doc.Amounts.Gross,
		"status":    doc.Status,
	})
	if err := s.persist(ctx, doc, event); err != nil {
		return nil, err
	}
	s.logger.Info("payment settled",
		"document_id", doc.ID, "status", doc.Status)
	return doc, nil
}

// Dispute parks a non-terminal document. A disputed document can only be
// cancelled afterwards; the dispute reason is mandatory.
func (s *approvalService) Dispute(ctx context.Context, documentID string, actor entity.Identity, reason string) (*entity.FinancialDocument, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: dispute reason is required", ErrInvalidState)
	}

	unlock := s.lock(documentID)
	defer unlock()

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsTerminal() || doc.Status == entity.StatusDispute {
		return nil, fmt.Errorf("%w: cannot dispute from %s", ErrInvalidState, doc.Status)
	}

	machine := workflow.BuildDocumentStateMachine(workflow.State(doc.Status))
	if err := machine.Fire(ctx, workflow.TriggerDispute); err != nil {
		return nil, s.mapTransitionErr(err)
	}
	doc.Status = string(machine.State())
	doc.DisputeReason = reason
	now := s.now()
	doc.DisputedAt = &now

	event := entity.NewAuditEvent(entity.EventDisputed, doc.ID, actor.ID, now, map[string]interface{}{
		"reason": reason,
	})
	if err := s.persist(ctx, doc, event); err != nil {
		return nil, err
	}
	s.logger.Warn("document disputed",
		"document_id", doc.ID, "actor", actor.ID, "reason", reason)
	return doc, nil
}

// pendingLevel resolves the level the next decision applies to. Draft
// documents have not entered the workflow; finalized ones have nothing left
// to decide.
func (s *approvalService) pendingLevel(doc *entity.FinancialDocument) (int, error) {
	if doc.Status == entity.StatusDraft {
		return 0, fmt.Errorf("%w: document not yet submitted", ErrInvalidState)
	}
	level := doc.CurrentValidationLevel()
	if level == 0 {
		return 0, fmt.Errorf("%w: no pending validation level", ErrAlreadyFinalized)
	}
	if doc.Status != entity.StatusPendingValidation {
		return 0, fmt.Errorf("%w: cannot decide from %s", ErrInvalidState, doc.Status)
	}
	return level, nil
}

// persist writes the document and its audit event in one transaction. A
// failed audit write rolls the whole command back.
func (s *approvalService) persist(ctx context.Context, doc *entity.FinancialDocument, event *entity.AuditEvent) error {
	doc.UpdatedAt = s.now()
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.documents.Update(txCtx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if event != nil {
			if err := s.audits.Append(txCtx, event); err != nil {
				return fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
			}
		}
		return nil
	})
}

func (s *approvalService) thresholdsFor(kind string) entity.Thresholds {
	return s.thresholds[kind]
}

func (s *approvalService) mapTransitionErr(err error) error {
	if errors.Is(err, workflow.ErrInvalidTransition) || errors.Is(err, workflow.ErrGuardFailed) {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return err
}

func levelRequirement(level int) string {
	if level >= 2 {
		return "superadmin role"
	}
	return "superadmin role or finance.validate permission"
}

func paymentReference() string {
	return "PAY-" + strings.ToUpper(uuid.NewString()[:8])
}
