package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/classify"
	"github.com/hypervisual/finance-workflow/internal/dedup"
	"github.com/hypervisual/finance-workflow/internal/domain/entity"
	"github.com/hypervisual/finance-workflow/internal/ingest"
)

// importConcurrency bounds parallel normalization of one batch.
const importConcurrency = 4

// CreateDocumentInput is a manual document entry. Amounts are normalized the
// same way ingested records are, so manual entry cannot bypass the
// gross = net + tax invariant.
type CreateDocumentInput struct {
	Kind         string              `json:"kind"`
	Entity       string              `json:"entity"`
	Counterparty entity.Counterparty `json:"counterparty"`
	Amounts      entity.Amounts      `json:"amounts"`
	Category     string              `json:"category"`
	Subcategory  string              `json:"subcategory"`
	Description  string              `json:"description"`
	DocumentDate time.Time           `json:"document_date"`
	DueDate      time.Time           `json:"due_date"`

	// ConfirmDuplicate accepts the document even when the detector flags a
	// probable duplicate.
	ConfirmDuplicate bool `json:"confirm_duplicate"`
}

// ImportResult reports one ingestion run.
type ImportResult struct {
	Imported   int      `json:"imported"`
	Skipped    int      `json:"skipped"`
	Duplicates []string `json:"duplicates,omitempty"`

	// Degraded is set when the upstream source was unreachable and seed data
	// was served instead.
	Degraded bool `json:"degraded"`
}

// DocumentService covers document intake: manual creation, bulk import from
// the external record store, and read access.
type DocumentService interface {
	Create(ctx context.Context, input CreateDocumentInput, actor entity.Identity) (*entity.FinancialDocument, error)
	Get(ctx context.Context, id string) (*entity.FinancialDocument, error)
	List(ctx context.Context, filter port.DocumentFilter) ([]*entity.FinancialDocument, error)
	AuditTrail(ctx context.Context, documentID string) ([]*entity.AuditEvent, error)
	Import(ctx context.Context, kind string, actor entity.Identity) (*ImportResult, error)
	Suggest(ctx context.Context, id string, freeText string) (*classify.Suggestion, error)
}

type documentService struct {
	documents  port.DocumentRepository
	audits     port.AuditRepository
	txManager  port.TransactionManager
	source     port.DocumentSource
	fallback   port.DocumentSource
	normalizer *ingest.Normalizer
	classifier *classify.Classifier
	detector   *dedup.Detector
	logger     Logger
	now        func() time.Time
}

// NewDocumentService creates a document service. fallback supplies seed
// records when source is unavailable; it may be nil, in which case an
// unreachable source fails the import outright.
func NewDocumentService(
	documents port.DocumentRepository,
	audits port.AuditRepository,
	txManager port.TransactionManager,
	source port.DocumentSource,
	fallback port.DocumentSource,
	normalizer *ingest.Normalizer,
	classifier *classify.Classifier,
	detector *dedup.Detector,
	logger Logger,
) DocumentService {
	return &documentService{
		documents:  documents,
		audits:     audits,
		txManager:  txManager,
		source:     source,
		fallback:   fallback,
		normalizer: normalizer,
		classifier: classifier,
		detector:   detector,
		logger:     logger,
		now:        time.Now,
	}
}

// Create registers a manually entered document as a draft. A probable
// duplicate is refused with ErrDuplicateDetected unless the caller set
// ConfirmDuplicate.
func (s *documentService) Create(ctx context.Context, input CreateDocumentInput, actor entity.Identity) (*entity.FinancialDocument, error) {
	kind := strings.TrimSpace(input.Kind)
	if kind != entity.KindSupplierInvoice && kind != entity.KindExpenseReport {
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrMalformedInput, input.Kind)
	}

	now := s.now()
	doc := &entity.FinancialDocument{
		ID:            uuid.NewString(),
		Kind:          kind,
		Status:        entity.StatusDraft,
		Entity:        input.Entity,
		Counterparty:  input.Counterparty,
		Amounts:       s.normalizer.NormalizeAmounts(input.Amounts),
		Category:      input.Category,
		Subcategory:   input.Subcategory,
		Description:   input.Description,
		DocumentDate:  input.DocumentDate,
		DueDate:       input.DueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
		PaymentStatus: entity.PaymentUnpaid,
		CreatedBy:     actor.ID,
		Revision:      1,
	}
	if doc.Counterparty.Name == "" {
		doc.Counterparty.Name = entity.UnknownCounterpartyName
	}
	if doc.Category == "" {
		if suggestion := s.classifier.Classify(doc, doc.Description); suggestion != nil {
			doc.Category = suggestion.Category
			doc.Subcategory = suggestion.Subcategory
		}
	}

	if !input.ConfirmDuplicate {
		match, err := s.duplicateOf(ctx, doc)
		if err != nil {
			return nil, err
		}
		if match != "" {
			return nil, fmt.Errorf("%w: matches document %s", ErrDuplicateDetected, match)
		}
	}

	event := entity.NewAuditEvent(entity.EventCreated, doc.ID, actor.ID, now, map[string]interface{}{
		"kind":         doc.Kind,
		"counterparty": doc.Counterparty.Name,
		"amount":       doc.Amounts.Gross,
	})
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.documents.Create(txCtx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.audits.Append(txCtx, event); err != nil {
			return fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("document created",
		"document_id", doc.ID, "kind", doc.Kind, "counterparty", doc.Counterparty.Name)
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*entity.FinancialDocument, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, filter port.DocumentFilter) ([]*entity.FinancialDocument, error) {
	return s.documents.List(ctx, filter)
}

func (s *documentService) AuditTrail(ctx context.Context, documentID string) ([]*entity.AuditEvent, error) {
	if _, err := s.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return s.audits.ListByDocumentID(ctx, documentID)
}

// Suggest classifies a stored document against free text without mutating it.
func (s *documentService) Suggest(ctx context.Context, id string, freeText string) (*classify.Suggestion, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.classifier.Classify(doc, freeText), nil
}

// Import pulls a batch from the external record store, normalizes and
// classifies each record concurrently, then persists sequentially with
// duplicate screening. A malformed record is skipped and logged; it never
// aborts the batch. When the source is unreachable the seed fallback is
// served and the result is flagged degraded.
func (s *documentService) Import(ctx context.Context, kind string, actor entity.Identity) (*ImportResult, error) {
	result := &ImportResult{}

	bags, err := s.source.Query(ctx, kind)
	if err != nil {
		if s.fallback == nil {
			return nil, fmt.Errorf("%w: %v", ErrIngestionUnavailable, err)
		}
		s.logger.Warn("document source unreachable, serving seed data", "kind", kind, "error", err.Error())
		bags, err = s.fallback.Query(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIngestionUnavailable, err)
		}
		result.Degraded = true
	}

	docs := make([]*entity.FinancialDocument, len(bags))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importConcurrency)
	for i, bag := range bags {
		i, bag := i, bag
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := s.normalizer.Normalize(bag, kind)
			if err != nil {
				if errors.Is(err, ingest.ErrMalformedInput) {
					s.logger.Warn("skipping malformed record", "kind", kind, "error", err.Error())
					mu.Lock()
					result.Skipped++
					mu.Unlock()
					return nil
				}
				return err
			}
			if doc.Category == "" {
				if suggestion := s.classifier.Classify(doc, doc.Description); suggestion != nil {
					doc.Category = suggestion.Category
					doc.Subcategory = suggestion.Subcategory
				}
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Persistence stays sequential so earlier records of the same batch
	// participate in duplicate screening of later ones.
	existing, err := s.documents.List(ctx, port.DocumentFilter{Kind: kind})
	if err != nil {
		return nil, fmt.Errorf("list existing documents: %w", err)
	}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if check := s.detector.Check(doc, existing); check.RequiresConfirmation {
			s.logger.Info("skipping probable duplicate",
				"document_id", doc.ID, "matched", check.MatchedDocumentID)
			result.Duplicates = append(result.Duplicates, check.MatchedDocumentID)
			result.Skipped++
			continue
		}
		event := entity.NewAuditEvent(entity.EventImported, doc.ID, actor.ID, s.now(), map[string]interface{}{
			"kind":         doc.Kind,
			"counterparty": doc.Counterparty.Name,
			"amount":       doc.Amounts.Gross,
			"degraded":     result.Degraded,
		})
		err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.documents.Create(txCtx, doc); err != nil {
				return fmt.Errorf("create document: %w", err)
			}
			if err := s.audits.Append(txCtx, event); err != nil {
				return fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		existing = append(existing, doc)
		result.Imported++
	}

	s.logger.Info("import finished",
		"kind", kind, "imported", result.Imported, "skipped", result.Skipped, "degraded", result.Degraded)
	return result, nil
}

// duplicateOf screens a new document against stored documents of the same
// kind and returns the matched ID, or empty when the document is clean.
func (s *documentService) duplicateOf(ctx context.Context, doc *entity.FinancialDocument) (string, error) {
	existing, err := s.documents.List(ctx, port.DocumentFilter{Kind: doc.Kind})
	if err != nil {
		return "", fmt.Errorf("list documents for duplicate check: %w", err)
	}
	sort.SliceStable(existing, func(i, j int) bool {
		return existing[i].CreatedAt.Before(existing[j].CreatedAt)
	})
	check := s.detector.Check(doc, existing)
	if check.RequiresConfirmation {
		return check.MatchedDocumentID, nil
	}
	return "", nil
}
