package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hypervisual/finance-workflow/internal/aggregate"
	"github.com/hypervisual/finance-workflow/internal/application/port"
)

// Summary is the dashboard roll-up: status totals in base currency plus due
// date alerts, both computed from the current document set.
type Summary struct {
	Totals aggregate.Totals  `json:"totals"`
	Alerts []aggregate.Alert `json:"alerts"`
}

// SummaryService computes reporting aggregates over all documents.
type SummaryService interface {
	Summarize(ctx context.Context, today time.Time) (*Summary, error)
}

type summaryService struct {
	documents port.DocumentRepository
	logger    Logger
}

func NewSummaryService(documents port.DocumentRepository, logger Logger) SummaryService {
	return &summaryService{documents: documents, logger: logger}
}

func (s *summaryService) Summarize(ctx context.Context, today time.Time) (*Summary, error) {
	docs, err := s.documents.List(ctx, port.DocumentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return &Summary{
		Totals: aggregate.SumByStatus(docs, today),
		Alerts: aggregate.DueAlerts(docs, today),
	}, nil
}
