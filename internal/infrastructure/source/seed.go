package source

import (
	"context"

	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/domain/entity"
	"github.com/hypervisual/finance-workflow/internal/ingest"
)

// SeedSource serves a fixed demo data set so the engine stays usable when
// the record store is down. IDs are stable so repeated degraded imports are
// caught by duplicate detection instead of piling up copies.
type SeedSource struct{}

// NewSeedSource creates the static fallback source.
func NewSeedSource() *SeedSource {
	return &SeedSource{}
}

// Query returns the seed records for one document kind.
func (s *SeedSource) Query(_ context.Context, kind string) ([]ingest.RecordBag, error) {
	switch kind {
	case entity.KindSupplierInvoice:
		return seedInvoices(), nil
	case entity.KindExpenseReport:
		return seedExpenses(), nil
	}
	return []ingest.RecordBag{}, nil
}

func seedInvoices() []ingest.RecordBag {
	return []ingest.RecordBag{
		{
			"id":             "seed-inv-001",
			"supplier_name":  "Swisscom SA",
			"invoice_number": "SW-2025-0142",
			"description":    "Abonnement internet et téléphonie",
			"net_amount":     996.30,
			"tax_amount":     80.70,
			"total_ttc":      1077.00,
			"currency":       "CHF",
			"status":         "Payée",
			"invoice_date":   "2025-01-05",
			"due_date":       "2025-02-04",
			"paid_at":        "2025-01-12",
			"category":       "Matériel/Fournitures",
		},
		{
			"id":             "seed-inv-002",
			"supplier_name":  "Adobe Systems",
			"invoice_number": "ADB-88412",
			"description":    "Licences Creative Cloud équipe marketing",
			"net_amount":     6476.00,
			"tax_amount":     524.50,
			"total_ttc":      7000.50,
			"currency":       "CHF",
			"status":         "À valider",
			"invoice_date":   "2025-01-10",
			"due_date":       "2025-02-09",
			"validation_workflow": map[string]interface{}{
				"level_1": map[string]interface{}{"required": true, "status": "pending"},
				"level_2": map[string]interface{}{"required": true, "status": "pending"},
			},
		},
	}
}

func seedExpenses() []ingest.RecordBag {
	return []ingest.RecordBag{
		{
			"id":          "seed-exp-001",
			"description": "Billet de train Genève-Zurich, déplacement client",
			"employee": map[string]interface{}{
				"name": "Claire Dubois",
				"id":   "emp-104",
			},
			"total_ttc": 86.00,
			"currency":  "CHF",
			"status":    "Brouillon",
			"date":      "2025-01-14",
		},
		{
			"id":          "seed-exp-002",
			"description": "Repas d'équipe, restaurant Le Lacustre",
			"employee": map[string]interface{}{
				"name": "Marc Favre",
				"id":   "emp-087",
			},
			"total_ttc":      342.50,
			"currency":       "CHF",
			"status":         "À valider",
			"date":           "2025-01-16",
			"payment_method": "company_card",
		},
	}
}

// Verify interface compliance
var _ port.DocumentSource = (*SeedSource)(nil)
