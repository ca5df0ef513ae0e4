// Package source provides DocumentSource implementations: the HTTP client
// for the external record store and the static seed fallback used when the
// store is unreachable.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/ingest"
)

// HTTPSource queries the record store over HTTP. The store returns a JSON
// array of property bags per document kind; their shape is opaque here and
// interpreted by the normalizer.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPSource creates a source client. timeout bounds one query; the
// caller decides what to do when the store is down.
func NewHTTPSource(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Query fetches all records of the given kind.
func (s *HTTPSource) Query(ctx context.Context, kind string) ([]ingest.RecordBag, error) {
	endpoint := fmt.Sprintf("%s/records?kind=%s", s.baseURL, url.QueryEscape(kind))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build source request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query record store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("record store returned status %d", resp.StatusCode)
	}

	var bags []ingest.RecordBag
	if err := json.NewDecoder(resp.Body).Decode(&bags); err != nil {
		return nil, fmt.Errorf("decode record store response: %w", err)
	}

	s.logger.Debug("Record store query completed",
		zap.String("kind", kind), zap.Int("records", len(bags)))
	return bags, nil
}

// Verify interface compliance
var _ port.DocumentSource = (*HTTPSource)(nil)
