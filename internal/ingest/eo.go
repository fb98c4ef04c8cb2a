package ingest

import (
	"context"
	"fmt"
	"sync"

	"govreporter/internal/apis"
	"govreporter/internal/logging"
	"govreporter/internal/models"
)

// =============================================================================
// EXECUTIVE ORDER SOURCE
// =============================================================================

// EOSource lists and fetches Executive Orders from the Federal Register.
// Raw-text bodies are cached by URL for the lifetime of the source, since
// amended orders can point at the same upstream text.
type EOSource struct {
	client *apis.FederalRegister

	mu        sync.Mutex
	textCache map[string]string
	listCache map[string]*apis.ExecutiveOrder
}

// NewEOSource wraps a Federal Register client.
func NewEOSource(client *apis.FederalRegister) *EOSource {
	return &EOSource{
		client:    client,
		textCache: make(map[string]string),
		listCache: make(map[string]*apis.ExecutiveOrder),
	}
}

// Kind identifies this source's documents.
func (s *EOSource) Kind() models.DocumentKind {
	return models.KindExecutiveOrder
}

// List returns all orders signed in the date range. Listing results are
// kept so Fetch can skip the per-document metadata request.
func (s *EOSource) List(ctx context.Context, startDate, endDate string) ([]ListedDocument, error) {
	orders, err := s.client.ListExecutiveOrders(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	listed := make([]ListedDocument, 0, len(orders))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range orders {
		eo := orders[i]
		s.listCache[eo.DocumentNumber] = &eo
		listed = append(listed, ListedDocument{
			ID: eo.DocumentNumber,
			Metadata: map[string]any{
				"title":                  eo.Title,
				"executive_order_number": eo.EONumber(),
				"signing_date":           eo.SigningDate,
			},
		})
	}
	return listed, nil
}

// Fetch retrieves an order's metadata and raw text.
func (s *EOSource) Fetch(ctx context.Context, id string) (*models.Document, error) {
	eo, err := s.order(ctx, id)
	if err != nil {
		return nil, err
	}
	if eo.RawTextURL == "" {
		return nil, fmt.Errorf("order %s has no raw_text_url", id)
	}

	text, err := s.rawText(ctx, eo.RawTextURL)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{
		"executive_order_number": eo.EONumber(),
		"president":              eo.President,
		"signing_date":           eo.SigningDate,
		"citation":               eo.Citation,
	}
	if agencies := eo.AgencyNames(); len(agencies) > 0 {
		meta["agencies_or_entities"] = agencies
	}

	url := eo.HTMLURL
	if url == "" {
		url = eo.RawTextURL
	}

	return &models.Document{
		ID:       eo.DocumentNumber,
		Title:    eo.Title,
		Date:     eo.PublicationDate,
		Kind:     models.KindExecutiveOrder,
		Content:  text,
		URL:      url,
		Metadata: meta,
	}, nil
}

// order returns the listing record when available, fetching otherwise.
func (s *EOSource) order(ctx context.Context, id string) (*apis.ExecutiveOrder, error) {
	s.mu.Lock()
	cached, ok := s.listCache[id]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}
	return s.client.GetExecutiveOrder(ctx, id)
}

// rawText fetches a text body with per-run caching. Duplicate concurrent
// fetches for the same URL are redundant work, not incorrect.
func (s *EOSource) rawText(ctx context.Context, url string) (string, error) {
	s.mu.Lock()
	cached, ok := s.textCache[url]
	s.mu.Unlock()
	if ok {
		logging.APIDebug("raw text cache hit: %s", url)
		return cached, nil
	}

	text, err := s.client.GetRawText(ctx, url)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.textCache[url] = text
	s.mu.Unlock()
	return text, nil
}
