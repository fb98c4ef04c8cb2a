package apis

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"govreporter/internal/logging"
)

// =============================================================================
// FEDERAL REGISTER CLIENT
// =============================================================================

const (
	federalRegisterBaseURL = "https://www.federalregister.gov/api/v1"

	// federalRegisterInterval keeps the client just above the provider's
	// one-request-per-second guidance.
	federalRegisterInterval = 1100 * time.Millisecond

	// eoPageSize is the per_page value for listings.
	eoPageSize = 20
)

// Agency is one agency reference on an order.
type Agency struct {
	Name string `json:"name"`
}

// ExecutiveOrder is one document from the Federal Register API.
type ExecutiveOrder struct {
	DocumentNumber       string   `json:"document_number"`
	Title                string   `json:"title"`
	ExecutiveOrderNumber any      `json:"executive_order_number"`
	SigningDate          string   `json:"signing_date"`
	PublicationDate      string   `json:"publication_date"`
	President            string   `json:"president"`
	RawTextURL           string   `json:"raw_text_url"`
	HTMLURL              string   `json:"html_url"`
	Agencies             []Agency `json:"agencies"`
	Citation             string   `json:"citation"`
}

// EONumber renders the order number, which the API returns as either a
// string or a number depending on the document's age.
func (eo *ExecutiveOrder) EONumber() string {
	switch v := eo.ExecutiveOrderNumber.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// AgencyNames flattens the agency references.
func (eo *ExecutiveOrder) AgencyNames() []string {
	names := make([]string, 0, len(eo.Agencies))
	for _, a := range eo.Agencies {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

// eoListPage is one page of a documents listing.
type eoListPage struct {
	Results    []ExecutiveOrder `json:"results"`
	TotalPages int              `json:"total_pages"`
}

// FederalRegister is the client for the Federal Register REST API. No
// authentication is required.
type FederalRegister struct {
	http    *httpClient
	baseURL string
}

// NewFederalRegister builds a client. Network failures get one retry; the
// provider drops connections often enough to warrant it.
func NewFederalRegister() *FederalRegister {
	return &FederalRegister{
		http:    newHTTPClient(federalRegisterInterval, nil, 1),
		baseURL: federalRegisterBaseURL,
	}
}

// eoListFields is the field projection for listings, matching what the
// pipeline consumes.
var eoListFields = []string{
	"document_number", "title", "executive_order_number", "signing_date",
	"publication_date", "president", "raw_text_url", "html_url", "agencies", "citation",
}

// ListExecutiveOrders returns all Executive Orders signed in the date range.
func (f *FederalRegister) ListExecutiveOrders(ctx context.Context, startDate, endDate string) ([]ExecutiveOrder, error) {
	var orders []ExecutiveOrder

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("conditions[type]", "PRESDOCU")
		params.Set("conditions[presidential_document_type]", "executive_order")
		params.Set("conditions[signing_date][gte]", startDate)
		params.Set("conditions[signing_date][lte]", endDate)
		params.Set("per_page", strconv.Itoa(eoPageSize))
		params.Set("page", strconv.Itoa(page))
		for _, field := range eoListFields {
			params.Add("fields[]", field)
		}

		var result eoListPage
		if err := f.http.getJSON(ctx, f.baseURL+"/documents?"+params.Encode(), &result); err != nil {
			return nil, err
		}
		logging.APIDebug("fetched executive orders page %d/%d: %d results", page, result.TotalPages, len(result.Results))
		orders = append(orders, result.Results...)

		if page >= result.TotalPages || len(result.Results) == 0 {
			break
		}
	}
	return orders, nil
}

// GetExecutiveOrder fetches one order by document number.
func (f *FederalRegister) GetExecutiveOrder(ctx context.Context, documentNumber string) (*ExecutiveOrder, error) {
	var eo ExecutiveOrder
	if err := f.http.getJSON(ctx, f.baseURL+"/documents/"+documentNumber, &eo); err != nil {
		return nil, err
	}
	return &eo, nil
}

// GetRawText fetches an order's body from its raw_text_url. HTML bodies
// are stripped to plain text before use.
func (f *FederalRegister) GetRawText(ctx context.Context, rawTextURL string) (string, error) {
	body, err := f.http.get(ctx, rawTextURL)
	if err != nil {
		return "", err
	}
	text := string(body)
	if LooksLikeHTML(text) {
		text = StripHTML(text)
	}
	return text, nil
}
