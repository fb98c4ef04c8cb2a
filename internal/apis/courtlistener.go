package apis

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"govreporter/internal/logging"
)

// =============================================================================
// COURT LISTENER CLIENT
// =============================================================================

const (
	courtListenerBaseURL = "https://www.courtlistener.com/api/rest/v4"

	// courtListenerInterval spaces requests per the provider's guidance.
	courtListenerInterval = 100 * time.Millisecond
)

// Opinion is one record from the opinions endpoint.
type Opinion struct {
	ID                int    `json:"id"`
	Cluster           string `json:"cluster"`
	PlainText         string `json:"plain_text"`
	HTML              string `json:"html"`
	HTMLWithCitations string `json:"html_with_citations"`
	AuthorID          string `json:"author_str"`
	DownloadURL       string `json:"download_url"`
	Type              string `json:"type"`
	PageCount         int    `json:"page_count"`
	DateCreated       string `json:"date_created"`
}

// Text returns the opinion body, preferring plain text and falling back to
// stripped HTML variants.
func (o *Opinion) Text() string {
	if o.PlainText != "" {
		return o.PlainText
	}
	if o.HTMLWithCitations != "" {
		return StripHTML(o.HTMLWithCitations)
	}
	if o.HTML != "" {
		return StripHTML(o.HTML)
	}
	return ""
}

// ClusterCitation is one reporter citation on a cluster. Type 1 is the
// official U.S. Reports citation.
type ClusterCitation struct {
	Volume   int    `json:"volume"`
	Reporter string `json:"reporter"`
	Page     string `json:"page"`
	Type     int    `json:"type"`
}

// Cluster groups the opinions of one decided case.
type Cluster struct {
	ID                int               `json:"id"`
	CaseName          string            `json:"case_name"`
	CaseNameShort     string            `json:"case_name_short"`
	Citations         []ClusterCitation `json:"citations"`
	DateFiled         string            `json:"date_filed"`
	Docket            string            `json:"docket"`
	ScdbVotesMajority int               `json:"scdb_votes_majority"`
	ScdbVotesMinority int               `json:"scdb_votes_minority"`
	Judges            string            `json:"judges"`
}

// Docket identifies the court a case was filed in.
type Docket struct {
	ID           int    `json:"id"`
	CourtID      string `json:"court_id"`
	CaseName     string `json:"case_name"`
	DocketNumber string `json:"docket_number"`
}

// opinionListPage is one page of the paginated opinions listing.
type opinionListPage struct {
	Count   int       `json:"count"`
	Next    string    `json:"next"`
	Results []Opinion `json:"results"`
}

// CourtListener is the client for the CourtListener REST API.
type CourtListener struct {
	http    *httpClient
	baseURL string
}

// NewCourtListener builds a client. The API token is required; its absence
// is a construction-time error.
func NewCourtListener(token string) (*CourtListener, error) {
	if token == "" {
		return nil, fmt.Errorf("CourtListener API token is required")
	}
	return &CourtListener{
		http: newHTTPClient(courtListenerInterval, map[string]string{
			"Authorization": "Token " + token,
		}, 0),
		baseURL: courtListenerBaseURL,
	}, nil
}

// GetOpinion fetches one opinion by id.
func (c *CourtListener) GetOpinion(ctx context.Context, id string) (*Opinion, error) {
	var op Opinion
	if err := c.http.getJSON(ctx, c.baseURL+"/opinions/"+id+"/", &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// GetCluster fetches a cluster by the URL an opinion carries.
func (c *CourtListener) GetCluster(ctx context.Context, clusterURL string) (*Cluster, error) {
	var cl Cluster
	if err := c.http.getJSON(ctx, clusterURL, &cl); err != nil {
		return nil, err
	}
	return &cl, nil
}

// GetDocket fetches a docket by the URL a cluster carries.
func (c *CourtListener) GetDocket(ctx context.Context, docketURL string) (*Docket, error) {
	var d Docket
	if err := c.http.getJSON(ctx, docketURL, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// OpinionIterator pages through an opinions listing lazily. Next returns
// nil when the upstream cursor is exhausted.
type OpinionIterator struct {
	client  *CourtListener
	nextURL string
	buffer  []Opinion
}

// ListOpinions starts a date-filtered listing of Supreme Court opinions.
func (c *CourtListener) ListOpinions(startDate, endDate string) *OpinionIterator {
	params := url.Values{}
	params.Set("cluster__docket__court", "scotus")
	params.Set("date_created__gte", startDate)
	params.Set("date_created__lte", endDate)
	params.Set("order_by", "id")

	return &OpinionIterator{
		client:  c,
		nextURL: c.baseURL + "/opinions/?" + params.Encode(),
	}
}

// Next returns the next listed opinion, fetching pages as needed. A nil
// opinion with nil error means the listing is exhausted.
func (it *OpinionIterator) Next(ctx context.Context) (*Opinion, error) {
	for len(it.buffer) == 0 {
		if it.nextURL == "" {
			return nil, nil
		}

		var page opinionListPage
		if err := it.client.http.getJSON(ctx, it.nextURL, &page); err != nil {
			return nil, err
		}
		logging.APIDebug("fetched opinions page: %d results, next=%v", len(page.Results), page.Next != "")
		it.buffer = page.Results
		it.nextURL = page.Next

		if len(page.Results) == 0 && page.Next == "" {
			return nil, nil
		}
	}

	op := it.buffer[0]
	it.buffer = it.buffer[1:]
	return &op, nil
}

// OpinionID renders an opinion's numeric id as the tracker key.
func OpinionID(op *Opinion) string {
	return strconv.Itoa(op.ID)
}
