package ingest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"govreporter/internal/apis"
	"govreporter/internal/citations"
	"govreporter/internal/logging"
	"govreporter/internal/models"
)

// =============================================================================
// SCOTUS SOURCE
// =============================================================================

// SCOTUSSource lists and fetches Supreme Court opinions from CourtListener.
// Cluster and docket lookups are cached per run since multiple opinions can
// share a cluster.
type SCOTUSSource struct {
	client *apis.CourtListener

	mu       sync.Mutex
	clusters map[string]*apis.Cluster
}

// NewSCOTUSSource wraps a CourtListener client.
func NewSCOTUSSource(client *apis.CourtListener) *SCOTUSSource {
	return &SCOTUSSource{
		client:   client,
		clusters: make(map[string]*apis.Cluster),
	}
}

// Kind identifies this source's documents.
func (s *SCOTUSSource) Kind() models.DocumentKind {
	return models.KindSCOTUS
}

// List walks the date-filtered opinions listing to exhaustion.
func (s *SCOTUSSource) List(ctx context.Context, startDate, endDate string) ([]ListedDocument, error) {
	it := s.client.ListOpinions(startDate, endDate)

	var listed []ListedDocument
	for {
		op, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if op == nil {
			return listed, nil
		}
		listed = append(listed, ListedDocument{
			ID: apis.OpinionID(op),
			Metadata: map[string]any{
				"type":         op.Type,
				"date_created": op.DateCreated,
			},
		})
	}
}

// Fetch walks opinion -> cluster -> docket and asserts the case belongs to
// the Supreme Court. Non-SCOTUS documents fail with a descriptive error so
// the tracker records why they were skipped.
func (s *SCOTUSSource) Fetch(ctx context.Context, id string) (*models.Document, error) {
	op, err := s.client.GetOpinion(ctx, id)
	if err != nil {
		return nil, err
	}

	cluster, err := s.cluster(ctx, op.Cluster)
	if err != nil {
		return nil, err
	}
	docket, err := s.client.GetDocket(ctx, cluster.Docket)
	if err != nil {
		return nil, err
	}
	if docket.CourtID != "scotus" {
		return nil, fmt.Errorf("opinion %s belongs to court_id %q, not scotus", id, docket.CourtID)
	}

	text := op.Text()
	meta := map[string]any{
		"docket_number":   docket.DocketNumber,
		"majority_author": op.AuthorID,
		"case_name_short": cluster.CaseNameShort,
	}
	if cluster.ScdbVotesMajority > 0 {
		meta["vote_majority"] = cluster.ScdbVotesMajority
		meta["vote_minority"] = cluster.ScdbVotesMinority
	}
	if bluebook := bluebookCitation(cluster); bluebook != "" {
		meta["citation"] = bluebook
	}

	return &models.Document{
		ID:       id,
		Title:    cluster.CaseName,
		Date:     cluster.DateFiled,
		Kind:     models.KindSCOTUS,
		Content:  text,
		URL:      fmt.Sprintf("https://www.courtlistener.com/opinion/%s/", id),
		Metadata: meta,
	}, nil
}

// cluster fetches a cluster with per-run caching.
func (s *SCOTUSSource) cluster(ctx context.Context, url string) (*apis.Cluster, error) {
	s.mu.Lock()
	cached, ok := s.clusters[url]
	s.mu.Unlock()
	if ok {
		logging.APIDebug("cluster cache hit: %s", url)
		return cached, nil
	}

	cluster, err := s.client.GetCluster(ctx, url)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.clusters[url] = cluster
	s.mu.Unlock()
	return cluster, nil
}

// bluebookCitation formats the cluster's official citation. CourtListener
// reports volume as an integer, with 0 meaning not yet assigned.
func bluebookCitation(cluster *apis.Cluster) string {
	cites := make([]citations.ClusterCitation, 0, len(cluster.Citations))
	for _, c := range cluster.Citations {
		volume := ""
		if c.Volume > 0 {
			volume = strconv.Itoa(c.Volume)
		}
		cites = append(cites, citations.ClusterCitation{
			Type:     c.Type,
			Volume:   volume,
			Reporter: c.Reporter,
			Page:     c.Page,
		})
	}
	return citations.BuildBluebookCitation(cites, cluster.DateFiled)
}
