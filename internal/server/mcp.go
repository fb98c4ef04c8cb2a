// Package server exposes the ingested corpus over the Model Context
// Protocol, so MCP-capable clients can run semantic search against the
// vector store and fetch stored chunks by id.
package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/qdrant/go-client/qdrant"

	"govreporter/internal/embedding"
	"govreporter/internal/logging"
	"govreporter/internal/models"
	"govreporter/internal/vectorstore"
)

// =============================================================================
// MCP SERVER
// =============================================================================

// Searcher is the vector-store surface the server needs.
type Searcher interface {
	Search(ctx context.Context, vector []float32, collection string, limit int, scoreThreshold *float32, filter *qdrant.Filter) ([]vectorstore.SearchResult, error)
	Get(ctx context.Context, id, collection string) (*models.Payload, error)
}

// Server answers MCP tool calls with vector search over the document
// collections.
type Server struct {
	embedder embedding.Engine
	store    Searcher
}

// New wires a server from its dependencies.
func New(embedder embedding.Engine, store Searcher) (*Server, error) {
	if embedder == nil || store == nil {
		return nil, fmt.Errorf("server requires an embedder and a store")
	}
	return &Server{embedder: embedder, store: store}, nil
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	impl := mcp.NewServer(&mcp.Implementation{
		Name:    "govreporter",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(impl, &mcp.Tool{
		Name: "search_government_documents",
		Description: "Semantic search across all ingested U.S. government documents: " +
			"Supreme Court opinions and Executive Orders. Returns the most relevant " +
			"chunks with their document metadata.",
	}, s.searchAll)

	mcp.AddTool(impl, &mcp.Tool{
		Name: "search_scotus_opinions",
		Description: "Semantic search over Supreme Court opinion chunks. Optionally " +
			"restrict to one opinion section, e.g. \"Syllabus\" or a specific " +
			"justice's opinion label.",
	}, s.searchSCOTUS)

	mcp.AddTool(impl, &mcp.Tool{
		Name: "search_executive_orders",
		Description: "Semantic search over Executive Order chunks. Optionally restrict " +
			"to orders signed by one president.",
	}, s.searchEO)

	mcp.AddTool(impl, &mcp.Tool{
		Name: "get_document_by_id",
		Description: "Fetch one stored chunk by its id (\"<document_id>_chunk_<n>\") " +
			"from a named collection.",
	}, s.getDocument)

	logging.Server("MCP server listening on stdio")
	return impl.Run(ctx, &mcp.StdioTransport{})
}

// =============================================================================
// TOOL INPUTS AND OUTPUTS
// =============================================================================

// Hit is one search result row.
type Hit struct {
	Score        float32 `json:"score"`
	ID           string  `json:"id"`
	Title        string  `json:"title,omitempty"`
	Type         string  `json:"type,omitempty"`
	Date         string  `json:"date,omitempty"`
	SectionLabel string  `json:"section_label,omitempty"`
	URL          string  `json:"url,omitempty"`
	Text         string  `json:"text"`
}

// SearchOutput is the result list shared by the search tools.
type SearchOutput struct {
	Results []Hit `json:"results"`
}

// SearchAllInput selects results from every collection.
type SearchAllInput struct {
	Query string `json:"query" jsonschema:"the search query in natural language"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum results per collection (default 5)"`
}

// SearchSCOTUSInput searches Supreme Court opinions.
type SearchSCOTUSInput struct {
	Query        string `json:"query" jsonschema:"the search query in natural language"`
	SectionLabel string `json:"section_label,omitempty" jsonschema:"restrict to one section label, e.g. Syllabus"`
	Justice      string `json:"justice,omitempty" jsonschema:"restrict to opinions authored by this justice"`
	Limit        int    `json:"limit,omitempty" jsonschema:"maximum results (default 10)"`
}

// SearchEOInput searches Executive Orders.
type SearchEOInput struct {
	Query     string `json:"query" jsonschema:"the search query in natural language"`
	President string `json:"president,omitempty" jsonschema:"restrict to orders signed by this president"`
	Agency    string `json:"agency,omitempty" jsonschema:"restrict to orders naming this agency"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum results (default 10)"`
}

// GetDocumentInput fetches one chunk by id.
type GetDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"the chunk id, <document_id>_chunk_<n>"`
	Collection string `json:"collection" jsonschema:"supreme_court_opinions or executive_orders"`
}

// GetDocumentOutput is the fetched chunk, or found=false.
type GetDocumentOutput struct {
	Found    bool           `json:"found"`
	ID       string         `json:"id,omitempty"`
	Text     string         `json:"text,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// =============================================================================
// TOOL HANDLERS
// =============================================================================

func (s *Server) searchAll(ctx context.Context, _ *mcp.CallToolRequest, input SearchAllInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}

	vec, err := s.embedder.Embed(ctx, input.Query)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	var out SearchOutput
	for _, collection := range []string{vectorstore.CollectionSCOTUS, vectorstore.CollectionEO} {
		results, err := s.store.Search(ctx, vec, collection, limit, nil, nil)
		if err != nil {
			logging.ServerDebug("search in %s failed: %v", collection, err)
			continue
		}
		out.Results = append(out.Results, toHits(results)...)
	}
	return nil, out, nil
}

func (s *Server) searchSCOTUS(ctx context.Context, _ *mcp.CallToolRequest, input SearchSCOTUSInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	vec, err := s.embedder.Embed(ctx, input.Query)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	fields := map[string]string{}
	if input.SectionLabel != "" {
		fields["section_label"] = input.SectionLabel
	}
	if input.Justice != "" {
		fields["majority_author"] = input.Justice
	}
	filter := vectorstore.MatchFilter(fields)
	results, err := s.store.Search(ctx, vec, vectorstore.CollectionSCOTUS, limit, nil, filter)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Results: toHits(results)}, nil
}

func (s *Server) searchEO(ctx context.Context, _ *mcp.CallToolRequest, input SearchEOInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	vec, err := s.embedder.Embed(ctx, input.Query)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	fields := map[string]string{}
	if input.President != "" {
		fields["president"] = input.President
	}
	if input.Agency != "" {
		fields["agencies_or_entities"] = input.Agency
	}
	filter := vectorstore.MatchFilter(fields)
	results, err := s.store.Search(ctx, vec, vectorstore.CollectionEO, limit, nil, filter)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Results: toHits(results)}, nil
}

func (s *Server) getDocument(ctx context.Context, _ *mcp.CallToolRequest, input GetDocumentInput) (*mcp.CallToolResult, GetDocumentOutput, error) {
	if input.DocumentID == "" || input.Collection == "" {
		return nil, GetDocumentOutput{}, fmt.Errorf("document_id and collection are required")
	}

	p, err := s.store.Get(ctx, input.DocumentID, input.Collection)
	if err != nil {
		return nil, GetDocumentOutput{}, err
	}
	if p == nil {
		return nil, GetDocumentOutput{Found: false}, nil
	}
	return nil, GetDocumentOutput{
		Found:    true,
		ID:       p.ID,
		Text:     p.Text,
		Metadata: p.Metadata,
	}, nil
}

// toHits projects payload metadata into the result rows.
func toHits(results []vectorstore.SearchResult) []Hit {
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hit := Hit{
			Score: r.Score,
			ID:    r.Payload.ID,
			Text:  r.Payload.Text,
		}
		hit.Title, _ = r.Payload.Metadata["title"].(string)
		hit.Type, _ = r.Payload.Metadata["type"].(string)
		hit.Date, _ = r.Payload.Metadata["publication_date"].(string)
		hit.SectionLabel, _ = r.Payload.Metadata["section_label"].(string)
		hit.URL, _ = r.Payload.Metadata["url"].(string)
		hits = append(hits, hit)
	}
	return hits
}
