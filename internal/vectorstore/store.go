// Package vectorstore wraps the Qdrant client behind the operations the
// pipeline needs: collection lifecycle, deterministic ID mapping, batch
// upsert with per-batch failure isolation, point retrieval, and filtered
// similarity search.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"govreporter/internal/logging"
	"govreporter/internal/models"
)

// =============================================================================
// COLLECTIONS
// =============================================================================

// Collection names, one per document type.
const (
	CollectionSCOTUS = "supreme_court_opinions"
	CollectionEO     = "executive_orders"
)

// CollectionFor returns the collection name for a document kind.
func CollectionFor(kind models.DocumentKind) string {
	if kind == models.KindExecutiveOrder {
		return CollectionEO
	}
	return CollectionSCOTUS
}

// VectorSize is the fixed dimensionality of every collection.
const VectorSize = 1536

// =============================================================================
// STORE
// =============================================================================

// Store is the Qdrant adapter. It is safe for concurrent use per the
// client's contract; no additional locking is added here.
type Store struct {
	client *qdrant.Client
}

// New connects to Qdrant over gRPC.
func New(host string, port int, useTLS bool, apiKey string) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		UseTLS: useTLS,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant at %s:%d: %w", host, port, err)
	}
	logging.Store("connected to qdrant at %s:%d", host, port)
	return &Store{client: client}, nil
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// PointID maps an arbitrary payload id to a stable UUID, since the store
// only accepts UUID point ids. The mapping is deterministic so re-ingesting
// a document overwrites its chunks in place.
func PointID(payloadID string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(payloadID)).String()
}

// =============================================================================
// COLLECTION LIFECYCLE
// =============================================================================

// EnsureCollection creates a collection with the fixed vector size and
// cosine distance. No-op when the collection already exists.
func (s *Store) EnsureCollection(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	logging.Store("created collection %s (size=%d, distance=cosine)", name, VectorSize)
	return nil
}

// DeleteCollection removes a collection and everything in it.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	logging.Store("deleted collection %s", name)
	return nil
}

// ListCollections returns the names of all collections.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// CollectionDetails summarizes one collection for the info command.
type CollectionDetails struct {
	PointsCount uint64
	VectorSize  uint64
	Distance    string
}

// CollectionInfo returns point count and vector schema for a collection.
func (s *Store) CollectionInfo(ctx context.Context, name string) (*CollectionDetails, error) {
	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get info for collection %s: %w", name, err)
	}

	details := &CollectionDetails{}
	if info.PointsCount != nil {
		details.PointsCount = *info.PointsCount
	}
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		details.VectorSize = params.Size
		details.Distance = params.Distance.String()
	}
	return details, nil
}

// =============================================================================
// UPSERT
// =============================================================================

// Point pairs a payload with its embedding.
type Point struct {
	Payload models.Payload
	Vector  []float32
}

// StoreBatch upserts points in sub-batches. A failed sub-batch does not
// abort later ones; its payload ids are reported back instead. Vector size
// is validated for every point before anything is sent.
func (s *Store) StoreBatch(ctx context.Context, points []Point, collection string, batchSize int) (int, []string, error) {
	timer := logging.StartTimer(logging.CategoryStore, "StoreBatch")
	defer timer.StopWithInfo()

	for _, p := range points {
		if len(p.Vector) != VectorSize {
			return 0, nil, fmt.Errorf("point %s has a %d-d vector, collections are fixed at %d",
				p.Payload.ID, len(p.Vector), VectorSize)
		}
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	var nSuccess int
	var failedIDs []string

	for start := 0; start < len(points); start += batchSize {
		end := start + batchSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[start:end]

		structs := make([]*qdrant.PointStruct, 0, len(batch))
		for _, p := range batch {
			structs = append(structs, &qdrant.PointStruct{
				Id:      qdrant.NewID(PointID(p.Payload.ID)),
				Vectors: qdrant.NewVectors(p.Vector...),
				Payload: qdrant.NewValueMap(wirePayload(p.Payload)),
			})
		}

		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         structs,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			logging.StoreError("upsert of %d points to %s failed: %v", len(batch), collection, err)
			for _, p := range batch {
				failedIDs = append(failedIDs, p.Payload.ID)
			}
			continue
		}
		nSuccess += len(batch)
	}

	logging.Store("stored %d/%d points in %s (%d failed)", nSuccess, len(points), collection, len(failedIDs))
	return nSuccess, failedIDs, nil
}

// wirePayload flattens a payload for storage. The original id rides along
// under original_id so it survives the UUID mapping.
func wirePayload(p models.Payload) map[string]any {
	wire := make(map[string]any, len(p.Metadata)+2)
	for k, v := range p.Metadata {
		wire[k] = v
	}
	wire["text"] = p.Text
	wire["original_id"] = p.ID
	return wire
}

// =============================================================================
// RETRIEVAL
// =============================================================================

// Get returns the payload stored under a (pre-mapping) payload id, or nil
// when the point does not exist.
func (s *Store) Get(ctx context.Context, id, collection string) (*models.Payload, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(PointID(id))},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get point %s from %s: %w", id, collection, err)
	}
	if len(points) == 0 {
		return nil, nil
	}
	payload := parseWirePayload(points[0].Payload)
	return &payload, nil
}

// Exists reports whether a payload id is stored, without fetching its
// payload.
func (s *Store) Exists(ctx context.Context, id, collection string) (bool, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(PointID(id))},
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return false, fmt.Errorf("failed to check point %s in %s: %w", id, collection, err)
	}
	return len(points) > 0, nil
}

// =============================================================================
// SEARCH
// =============================================================================

// SearchResult is one scored hit.
type SearchResult struct {
	Score   float32
	Payload models.Payload
}

// MatchFilter builds an equality filter: every key must match its value.
// A nil return means no filtering.
func MatchFilter(fields map[string]string) *qdrant.Filter {
	if len(fields) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(fields))
	for k, v := range fields {
		conditions = append(conditions, qdrant.NewMatch(k, v))
	}
	return &qdrant.Filter{Must: conditions}
}

// Search runs a similarity query, ordered by descending score.
func (s *Store) Search(ctx context.Context, vector []float32, collection string, limit int, scoreThreshold *float32, filter *qdrant.Filter) ([]SearchResult, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Search")
	defer timer.Stop()

	if len(vector) != VectorSize {
		return nil, fmt.Errorf("query vector is %d-d, collections are fixed at %d", len(vector), VectorSize)
	}
	if limit <= 0 {
		limit = 10
	}

	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: scoreThreshold,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search in %s failed: %w", collection, err)
	}

	results := make([]SearchResult, 0, len(scored))
	for _, point := range scored {
		results = append(results, SearchResult{
			Score:   point.Score,
			Payload: parseWirePayload(point.Payload),
		})
	}
	return results, nil
}
