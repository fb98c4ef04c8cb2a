package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"govreporter/internal/chunking"
	"govreporter/internal/llm"
	"govreporter/internal/models"
	"govreporter/internal/tokens"
	"govreporter/internal/tracker"
	"govreporter/internal/vectorstore"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeSource struct {
	docs       map[string]*models.Document
	order      []string
	failFetch  map[string]error
	fetchCalls int32
}

func (f *fakeSource) Kind() models.DocumentKind { return models.KindSCOTUS }

func (f *fakeSource) List(ctx context.Context, start, end string) ([]ListedDocument, error) {
	listed := make([]ListedDocument, 0, len(f.order))
	for _, id := range f.order {
		listed = append(listed, ListedDocument{ID: id})
	}
	return listed, nil
}

func (f *fakeSource) Fetch(ctx context.Context, id string) (*models.Document, error) {
	atomic.AddInt32(&f.fetchCalls, 1)
	if err, ok := f.failFetch[id]; ok {
		return nil, err
	}
	return f.docs[id], nil
}

type fakeExtractor struct{}

func (fakeExtractor) ExtractSCOTUS(ctx context.Context, text, syllabus string) (*llm.SCOTUSFields, error) {
	return &llm.SCOTUSFields{
		HoldingPlain:        "held",
		TopicsOrPolicyAreas: []string{"a", "b", "c", "d", "e"},
	}, nil
}

func (fakeExtractor) ExtractEO(ctx context.Context, text string) (*llm.EOFields, error) {
	return &llm.EOFields{TopicsOrPolicyAreas: []string{"a", "b", "c", "d", "e"}}, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, 1536), nil
}

func (fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = make([]float32, 1536)
	}
	return vecs, nil
}

func (fakeEmbedder) Dimensions() int { return 1536 }
func (fakeEmbedder) Name() string    { return "fake" }

type fakeStore struct {
	ensured    []string
	stored     []vectorstore.Point
	storeCalls int
	failAll    bool
}

func (f *fakeStore) EnsureCollection(ctx context.Context, name string) error {
	f.ensured = append(f.ensured, name)
	return nil
}

func (f *fakeStore) StoreBatch(ctx context.Context, points []vectorstore.Point, collection string, batchSize int) (int, []string, error) {
	f.storeCalls++
	if f.failAll {
		ids := make([]string, len(points))
		for i, p := range points {
			ids[i] = p.Payload.ID
		}
		return 0, ids, nil
	}
	f.stored = append(f.stored, points...)
	return len(points), nil, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func testDoc(id string) *models.Document {
	return &models.Document{
		ID:      id,
		Title:   "Case " + id,
		Date:    "2024-03-15",
		Kind:    models.KindSCOTUS,
		Content: strings.Repeat("The court considered the record below. ", 30),
		URL:     "https://example.com/" + id,
	}
}

func newTestRunner(t *testing.T, src Source, store VectorStore, opts Options) (*Runner, *tracker.Tracker) {
	t.Helper()
	tr, err := tracker.New(filepath.Join(t.TempDir(), "progress.db"), "supreme_court_opinion")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tr.Close() })

	chunker, err := chunking.New(models.KindSCOTUS, chunking.DefaultSCOTUSConfig(), tokens.ApproxCounter{})
	if err != nil {
		t.Fatal(err)
	}

	r, err := NewRunner(src, chunker, fakeExtractor{}, fakeEmbedder{}, store, tr, opts)
	if err != nil {
		t.Fatal(err)
	}
	return r, tr
}

// =============================================================================
// TESTS
// =============================================================================

func TestRunHappyPath(t *testing.T) {
	src := &fakeSource{
		order: []string{"1", "2"},
		docs:  map[string]*models.Document{"1": testDoc("1"), "2": testDoc("2")},
	}
	store := &fakeStore{}
	r, tr := newTestRunner(t, src, store, Options{StartDate: "2024-01-01", EndDate: "2024-06-30"})

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Interrupted {
		t.Error("run should not be interrupted")
	}
	if summary.Stats.Completed != 2 || summary.Stats.Failed != 0 {
		t.Errorf("stats = %+v", summary.Stats)
	}
	if summary.PointsStored != 2 {
		t.Errorf("points stored = %d, want 2 (one chunk per short document)", summary.PointsStored)
	}
	if len(store.ensured) != 1 || store.ensured[0] != "supreme_court_opinions" {
		t.Errorf("ensured collections = %v", store.ensured)
	}
	for _, id := range []string{"1", "2"} {
		state, _ := tr.GetState(id)
		if state != tracker.StateCompleted {
			t.Errorf("document %s state = %q, want completed", id, state)
		}
	}

	// Payloads carry the run annotation.
	if _, ok := store.stored[0].Payload.Metadata["ingested_at"]; !ok {
		t.Error("ingested_at missing from stored payload")
	}
}

func TestPerDocumentFailureIsolated(t *testing.T) {
	src := &fakeSource{
		order:     []string{"1", "2", "3"},
		docs:      map[string]*models.Document{"1": testDoc("1"), "3": testDoc("3")},
		failFetch: map[string]error{"2": fmt.Errorf("opinion 2 belongs to court_id %q, not scotus", "ca9")},
	}
	store := &fakeStore{}
	r, tr := newTestRunner(t, src, store, Options{})

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Stats.Completed != 2 || summary.Stats.Failed != 1 {
		t.Errorf("stats = %+v", summary.Stats)
	}
	if state, _ := tr.GetState("2"); state != tracker.StateFailed {
		t.Errorf("document 2 state = %q, want failed", state)
	}
	if len(summary.Stats.FailedDocuments) != 1 ||
		!strings.Contains(summary.Stats.FailedDocuments[0].Error, "not scotus") {
		t.Errorf("failure not recorded: %+v", summary.Stats.FailedDocuments)
	}
}

func TestDryRunSkipsStore(t *testing.T) {
	src := &fakeSource{
		order: []string{"1"},
		docs:  map[string]*models.Document{"1": testDoc("1")},
	}
	store := &fakeStore{}
	r, _ := newTestRunner(t, src, store, Options{DryRun: true})

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.storeCalls != 0 || len(store.ensured) != 0 {
		t.Errorf("dry run touched the store: calls=%d ensured=%v", store.storeCalls, store.ensured)
	}
	// The document is still processed and tracked.
	if summary.Stats.Completed != 1 {
		t.Errorf("stats = %+v", summary.Stats)
	}
}

func TestResumeSkipsCompleted(t *testing.T) {
	src := &fakeSource{
		order: []string{"1", "2"},
		docs:  map[string]*models.Document{"1": testDoc("1"), "2": testDoc("2")},
	}
	store := &fakeStore{}
	r, tr := newTestRunner(t, src, store, Options{})

	// Document 1 finished in a previous run.
	tr.AddDocument("1", nil)
	tr.MarkProcessing("1")
	tr.MarkCompleted("1", 100)

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1 (completed document skipped)", src.fetchCalls)
	}
	if summary.Stats.Completed != 2 {
		t.Errorf("stats = %+v", summary.Stats)
	}
}

func TestInterruptedRunAborts(t *testing.T) {
	src := &fakeSource{
		order: []string{"1", "2"},
		docs:  map[string]*models.Document{"1": testDoc("1"), "2": testDoc("2")},
	}
	store := &fakeStore{}
	r, _ := newTestRunner(t, src, store, Options{BatchSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.Interrupted {
		t.Error("cancelled run should report interruption")
	}
	if src.fetchCalls != 0 {
		t.Errorf("fetch calls = %d, want 0 after pre-cancelled context", src.fetchCalls)
	}
}

func TestUpsertFailuresReported(t *testing.T) {
	src := &fakeSource{
		order: []string{"1"},
		docs:  map[string]*models.Document{"1": testDoc("1")},
	}
	store := &fakeStore{failAll: true}
	r, _ := newTestRunner(t, src, store, Options{})

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.PointsStored != 0 {
		t.Errorf("points stored = %d, want 0", summary.PointsStored)
	}
	if len(summary.FailedUpserts) != 1 || summary.FailedUpserts[0] != "1_chunk_0" {
		t.Errorf("failed upserts = %v", summary.FailedUpserts)
	}
}
