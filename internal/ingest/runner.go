// Package ingest drives the pipeline end to end: list source documents,
// dedupe against the progress tracker, then per document fetch, chunk,
// extract, embed, and upsert. The orchestrator is the only tracker writer;
// batch workers report results over a channel.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"govreporter/internal/chunking"
	"govreporter/internal/embedding"
	"govreporter/internal/llm"
	"govreporter/internal/logging"
	"govreporter/internal/models"
	"govreporter/internal/payload"
	"govreporter/internal/tracker"
	"govreporter/internal/vectorstore"
)

// =============================================================================
// INTERFACES
// =============================================================================

// ListedDocument is one entry from an upstream listing: the id plus the
// listing fields worth keeping in the tracker.
type ListedDocument struct {
	ID       string
	Metadata map[string]any
}

// Source lists and fetches documents for one document type.
type Source interface {
	// Kind tags the documents this source produces.
	Kind() models.DocumentKind

	// List returns the ids of all documents in the date range.
	List(ctx context.Context, startDate, endDate string) ([]ListedDocument, error)

	// Fetch retrieves and validates one full document. Validation failures
	// (wrong court, missing text) are per-document errors, not fatal.
	Fetch(ctx context.Context, id string) (*models.Document, error)
}

// Extractor is the LLM metadata extraction surface the runner needs.
type Extractor interface {
	ExtractSCOTUS(ctx context.Context, text, syllabus string) (*llm.SCOTUSFields, error)
	ExtractEO(ctx context.Context, text string) (*llm.EOFields, error)
}

// VectorStore is the storage surface the runner needs.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string) error
	StoreBatch(ctx context.Context, points []vectorstore.Point, collection string, batchSize int) (int, []string, error)
}

// =============================================================================
// RUNNER
// =============================================================================

// Options configures one ingestion run.
type Options struct {
	StartDate       string
	EndDate         string
	BatchSize       int  // documents per batch (default 50)
	UpsertBatchSize int  // points per upsert sub-batch (default 100)
	Workers         int  // parallel document workers (default 1)
	DryRun          bool // process but do not store
}

// drainTimeout bounds how long an interrupted run waits for in-flight
// workers before exiting.
const drainTimeout = 30 * time.Second

// Summary is what a run reports when it finishes or is interrupted.
type Summary struct {
	Stats         *tracker.Statistics
	PointsStored  int
	FailedUpserts []string
	Interrupted   bool
}

// Runner executes one ingestion run for one document type. All
// dependencies are injected; the runner owns no construction.
type Runner struct {
	source     Source
	chunker    *chunking.Chunker
	extractor  Extractor
	embedder   embedding.Engine
	store      VectorStore
	tracker    *tracker.Tracker
	collection string
	opts       Options
}

// NewRunner wires a runner from its dependencies.
func NewRunner(source Source, chunker *chunking.Chunker, extractor Extractor,
	embedder embedding.Engine, store VectorStore, tr *tracker.Tracker, opts Options) (*Runner, error) {

	if source == nil || chunker == nil || extractor == nil || embedder == nil || store == nil || tr == nil {
		return nil, fmt.Errorf("runner requires all pipeline dependencies")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.UpsertBatchSize <= 0 {
		opts.UpsertBatchSize = 100
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Runner{
		source:     source,
		chunker:    chunker,
		extractor:  extractor,
		embedder:   embedder,
		store:      store,
		tracker:    tr,
		collection: vectorstore.CollectionFor(source.Kind()),
		opts:       opts,
	}, nil
}

// Run executes the full pipeline. A context cancellation is a clean
// interrupt: the current partial batch is flushed, the run is recorded as
// aborted, and the summary is still returned.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	timer := logging.StartTimer(logging.CategoryIngest, "Run")
	defer timer.Stop()

	// Rows stuck in processing mean a prior run crashed mid-document.
	if _, err := r.tracker.ResetProcessingStatus(); err != nil {
		return nil, err
	}

	runID, err := r.tracker.StartRun(r.opts.StartDate, r.opts.EndDate, map[string]any{
		"batch_size": r.opts.BatchSize,
		"workers":    r.opts.Workers,
		"dry_run":    r.opts.DryRun,
	})
	if err != nil {
		return nil, err
	}
	outcome := tracker.RunCompleted
	defer func() {
		if err := r.tracker.EndRun(runID, outcome); err != nil {
			logging.IngestError("failed to record run end: %v", err)
		}
	}()

	listed, err := r.source.List(ctx, r.opts.StartDate, r.opts.EndDate)
	if err != nil {
		outcome = tracker.RunAborted
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	logging.Ingest("listed %d documents for %s..%s", len(listed), r.opts.StartDate, r.opts.EndDate)

	for _, d := range listed {
		if err := r.tracker.AddDocument(d.ID, d.Metadata); err != nil {
			outcome = tracker.RunAborted
			return nil, err
		}
	}

	pending, err := r.tracker.GetPendingDocuments()
	if err != nil {
		outcome = tracker.RunAborted
		return nil, err
	}
	logging.Ingest("%d documents pending", len(pending))

	if !r.opts.DryRun {
		if err := r.store.EnsureCollection(ctx, r.collection); err != nil {
			outcome = tracker.RunAborted
			return nil, err
		}
	}

	summary := &Summary{}
	for start := 0; start < len(pending); start += r.opts.BatchSize {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		end := start + r.opts.BatchSize
		if end > len(pending) {
			end = len(pending)
		}

		interrupted := r.runBatch(ctx, pending[start:end], summary)
		if interrupted {
			summary.Interrupted = true
			break
		}
	}

	if summary.Interrupted {
		outcome = tracker.RunAborted
		logging.IngestWarn("run interrupted, tracker reflects progress so far")
	}

	stats, err := r.tracker.GetStatistics()
	if err != nil {
		return summary, err
	}
	summary.Stats = stats
	return summary, nil
}

// runBatch processes one batch of document ids with the worker pool, then
// flushes the accumulated points. Returns true when interrupted.
func (r *Runner) runBatch(ctx context.Context, ids []string, summary *Summary) bool {
	type docResult struct {
		id      string
		points  []vectorstore.Point
		elapsed time.Duration
		err     error
	}

	results := make(chan docResult, len(ids))
	var g errgroup.Group
	g.SetLimit(r.opts.Workers)

	dispatched := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		// Single-writer rule: only this goroutine touches the tracker.
		if err := r.tracker.MarkProcessing(id); err != nil {
			logging.IngestError("cannot mark %s processing: %v", id, err)
			continue
		}
		dispatched++

		id := id
		g.Go(func() error {
			started := time.Now()
			points, err := r.processDocument(ctx, id)
			results <- docResult{id: id, points: points, elapsed: time.Since(started), err: err}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()

	var drained bool
	select {
	case <-done:
		drained = true
	case <-time.After(drainTimeout):
		// Only reachable when ctx is cancelled and a worker is stuck in a
		// blocking call; its tracker row stays processing and is reset on
		// the next run.
		logging.IngestWarn("timed out waiting for in-flight workers")
	}

	var batch []vectorstore.Point
	collected := 0
	for drained && collected < dispatched {
		res := <-results
		collected++
		if res.err != nil {
			// Interrupt mid-fetch is not a document failure.
			if ctx.Err() != nil && errors.Is(res.err, ctx.Err()) {
				if err := r.tracker.MarkPending(res.id); err != nil {
					logging.IngestError("cannot return %s to pending: %v", res.id, err)
				}
				continue
			}
			logging.IngestError("document %s failed: %v", res.id, res.err)
			if err := r.tracker.MarkFailed(res.id, res.err.Error()); err != nil {
				logging.IngestError("cannot mark %s failed: %v", res.id, err)
			}
			continue
		}
		batch = append(batch, res.points...)
		if err := r.tracker.MarkCompleted(res.id, res.elapsed.Milliseconds()); err != nil {
			logging.IngestError("cannot mark %s completed: %v", res.id, err)
		}
	}

	// The partial batch is flushed even on interrupt so completed
	// documents are actually stored.
	if !r.opts.DryRun && len(batch) > 0 {
		n, failed, err := r.store.StoreBatch(context.WithoutCancel(ctx), batch, r.collection, r.opts.UpsertBatchSize)
		if err != nil {
			logging.IngestError("batch flush failed: %v", err)
		}
		summary.PointsStored += n
		summary.FailedUpserts = append(summary.FailedUpserts, failed...)
	}

	return ctx.Err() != nil
}

// processDocument runs the per-document pipeline: fetch, chunk, extract,
// assemble, embed. Any error fails just this document.
func (r *Runner) processDocument(ctx context.Context, id string) ([]vectorstore.Point, error) {
	doc, err := r.source.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	chunks, syllabus := r.chunker.Chunk(doc.Content)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s has no chunkable content", id)
	}

	var payloads []models.Payload
	switch r.source.Kind() {
	case models.KindExecutiveOrder:
		fields, err := r.extractor.ExtractEO(ctx, doc.Content)
		if err != nil {
			return nil, err
		}
		payloads = payload.BuildEO(*doc, chunks, fields)
	default:
		fields, err := r.extractor.ExtractSCOTUS(ctx, doc.Content, syllabus)
		if err != nil {
			return nil, err
		}
		payloads = payload.BuildSCOTUS(*doc, chunks, fields)
	}
	if len(payloads) == 0 {
		return nil, fmt.Errorf("document %s produced no valid payloads", id)
	}

	texts := make([]string, len(payloads))
	for i, p := range payloads {
		texts[i] = p.Text
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(payloads) {
		return nil, fmt.Errorf("embedding returned %d vectors for %d chunks", len(vectors), len(payloads))
	}

	ingestedAt := time.Now().UTC().Format(time.RFC3339)
	points := make([]vectorstore.Point, len(payloads))
	for i, p := range payloads {
		p.Metadata["ingested_at"] = ingestedAt
		points[i] = vectorstore.Point{Payload: p, Vector: vectors[i]}
	}

	logging.IngestDebug("document %s: %d chunks ready", id, len(points))
	return points, nil
}
