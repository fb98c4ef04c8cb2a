package tracker

import (
	"path/filepath"
	"strings"
	"testing"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := New(filepath.Join(t.TempDir(), "scotus_progress.db"), "supreme_court_opinion")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestAddDocumentIdempotent(t *testing.T) {
	tr := newTestTracker(t)

	if err := tr.AddDocument("doc-1", nil); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if err := tr.MarkProcessing("doc-1"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	// Re-adding must not reset the state.
	if err := tr.AddDocument("doc-1", map[string]any{"title": "x"}); err != nil {
		t.Fatalf("AddDocument again: %v", err)
	}
	state, err := tr.GetState("doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if state != StateProcessing {
		t.Errorf("state = %q, want processing", state)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	tr := newTestTracker(t)

	tr.AddDocument("doc-1", nil)
	if err := tr.MarkProcessing("doc-1"); err != nil {
		t.Fatalf("pending -> processing: %v", err)
	}
	if err := tr.MarkCompleted("doc-1", 1234); err != nil {
		t.Fatalf("processing -> completed: %v", err)
	}

	// Nothing leaves completed.
	if err := tr.MarkProcessing("doc-1"); err == nil {
		t.Error("completed -> processing should be rejected")
	}
	if err := tr.MarkFailed("doc-1", "boom"); err == nil {
		t.Error("completed -> failed should be rejected")
	}
	if err := tr.MarkPending("doc-1"); err == nil {
		t.Error("completed -> pending should be rejected")
	}
}

func TestFailedRetry(t *testing.T) {
	tr := newTestTracker(t)

	tr.AddDocument("doc-1", nil)
	tr.MarkProcessing("doc-1")
	if err := tr.MarkFailed("doc-1", "upstream timeout"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	// Explicit retry: failed -> pending.
	if err := tr.MarkPending("doc-1"); err != nil {
		t.Fatalf("failed -> pending: %v", err)
	}
	ids, err := tr.GetPendingDocuments()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "doc-1" {
		t.Errorf("pending = %v, want [doc-1]", ids)
	}
}

func TestUnknownDocumentRejected(t *testing.T) {
	tr := newTestTracker(t)
	if err := tr.MarkProcessing("ghost"); err == nil {
		t.Error("marking an untracked document should fail")
	}
}

func TestResetProcessingStatus(t *testing.T) {
	tr := newTestTracker(t)

	tr.AddDocument("doc-1", nil)
	tr.AddDocument("doc-2", nil)
	tr.AddDocument("doc-3", nil)
	tr.MarkProcessing("doc-1")
	tr.MarkProcessing("doc-2")
	tr.MarkProcessing("doc-3")
	tr.MarkCompleted("doc-3", 50)

	n, err := tr.ResetProcessingStatus()
	if err != nil {
		t.Fatalf("ResetProcessingStatus: %v", err)
	}
	if n != 2 {
		t.Errorf("reset %d documents, want 2", n)
	}

	ids, _ := tr.GetPendingDocuments()
	if len(ids) != 2 {
		t.Errorf("pending = %v, want 2 documents", ids)
	}
	if state, _ := tr.GetState("doc-3"); state != StateCompleted {
		t.Errorf("completed document was reset: %q", state)
	}
}

func TestGetStatistics(t *testing.T) {
	tr := newTestTracker(t)

	for _, id := range []string{"a", "b", "c", "d"} {
		tr.AddDocument(id, nil)
	}
	tr.MarkProcessing("a")
	tr.MarkCompleted("a", 100)
	tr.MarkProcessing("b")
	tr.MarkCompleted("b", 300)
	tr.MarkProcessing("c")
	tr.MarkFailed("c", "llm response violates schema")

	stats, err := tr.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.Total != 4 || stats.Completed != 2 || stats.Failed != 1 || stats.Pending != 1 {
		t.Errorf("counts wrong: %+v", stats)
	}
	if stats.SuccessRate < 0.66 || stats.SuccessRate > 0.67 {
		t.Errorf("success_rate = %f, want 2/3", stats.SuccessRate)
	}
	if stats.AvgProcessingTimeMS != 200 {
		t.Errorf("avg_processing_time_ms = %f, want 200", stats.AvgProcessingTimeMS)
	}
	if len(stats.FailedDocuments) != 1 || stats.FailedDocuments[0].ID != "c" {
		t.Fatalf("failed documents = %+v", stats.FailedDocuments)
	}
	if !strings.Contains(stats.FailedDocuments[0].Error, "schema") {
		t.Errorf("failure error not recorded: %+v", stats.FailedDocuments[0])
	}
}

func TestFailedListCapped(t *testing.T) {
	tr := newTestTracker(t)

	for i := 0; i < 15; i++ {
		id := string(rune('a' + i))
		tr.AddDocument(id, nil)
		tr.MarkProcessing(id)
		tr.MarkFailed(id, "boom")
	}

	stats, err := tr.GetStatistics()
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.FailedDocuments) != maxFailedReported {
		t.Errorf("failed list = %d entries, want %d", len(stats.FailedDocuments), maxFailedReported)
	}
}

func TestRunHistory(t *testing.T) {
	tr := newTestTracker(t)

	runID, err := tr.StartRun("2024-01-01", "2024-06-30", map[string]any{"batch_size": 50})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if runID == 0 {
		t.Error("run id should be non-zero")
	}
	if err := tr.EndRun(runID, RunCompleted); err != nil {
		t.Fatalf("EndRun: %v", err)
	}

	var outcome string
	err = tr.db.QueryRow(`SELECT outcome FROM runs WHERE run_id = ?`, runID).Scan(&outcome)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != RunCompleted {
		t.Errorf("outcome = %q, want completed", outcome)
	}
}
