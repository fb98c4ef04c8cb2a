// Package tracker records per-document ingestion progress in an embedded
// SQLite database, one file per document type. It is the single source of
// truth for resume semantics: a document already marked completed is never
// fetched again.
package tracker

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"govreporter/internal/logging"
)

// =============================================================================
// STATES
// =============================================================================

// State is a document's position in the ingestion lifecycle. Transitions
// form the DAG pending -> processing -> {completed, failed}; failed may go
// back to pending for an explicit retry. Nothing leaves completed.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// =============================================================================
// TRACKER
// =============================================================================

// Tracker persists document states and run history. It is accessed only by
// the orchestrator goroutine; workers report results over a channel.
type Tracker struct {
	db      *sql.DB
	path    string
	docType string
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	document_type TEXT NOT NULL,
	state TEXT NOT NULL DEFAULT 'pending',
	last_error TEXT,
	processing_time_ms INTEGER,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	failed_at TIMESTAMP,
	metadata_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_documents_state ON documents(state);

CREATE TABLE IF NOT EXISTS runs (
	run_id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_type TEXT NOT NULL,
	start_date TEXT,
	end_date TEXT,
	params_json TEXT,
	started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	ended_at TIMESTAMP,
	outcome TEXT
);
`

// New opens (or creates) the tracker database at path for one document type.
func New(path, docType string) (*Tracker, error) {
	timer := logging.StartTimer(logging.CategoryTracker, "New")
	defer timer.Stop()

	logging.Tracker("opening progress tracker at %s (type=%s)", path, docType)

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create tracker directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracker database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.TrackerDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.TrackerDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tracker schema: %w", err)
	}

	return &Tracker{db: db, path: path, docType: docType}, nil
}

// Close closes the underlying database.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// Path returns the database file path.
func (t *Tracker) Path() string {
	return t.path
}

// =============================================================================
// DOCUMENT OPERATIONS
// =============================================================================

// AddDocument registers a document as pending. Idempotent: a document that
// is already tracked, in any state, is left untouched.
func (t *Tracker) AddDocument(id string, metadata map[string]any) error {
	var metaJSON any
	if len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to encode document metadata: %w", err)
		}
		metaJSON = string(data)
	}

	_, err := t.db.Exec(
		`INSERT OR IGNORE INTO documents (id, document_type, state, metadata_json) VALUES (?, ?, ?, ?)`,
		id, t.docType, StatePending, metaJSON)
	if err != nil {
		return fmt.Errorf("failed to add document %s: %w", id, err)
	}
	return nil
}

// MarkProcessing moves a document to processing.
func (t *Tracker) MarkProcessing(id string) error {
	return t.transition(id, StateProcessing,
		`UPDATE documents SET state = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND state != 'completed'`,
		StateProcessing, id)
}

// MarkCompleted moves a document to completed, recording how long it took.
func (t *Tracker) MarkCompleted(id string, timeMS int64) error {
	return t.transition(id, StateCompleted,
		`UPDATE documents SET state = ?, processing_time_ms = ?, last_error = NULL,
		 updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND state != 'completed'`,
		StateCompleted, timeMS, id)
}

// MarkFailed moves a document to failed with the error that sank it.
func (t *Tracker) MarkFailed(id string, errMsg string) error {
	return t.transition(id, StateFailed,
		`UPDATE documents SET state = ?, last_error = ?,
		 updated_at = CURRENT_TIMESTAMP, failed_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND state != 'completed'`,
		StateFailed, errMsg, id)
}

// MarkPending moves a failed document back to pending for an explicit retry.
func (t *Tracker) MarkPending(id string) error {
	return t.transition(id, StatePending,
		`UPDATE documents SET state = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND state != 'completed'`,
		StatePending, id)
}

// transition runs a guarded state update. The guard excludes completed rows,
// so a transition out of completed (a programming error) is rejected, as is
// a transition on an unknown document.
func (t *Tracker) transition(id string, to State, query string, args ...any) error {
	res, err := t.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark document %s %s: %w", id, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark document %s %s: %w", id, to, err)
	}
	if n == 0 {
		var state State
		err := t.db.QueryRow(`SELECT state FROM documents WHERE id = ?`, id).Scan(&state)
		if err == sql.ErrNoRows {
			return fmt.Errorf("cannot mark unknown document %s %s", id, to)
		}
		if err != nil {
			return fmt.Errorf("failed to mark document %s %s: %w", id, to, err)
		}
		return fmt.Errorf("invalid transition for document %s: %s -> %s", id, state, to)
	}
	logging.TrackerDebug("document %s -> %s", id, to)
	return nil
}

// ResetProcessingStatus returns every processing document to pending. Run
// at orchestrator startup: a row stuck in processing means a prior run
// crashed mid-document. Only one ingest process per tracker is supported.
func (t *Tracker) ResetProcessingStatus() (int64, error) {
	res, err := t.db.Exec(
		`UPDATE documents SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE state = ?`,
		StatePending, StateProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to reset processing documents: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Tracker("reset %d interrupted documents to pending", n)
	}
	return n, nil
}

// GetPendingDocuments returns the ids of all pending documents in insertion
// order.
func (t *Tracker) GetPendingDocuments() ([]string, error) {
	rows, err := t.db.Query(
		`SELECT id FROM documents WHERE state = ? ORDER BY created_at, id`, StatePending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetState returns a document's current state, or "" when untracked.
func (t *Tracker) GetState(id string) (State, error) {
	var state State
	err := t.db.QueryRow(`SELECT state FROM documents WHERE id = ?`, id).Scan(&state)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read document state: %w", err)
	}
	return state, nil
}

// =============================================================================
// STATISTICS
// =============================================================================

// FailedDocument is one entry in the failure report.
type FailedDocument struct {
	ID       string `json:"id"`
	Error    string `json:"error"`
	FailedAt string `json:"failed_at"`
}

// Statistics summarizes tracker contents for end-of-run reporting.
type Statistics struct {
	Total               int              `json:"total"`
	Completed           int              `json:"completed"`
	Failed              int              `json:"failed"`
	Pending             int              `json:"pending"`
	Processing          int              `json:"processing"`
	SuccessRate         float64          `json:"success_rate"`
	AvgProcessingTimeMS float64          `json:"avg_processing_time_ms"`
	FailedDocuments     []FailedDocument `json:"failed_documents"`
}

// maxFailedReported caps the failure list in statistics.
const maxFailedReported = 10

// GetStatistics returns aggregate counts plus the most recent failures.
func (t *Tracker) GetStatistics() (*Statistics, error) {
	stats := &Statistics{}

	rows, err := t.db.Query(`SELECT state, COUNT(*) FROM documents GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		switch state {
		case StateCompleted:
			stats.Completed = count
		case StateFailed:
			stats.Failed = count
		case StatePending:
			stats.Pending = count
		case StateProcessing:
			stats.Processing = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if done := stats.Completed + stats.Failed; done > 0 {
		stats.SuccessRate = float64(stats.Completed) / float64(done)
	}

	var avg sql.NullFloat64
	err = t.db.QueryRow(
		`SELECT AVG(processing_time_ms) FROM documents WHERE processing_time_ms IS NOT NULL`).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average processing time: %w", err)
	}
	if avg.Valid {
		stats.AvgProcessingTimeMS = avg.Float64
	}

	failed, err := t.db.Query(
		`SELECT id, COALESCE(last_error, ''), COALESCE(failed_at, '')
		 FROM documents WHERE state = ? ORDER BY failed_at DESC LIMIT ?`,
		StateFailed, maxFailedReported)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed documents: %w", err)
	}
	defer failed.Close()

	for failed.Next() {
		var fd FailedDocument
		if err := failed.Scan(&fd.ID, &fd.Error, &fd.FailedAt); err != nil {
			return nil, err
		}
		stats.FailedDocuments = append(stats.FailedDocuments, fd)
	}
	return stats, failed.Err()
}

// =============================================================================
// RUN HISTORY
// =============================================================================

// Run outcomes.
const (
	RunCompleted = "completed"
	RunAborted   = "aborted"
)

// StartRun records the start of an orchestrator invocation and returns its
// run id.
func (t *Tracker) StartRun(startDate, endDate string, params map[string]any) (int64, error) {
	var paramsJSON any
	if len(params) > 0 {
		data, err := json.Marshal(params)
		if err != nil {
			return 0, fmt.Errorf("failed to encode run params: %w", err)
		}
		paramsJSON = string(data)
	}

	res, err := t.db.Exec(
		`INSERT INTO runs (document_type, start_date, end_date, params_json) VALUES (?, ?, ?, ?)`,
		t.docType, startDate, endDate, paramsJSON)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	logging.Tracker("started run %d (%s, %s..%s)", runID, t.docType, startDate, endDate)
	return runID, nil
}

// EndRun records a run's outcome and end time.
func (t *Tracker) EndRun(runID int64, outcome string) error {
	_, err := t.db.Exec(
		`UPDATE runs SET ended_at = CURRENT_TIMESTAMP, outcome = ? WHERE run_id = ?`,
		outcome, runID)
	if err != nil {
		return fmt.Errorf("failed to end run %d: %w", runID, err)
	}
	logging.Tracker("ended run %d: %s", runID, outcome)
	return nil
}
