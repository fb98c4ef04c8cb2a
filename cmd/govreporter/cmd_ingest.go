package main

import (
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"govreporter/internal/ingest"
	"govreporter/internal/models"
)

var (
	ingestStartDate  string
	ingestEndDate    string
	ingestBatchSize  int
	ingestWorkers    int
	ingestDryRun     bool
	ingestProgressDB string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [scotus|eo]",
	Short: "Ingest documents for a date range into the vector store",
	Long: `Lists documents from the upstream API, then per document: fetch, chunk,
extract metadata with the LLM, embed, and upsert into Qdrant. Progress is
tracked in SQLite, so an interrupted or partially failed run can be re-run
with the same arguments and only pending documents are processed.

Examples:
  govreporter ingest scotus --start-date 2024-01-01 --end-date 2024-06-30
  govreporter ingest eo --start-date 2025-01-20 --end-date 2025-03-01 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestStartDate, "start-date", "", "Range start, YYYY-MM-DD (required)")
	ingestCmd.Flags().StringVar(&ingestEndDate, "end-date", "", "Range end, YYYY-MM-DD (required)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "Documents per batch (default from config)")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "Parallel document workers (default from config)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "Process documents but skip all Qdrant writes")
	ingestCmd.Flags().StringVar(&ingestProgressDB, "progress-db", "", "Progress database path (default per-type under the progress dir)")
	ingestCmd.MarkFlagRequired("start-date")
	ingestCmd.MarkFlagRequired("end-date")
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func kindFromArg(arg string) (models.DocumentKind, error) {
	switch arg {
	case "scotus":
		return models.KindSCOTUS, nil
	case "eo":
		return models.KindExecutiveOrder, nil
	default:
		return 0, fmt.Errorf("unknown document type %q (want scotus or eo)", arg)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	kind, err := kindFromArg(args[0])
	if err != nil {
		return err
	}
	if !datePattern.MatchString(ingestStartDate) || !datePattern.MatchString(ingestEndDate) {
		return fmt.Errorf("dates must be YYYY-MM-DD: start=%q end=%q", ingestStartDate, ingestEndDate)
	}
	if ingestStartDate > ingestEndDate {
		return fmt.Errorf("start date %s is after end date %s", ingestStartDate, ingestEndDate)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := ingest.Options{
		StartDate:       ingestStartDate,
		EndDate:         ingestEndDate,
		BatchSize:       cfg.Ingest.BatchSize,
		UpsertBatchSize: cfg.Ingest.UpsertBatchSize,
		Workers:         cfg.Ingest.WorkerCount,
		DryRun:          ingestDryRun,
	}
	if ingestBatchSize > 0 {
		opts.BatchSize = ingestBatchSize
	}
	if ingestWorkers > 0 {
		opts.Workers = ingestWorkers
	}

	runner, tr, err := newRunner(cfg, kind, ingestProgressDB, opts)
	if err != nil {
		return err
	}
	defer tr.Close()

	// Ctrl-C cancels the run; the runner flushes the partial batch and
	// records progress before returning.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting ingestion",
		zap.String("type", kind.String()),
		zap.String("start", ingestStartDate),
		zap.String("end", ingestEndDate),
		zap.Bool("dry_run", ingestDryRun))

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(summary)

	// A clean interrupt is not a failure; the run resumes on the next
	// invocation with the same dates.
	if summary.Interrupted {
		fmt.Fprintln(os.Stderr, "interrupted: re-run with the same dates to resume")
	}
	return nil
}

func printSummary(s *ingest.Summary) {
	fmt.Printf("Documents: %d total, %d completed, %d failed, %d pending\n",
		s.Stats.Total, s.Stats.Completed, s.Stats.Failed, s.Stats.Pending)
	fmt.Printf("Success rate: %.1f%%, avg processing time: %.0fms\n",
		s.Stats.SuccessRate*100, s.Stats.AvgProcessingTimeMS)
	fmt.Printf("Points stored: %d\n", s.PointsStored)
	if len(s.FailedUpserts) > 0 {
		fmt.Printf("Failed upserts: %d (first: %s)\n", len(s.FailedUpserts), s.FailedUpserts[0])
	}
	for _, f := range s.Stats.FailedDocuments {
		fmt.Printf("  failed %s: %s\n", f.ID, f.Error)
	}
}
