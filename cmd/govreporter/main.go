package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"govreporter/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	qdrantAddr string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "govreporter",
	Short: "govreporter - searchable vector index of U.S. federal documents",
	Long: `govreporter ingests Supreme Court opinions from CourtListener and
Executive Orders from the Federal Register, enriches them with LLM-extracted
plain-language metadata, and stores embedded chunks in Qdrant. The server
command exposes semantic search over the index via MCP.

Credentials come from the environment (a .env file is also read):
  COURT_LISTENER_API_TOKEN  CourtListener REST API token
  OPENAI_API_KEY            OpenAI API key for embeddings and extraction`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; variables already set in the environment win.
		_ = godotenv.Load()

		if err := logging.Initialize("."); err != nil {
			return err
		}

		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&qdrantAddr, "qdrant-addr", "", "Qdrant address as host:port (overrides config)")

	// Add commands to root
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(serverCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
