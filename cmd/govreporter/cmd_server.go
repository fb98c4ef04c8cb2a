package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"govreporter/internal/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve semantic search tools over MCP stdio",
	Long: `Starts the Model Context Protocol server on stdin/stdout. MCP clients
get four tools: search_government_documents, search_scotus_opinions,
search_executive_orders, and get_document_by_id. Logs go to the category
log files, never to stdout, which carries the protocol stream.`,
	RunE: runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(embedder, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
