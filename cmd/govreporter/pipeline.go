package main

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"govreporter/internal/apis"
	"govreporter/internal/chunking"
	"govreporter/internal/config"
	"govreporter/internal/embedding"
	"govreporter/internal/ingest"
	"govreporter/internal/llm"
	"govreporter/internal/models"
	"govreporter/internal/tokens"
	"govreporter/internal/tracker"
	"govreporter/internal/vectorstore"
)

// =============================================================================
// PIPELINE CONSTRUCTION
// =============================================================================

// loadConfig reads the YAML config named by --config, or defaults, then
// applies the --qdrant-addr override.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if qdrantAddr != "" {
		host, portStr, err := net.SplitHostPort(qdrantAddr)
		if err != nil {
			return cfg, fmt.Errorf("invalid --qdrant-addr %q: %w", qdrantAddr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid --qdrant-addr port %q", portStr)
		}
		cfg.Qdrant.Host = host
		cfg.Qdrant.Port = port
	}
	return cfg, nil
}

func newStore(cfg config.Config) (*vectorstore.Store, error) {
	return vectorstore.New(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Qdrant.UseTLS, cfg.Qdrant.APIKey)
}

func newEmbedder(cfg config.Config) (*embedding.OpenAIEngine, error) {
	key, err := config.OpenAIAPIKey()
	if err != nil {
		return nil, err
	}
	return embedding.NewOpenAIEngine(key, cfg.OpenAI.EmbeddingModel)
}

func newExtractor(cfg config.Config) (*llm.Extractor, error) {
	key, err := config.OpenAIAPIKey()
	if err != nil {
		return nil, err
	}
	return llm.NewExtractor(key, cfg.OpenAI.ChatModel)
}

// trackerPath is the per-type progress database location.
func trackerPath(cfg config.Config, kind models.DocumentKind) string {
	name := "scotus_ingestion.db"
	if kind == models.KindExecutiveOrder {
		name = "executive_orders_ingestion.db"
	}
	return filepath.Join(cfg.Paths.ProgressDir, name)
}

// newSource builds the upstream client for one document kind.
func newSource(kind models.DocumentKind) (ingest.Source, error) {
	switch kind {
	case models.KindSCOTUS:
		token, err := config.CourtListenerToken()
		if err != nil {
			return nil, err
		}
		client, err := apis.NewCourtListener(token)
		if err != nil {
			return nil, err
		}
		return ingest.NewSCOTUSSource(client), nil
	case models.KindExecutiveOrder:
		return ingest.NewEOSource(apis.NewFederalRegister()), nil
	default:
		return nil, fmt.Errorf("unknown document kind %d", kind)
	}
}

// newRunner assembles the full ingestion pipeline for one document kind.
// The caller owns the returned tracker and must close it. An empty
// progressDB uses the per-type default under the configured progress dir.
func newRunner(cfg config.Config, kind models.DocumentKind, progressDB string, opts ingest.Options) (*ingest.Runner, *tracker.Tracker, error) {
	source, err := newSource(kind)
	if err != nil {
		return nil, nil, err
	}

	chunkCfg := cfg.Chunking.SCOTUS
	if kind == models.KindExecutiveOrder {
		chunkCfg = cfg.Chunking.EO
	}
	chunker, err := chunking.New(kind, chunkCfg, tokens.NewCounter())
	if err != nil {
		return nil, nil, err
	}

	extractor, err := newExtractor(cfg)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := newStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	if progressDB == "" {
		progressDB = trackerPath(cfg, kind)
	}
	tr, err := tracker.New(progressDB, kind.String())
	if err != nil {
		return nil, nil, err
	}

	runner, err := ingest.NewRunner(source, chunker, extractor, embedder, store, tr, opts)
	if err != nil {
		tr.Close()
		return nil, nil, err
	}
	return runner, tr, nil
}
