package main

import (
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"github.com/spf13/cobra"

	"govreporter/internal/vectorstore"
)

var (
	queryCollection string
	queryLimit      int
	querySection    string
	queryPresident  string
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Run a semantic search against the vector store",
	Long: `Embeds the query text and searches one or both collections, printing
the highest-scoring chunks with their document metadata.

Examples:
  govreporter query "fourth amendment vehicle searches"
  govreporter query "tariff authority" --collection executive_orders --president "..."
  govreporter query "standing to sue" --section Syllabus --limit 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryCollection, "collection", "", "Search one collection only (supreme_court_opinions or executive_orders)")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 5, "Maximum results per collection")
	queryCmd.Flags().StringVar(&querySection, "section", "", "Restrict opinions to one section label, e.g. Syllabus")
	queryCmd.Flags().StringVar(&queryPresident, "president", "", "Restrict orders to one signing president")
}

func runQuery(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

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

	vec, err := embedder.Embed(cmd.Context(), text)
	if err != nil {
		return err
	}

	collections := []string{vectorstore.CollectionSCOTUS, vectorstore.CollectionEO}
	if queryCollection != "" {
		if queryCollection != vectorstore.CollectionSCOTUS && queryCollection != vectorstore.CollectionEO {
			return fmt.Errorf("unknown collection %q", queryCollection)
		}
		collections = []string{queryCollection}
	}

	for _, collection := range collections {
		var filter *qdrant.Filter
		switch {
		case collection == vectorstore.CollectionSCOTUS && querySection != "":
			filter = vectorstore.MatchFilter(map[string]string{"section_label": querySection})
		case collection == vectorstore.CollectionEO && queryPresident != "":
			filter = vectorstore.MatchFilter(map[string]string{"president": queryPresident})
		}

		results, err := store.Search(cmd.Context(), vec, collection, queryLimit, nil, filter)
		if err != nil {
			return fmt.Errorf("search in %s failed: %w", collection, err)
		}

		fmt.Printf("== %s (%d results)\n", collection, len(results))
		for _, r := range results {
			title, _ := r.Payload.Metadata["title"].(string)
			date, _ := r.Payload.Metadata["publication_date"].(string)
			section, _ := r.Payload.Metadata["section_label"].(string)
			fmt.Printf("[%.3f] %s (%s)", r.Score, title, date)
			if section != "" {
				fmt.Printf(" - %s", section)
			}
			fmt.Printf("\n    id: %s\n    %s\n", r.Payload.ID, snippet(r.Payload.Text, 200))
		}
	}
	return nil
}

// snippet truncates text for terminal display.
func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
