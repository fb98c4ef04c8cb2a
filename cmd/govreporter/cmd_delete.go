package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"govreporter/internal/models"
	"govreporter/internal/vectorstore"
)

var (
	deleteAll        bool
	deleteSCOTUS     bool
	deleteEO         bool
	deleteCollection string
	deleteYes        bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete collections and their progress trackers",
	Long: `Deletes the selected Qdrant collections, then removes the matching
SQLite progress trackers so a later ingest starts from scratch. The vector
data goes first: if the collection delete fails the tracker is kept, since
a tracker without vectors would silently skip re-ingestion.

Examples:
  govreporter delete --scotus
  govreporter delete --all -y
  govreporter delete --collection executive_orders`,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete both document collections")
	deleteCmd.Flags().BoolVar(&deleteSCOTUS, "scotus", false, "Delete the Supreme Court opinions collection")
	deleteCmd.Flags().BoolVar(&deleteEO, "eo", false, "Delete the Executive Orders collection")
	deleteCmd.Flags().StringVar(&deleteCollection, "collection", "", "Delete one collection by name (no tracker removal for unknown names)")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

// kindForCollection maps the known collection names back to their document
// kind, so the matching tracker can be removed too.
func kindForCollection(name string) (models.DocumentKind, bool) {
	switch name {
	case vectorstore.CollectionSCOTUS:
		return models.KindSCOTUS, true
	case vectorstore.CollectionEO:
		return models.KindExecutiveOrder, true
	default:
		return 0, false
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	var targets []string
	switch {
	case deleteAll:
		targets = []string{vectorstore.CollectionSCOTUS, vectorstore.CollectionEO}
	case deleteCollection != "":
		targets = []string{deleteCollection}
	default:
		if deleteSCOTUS {
			targets = append(targets, vectorstore.CollectionSCOTUS)
		}
		if deleteEO {
			targets = append(targets, vectorstore.CollectionEO)
		}
	}
	if len(targets) == 0 {
		return fmt.Errorf("nothing selected: use --all, --scotus, --eo, or --collection")
	}

	if !deleteYes && !confirm(fmt.Sprintf("Delete %s and matching progress trackers?", strings.Join(targets, ", "))) {
		fmt.Println("aborted")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	for _, name := range targets {
		if err := store.DeleteCollection(cmd.Context(), name); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", name, err)
		}
		fmt.Printf("deleted collection %s\n", name)

		kind, ok := kindForCollection(name)
		if !ok {
			continue
		}
		path := trackerPath(cfg, kind)
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to remove tracker %s: %w", path, err)
		}
		fmt.Printf("removed tracker %s\n", path)
	}
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
