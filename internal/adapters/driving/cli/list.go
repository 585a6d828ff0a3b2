package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories and their entry counts",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	svc, err := openKnowledgeService()
	if err != nil {
		return err
	}

	categories, err := svc.Categories(cmd.Context())
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	entries, err := svc.Search(cmd.Context(), domain.SearchQuery{})
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	counts := make(map[string]int, len(categories))
	for i := range entries {
		counts[entries[i].Category]++
	}

	if len(categories) == 0 {
		cmd.Println("No categories.")
		return nil
	}
	for _, c := range categories {
		cmd.Printf("  %-12s %d\n", c, counts[c])
	}
	cmd.Printf("Total: %d entries\n", len(entries))
	return nil
}
