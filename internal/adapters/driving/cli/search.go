package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var (
	searchCategory string
	searchTag      string
	searchLimit    int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search the index",
	Long: `Filters indexed entries, newest first.

Text is matched case-insensitively against title, filename and URL.
--category and --tag narrow the results further.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "only this category")
	searchCmd.Flags().StringVar(&searchTag, "tag", "", "only entries with this tag")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results (0 for all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := openKnowledgeService()
	if err != nil {
		return err
	}

	query := domain.SearchQuery{Category: searchCategory, Tag: searchTag}
	if len(args) > 0 {
		query.Text = args[0]
	}

	results, err := svc.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchTable(cmd, results)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, results []domain.Entry) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.Entry) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	for i := range results {
		e := &results[i]
		cmd.Printf("  [%d] %s (%s)\n", i+1, e.Title, e.Category)
		cmd.Printf("      %s  %s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Filename)
		if len(e.Tags) > 0 {
			cmd.Printf("      Tags: %s\n", strings.Join(e.Tags, ", "))
		}
		if e.URL != "" {
			cmd.Printf("      Source: %s\n", e.URL)
		}
	}
}
