package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the record files",
	Args:  cobra.NoArgs,
	RunE:  runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	svc, err := openKnowledgeService()
	if err != nil {
		return err
	}

	report, err := svc.Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	printRebuild(cmd, report)
	return nil
}

func printRebuild(cmd *cobra.Command, report *domain.RebuildReport) {
	cmd.Printf("Indexed %d entries", report.Indexed)
	if len(report.Skipped) == 0 {
		cmd.Println()
		return
	}
	cmd.Printf(", skipped %d:\n", len(report.Skipped))
	for _, e := range report.Skipped {
		cmd.Printf("  - %s: %v\n", e.Path, e.Err)
	}
}
