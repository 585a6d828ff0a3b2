package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/watch"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the index whenever record files change",
	Long: `Watches the store root and every category directory, and rebuilds the
index once changes have settled. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "settle delay before rebuilding")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	svc, err := openKnowledgeService()
	if err != nil {
		return err
	}

	root := settingsService.StoreRoot()
	w := watch.New(root, svc,
		watch.WithDebounce(watchDebounce),
		watch.WithOnRebuild(func(report *domain.RebuildReport, err error) {
			if err != nil {
				cmd.PrintErrf("rebuild failed: %v\n", err)
				return
			}
			printRebuild(cmd, report)
		}),
	)

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", root)
	return w.Run(cmd.Context())
}
