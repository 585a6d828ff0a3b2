package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/connectors/chatexport"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var (
	syncUpdate   bool
	syncDryRun   bool
	syncCategory string

	importPattern string

	historyLimit int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror local entries into Notion",
	Long: `Reconciles every indexed entry with the Notion database.

Each entry is matched by its fingerprint. Missing entries are created;
existing ones are skipped, or updated in place with --update. --dry-run
queries the database and reports the decisions without writing.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var syncImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Mirror exported chat files into Notion",
	Long: `Loads every chat export under dir whose name matches --pattern and
reconciles each chat with the Notion database. Files or chats that cannot be
read are reported as failures and the rest of the batch continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runSyncImport,
}

var syncHistoryCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recent sync runs, or the results of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSyncHistory,
}

func init() {
	for _, c := range []*cobra.Command{syncCmd, syncImportCmd} {
		c.Flags().BoolVar(&syncUpdate, "update", false, "update existing remote records")
		c.Flags().BoolVar(&syncDryRun, "dry-run", false, "report decisions without writing")
	}
	syncCmd.Flags().StringVarP(&syncCategory, "category", "c", "", "only sync this category")
	syncImportCmd.Flags().StringVar(&importPattern, "pattern", chatexport.DefaultPattern, "file name glob")
	syncHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show (0 for all)")

	syncCmd.AddCommand(syncImportCmd)
	syncCmd.AddCommand(syncHistoryCmd)
	rootCmd.AddCommand(syncCmd)
}

func syncOptions() domain.SyncOptions {
	return domain.SyncOptions{Update: syncUpdate, DryRun: syncDryRun, Category: syncCategory}
}

// openSyncService validates the remote settings before building the service.
func openSyncService() (driving.SyncService, func() error, error) {
	if syncServiceFactory == nil {
		return nil, nil, errors.New("sync service not configured")
	}
	if settingsService != nil {
		if err := settingsService.Notion().Validate(); err != nil {
			return nil, nil, err
		}
	}
	return syncServiceFactory()
}

func runSync(cmd *cobra.Command, _ []string) error {
	svc, closeFn, err := openSyncService()
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	report, err := svc.SyncStore(cmd.Context(), syncOptions())
	if report != nil {
		printSyncReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if report.HasFailures() {
		return domain.ErrSyncFailed
	}
	return nil
}

func runSyncImport(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openSyncService()
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	loaded, err := chatexport.Load(args[0], importPattern)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	cmd.Printf("Loaded %d chats from %d files\n", len(loaded.Entries), loaded.Files)

	opts := syncOptions()
	opts.Category = ""
	report, err := svc.SyncEntries(cmd.Context(), loaded.Entries, loaded.Errors, opts)
	if report != nil {
		printSyncReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if report.HasFailures() {
		return domain.ErrSyncFailed
	}
	return nil
}

func runSyncHistory(cmd *cobra.Command, args []string) error {
	if historyServiceFactory == nil {
		return errors.New("sync history not configured")
	}
	svc, closeFn, err := historyServiceFactory()
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	if len(args) == 1 {
		run, err := svc.Run(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("history failed: %w", err)
		}
		printSyncRun(cmd, run)
		return nil
	}

	runs, err := svc.History(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No sync runs recorded.")
		return nil
	}
	for i := range runs {
		printRunSummary(cmd, &runs[i])
	}
	return nil
}

func printRunSummary(cmd *cobra.Command, r *domain.SyncRun) {
	cmd.Printf("  %s  %s  created=%d updated=%d skipped=%d failed=%d\n",
		r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.ID,
		r.Report.Created, r.Report.Updated, r.Report.Skipped, r.Report.Failed)
}

// printSyncRun prints a recorded run with its per-record results.
func printSyncRun(cmd *cobra.Command, r *domain.SyncRun) {
	printRunSummary(cmd, r)
	for i := range r.Report.Results {
		res := &r.Report.Results[i]
		label := res.Title
		if label == "" {
			label = res.Filename
		}
		if res.Failed() {
			cmd.Printf("    FAIL    %s: %v\n", label, res.Err)
			continue
		}
		line := fmt.Sprintf("    %-7s %s", res.Decision, label)
		if res.RemoteID != "" {
			line += " [" + res.RemoteID + "]"
		}
		cmd.Println(line)
	}
}

func printSyncReport(cmd *cobra.Command, report *domain.SyncReport) {
	for i := range report.Results {
		res := &report.Results[i]
		label := res.Title
		if label == "" {
			label = res.Filename
		}
		switch {
		case res.Failed():
			cmd.Printf("  FAIL    %s: %v\n", label, res.Err)
		case res.DryRun:
			cmd.Printf("  %-7s %s (dry run)\n", res.Decision, label)
		default:
			cmd.Printf("  %-7s %s\n", res.Decision, label)
		}
	}

	prefix := "Sync"
	if report.DryRun {
		prefix = "Dry run"
	}
	cmd.Printf("%s complete: %d created, %d updated, %d skipped, %d failed\n",
		prefix, report.Created, report.Updated, report.Skipped, report.Failed)
}
