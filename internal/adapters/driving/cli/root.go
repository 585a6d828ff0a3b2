// Package cli implements the sercha-kb command line with cobra.
//
// Services are injected by main through SetServices; commands check for
// them at run time so that tests can swap in mocks.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var verbose bool

// SyncFactory builds a sync service on demand. The returned func releases
// its resources.
type SyncFactory func() (driving.SyncService, func() error, error)

// Injected services. Everything that touches the store or the journal is
// built lazily, so commands that do not need them do no file I/O.
var (
	settingsService driving.SettingsService

	knowledgeServiceFactory func() (driving.KnowledgeService, error)

	// syncServiceFactory is only called after the remote settings have
	// been validated.
	syncServiceFactory SyncFactory

	// historyServiceFactory serves sync history; it needs the journal only.
	historyServiceFactory SyncFactory
)

// Services groups the dependencies the commands need.
type Services struct {
	Settings  driving.SettingsService
	Knowledge func() (driving.KnowledgeService, error)
	Sync      SyncFactory
	History   SyncFactory
}

var rootCmd = &cobra.Command{
	Use:   "sercha-kb",
	Short: "A flat-file knowledge base for AI conversations",
	Long: `sercha-kb stores notes and AI conversations as Markdown files with a JSON
metadata header, keeps a rebuildable index, and mirrors entries into a
Notion database without creating duplicates.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the services used by the commands.
func SetServices(s Services) {
	settingsService = s.Settings
	knowledgeServiceFactory = s.Knowledge
	syncServiceFactory = s.Sync
	historyServiceFactory = s.History
}

func openKnowledgeService() (driving.KnowledgeService, error) {
	if knowledgeServiceFactory == nil {
		return nil, errors.New("knowledge service not configured")
	}
	return knowledgeServiceFactory()
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetOutput redirects command output and errors.
func SetOutput(out, errOut io.Writer) {
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
